package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/repocensus/internal/adapters/driven/sink/csvfile"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Inspect an output file's row count and resume point",
	Long: `Reads an existing output file, checks its header against the fixed schema,
and reports how many rows it holds and the repository id the next fetch
would resume after.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(
		&statusOutput, "output", "", "Output CSV path (default "+DefaultOutput+")")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	output := statusOutput
	if output == "" {
		output = cfg.Output
	}
	if output == "" {
		output = DefaultOutput
	}

	info, err := csvfile.Inspect(output)
	if err != nil {
		return err
	}

	cmd.Printf("%s: %d rows.\n", output, info.Rows)
	if info.LastID > 0 {
		cmd.Printf("Next fetch resumes after repository id %d.\n", info.LastID)
	} else {
		cmd.Println("No data rows yet; next fetch starts from the beginning.")
	}
	return nil
}
