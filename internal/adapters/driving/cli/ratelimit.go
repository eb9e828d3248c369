package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/repocensus/internal/connectors/github"
)

var ratelimitToken string

var ratelimitCmd = &cobra.Command{
	Use:   "ratelimit",
	Short: "Show the current API request quota",
	Long: `Queries the rate limit endpoint (which does not count against the quota)
and prints the core quota, what remains of it, and when it resets.`,
	Args: cobra.NoArgs,
	RunE: runRatelimit,
}

func init() {
	ratelimitCmd.Flags().StringVar(
		&ratelimitToken, "token", "", "Personal access token (or set GITHUB_TOKEN)")
	rootCmd.AddCommand(ratelimitCmd)
}

func runRatelimit(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	token := resolveToken(ratelimitToken, cfg.Token)

	ctx := context.Background()
	client := github.NewClient(ctx, token)

	limits, err := client.RateLimits(ctx)
	if err != nil {
		return err
	}

	core := limits.GetCore()
	if core == nil {
		cmd.Println("No core rate limit reported.")
		return nil
	}

	cmd.Printf("Core quota: %d of %d requests remaining.\n", core.Remaining, core.Limit)
	cmd.Printf("Resets at %s (%s from now).\n",
		core.Reset.Format(time.RFC3339),
		time.Until(core.Reset.Time).Round(time.Second))
	return nil
}
