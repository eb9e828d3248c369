package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/repocensus/internal/adapters/driven/config/file"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted run defaults",
	Long: `Reads and writes the TOML config file holding run defaults.

Supported keys:
  token    Personal access token used when --token is not given
  output   Output CSV path used when --output is not given`,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		cmd.Println(path)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a config value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	switch args[0] {
	case "token":
		cmd.Println(cfg.Token)
	case "output":
		cmd.Println(cfg.Output)
	default:
		return fmt.Errorf("unknown config key %q", args[0])
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, err := file.Load(path)
	if err != nil {
		return err
	}

	switch args[0] {
	case "token":
		cfg.Token = args[1]
	case "output":
		cfg.Output = args[1]
	default:
		return fmt.Errorf("unknown config key %q", args[0])
	}

	if err := file.Save(path, cfg); err != nil {
		return err
	}
	cmd.Printf("Set %s.\n", args[0])
	return nil
}
