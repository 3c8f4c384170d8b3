package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/clinpipe/clinpipe/conf"
	"github.com/clinpipe/clinpipe/display"
)

// ConfCmd manages clinpipe configuration.
var ConfCmd = &cobra.Command{
	Use:   "conf",
	Short: "Manage clinpipe configuration",
	Long: `conf — Manage clinpipe configuration.

Configuration sources (in order of precedence):
1. Environment variables (CLINPIPE_* prefix)
2. Project config (./clinpipe.toml, searched upward)
3. User config (~/.clinpipe/clinpipe.toml)
4. System config (/etc/clinpipe/config.toml)
5. Default values

Examples:
  clinpipe conf show                    # Show current configuration
  clinpipe conf get pipeline.workers    # Get a specific value
  clinpipe conf validate                # Validate current configuration
  clinpipe conf init                    # Write defaults to ~/.clinpipe/clinpipe.toml`,
}

var confShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfShow,
}

var confGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., pipeline.workers)",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfGet,
}

var confValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runConfValidate,
}

var confInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to the user config file",
	RunE:  runConfInit,
}

func init() {
	ConfCmd.AddCommand(confShowCmd)
	ConfCmd.AddCommand(confGetCmd)
	ConfCmd.AddCommand(confValidateCmd)
	ConfCmd.AddCommand(confInitCmd)
}

func runConfShow(cmd *cobra.Command, args []string) error {
	settings := conf.GetViper().AllSettings()

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(settings)
	}

	data, err := toml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}

func runConfGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := conf.Get(key)
	if value == nil {
		keys := conf.GetViper().AllKeys()
		sort.Strings(keys)
		return fmt.Errorf("unknown configuration key %q (known keys: %v)", key, keys)
	}
	fmt.Println(value)
	return nil
}

func runConfValidate(cmd *cobra.Command, args []string) error {
	cfg, err := conf.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}
	fmt.Println("Configuration is valid")
	fmt.Println(cfg.String())
	return nil
}

func runConfInit(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}
	path := filepath.Join(home, ".clinpipe", "clinpipe.toml")
	if err := conf.WriteDefault(path); err != nil {
		return err
	}
	fmt.Printf("Wrote default configuration to %s\n", path)
	return nil
}
