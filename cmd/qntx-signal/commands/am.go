package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/qntx-signal/am"
	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/sym"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: sym.Short("am"),
	Long: sym.AM + ` am: Manage qntx-signal configuration ("I am")

Display and validate configuration settings.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (QNTX_SIGNAL_* prefix)
3. Project config (./am.toml, searched up the directory tree)
4. User config (~/.qntx-signal/am.toml)
5. System config (/etc/qntx-signal/am.toml)
6. Default values

Examples:
  qntx-signal am show                    # Show current configuration
  qntx-signal am show --format json      # Show configuration in JSON format
  qntx-signal am get decoder.command     # Get specific config value
  qntx-signal am validate                # Validate current configuration
  qntx-signal am validate ./am.toml      # Validate one file`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., decoder.command, batch.workers)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate current configuration",
	Long: `Validate the merged configuration and report unknown keys in every loaded
config file. With a file argument, only that file (on top of defaults) is
checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAmValidate,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
}

// marshalConfig renders cfg in one of the supported formats.
func marshalConfig(cfg *am.Config, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(cfg, "", "  ")
	case "yaml":
		data, err := yaml.Marshal(cfg)
		return append([]byte("# qntx-signal configuration\n"), data...), err
	case "toml":
		data, err := toml.Marshal(cfg)
		return append([]byte("# qntx-signal configuration\n"), data...), err
	default:
		return nil, errors.WithHint(
			errors.Newf("unsupported format: %s", format),
			"supported: toml, json, yaml")
	}
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	data, err := marshalConfig(cfg, configFormat)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	if configFormat == "json" {
		fmt.Fprintln(cmd.OutOrStdout())
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	v := am.GetViper()
	if !v.IsSet(key) {
		return errors.Newf("configuration key %q not found", key)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	var (
		cfg   *am.Config
		files []string
		err   error
	)
	if len(args) == 1 {
		cfg, err = am.LoadFromFile(args[0])
		files = args
	} else {
		cfg, err = am.Load()
		files = am.LoadedFiles()
	}
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	var unknown int
	for _, path := range files {
		keys, err := am.UnknownKeys(path)
		if err != nil {
			return err
		}
		for _, k := range keys {
			pterm.Warning.Printf("%s: unknown key %q\n", path, k)
			unknown++
		}
	}

	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	if unknown > 0 {
		return errors.Wrapf(errors.ErrInvalidConfig, "%d unknown keys", unknown)
	}

	if len(files) == 0 {
		pterm.Info.Println("No config files found; using defaults and environment")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}
