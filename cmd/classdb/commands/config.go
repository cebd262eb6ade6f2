package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/classdb/am"
	"github.com/teranos/classdb/errors"
)

// ConfigCmd manages configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage classdb configuration",
	Long: `Display and manage classdb configuration.

Configuration sources (later overrides earlier):
  1. Built-in defaults
  2. /etc/classdb/config.toml
  3. ~/.classdb/config.toml
  4. ./classdb.toml
  5. CLASSDB_* environment variables

Examples:
  classdb config init                 # Write ./classdb.toml with defaults
  classdb config show                 # Effective settings and where they come from
  classdb config validate             # Check the configuration`,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the current settings",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective settings and their sources",
	RunE:  runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

var configWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "List the configuration files consulted",
	RunE:  runConfigWhere,
}

var (
	configForce  bool
	configFormat string
)

func init() {
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file (the old one is kept as .bak)")
	configShowCmd.Flags().StringVar(&configFormat, "format", "table", "Output format: table, toml")

	ConfigCmd.AddCommand(configInitCmd)
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
	ConfigCmd.AddCommand(configWhereCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := am.ProjectConfigName
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return errors.WithHint(errors.Newf("%s already exists", path), "use --force to overwrite it")
	}

	if err := am.Persist(cfg, path, nil); err != nil {
		return err
	}
	abs, _ := filepath.Abs(path)
	pterm.Success.Printfln("Wrote %s", abs)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	switch configFormat {
	case "toml":
		data, err := cfg.TOML()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# classdb configuration\n%s", data)
		return nil
	case "table":
	default:
		return errors.Newf("unsupported format: %s (supported: table, toml)", configFormat)
	}

	data := pterm.TableData{{"Key", "Value", "Source"}}
	for _, s := range am.Introspect() {
		source := string(s.Source)
		if s.SourcePath != "" {
			source += " (" + s.SourcePath + ")"
		}
		data = append(data, []string{s.Key, fmt.Sprint(s.Value), source})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	var (
		c   *am.Config
		err error
	)
	if configPath != "" {
		c, err = am.LoadFromFile(configPath)
	} else {
		am.Reset()
		c, err = am.Load()
	}
	if err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Printfln("Configuration is valid (%d endpoints)", len(c.Endpoints()))
	return nil
}

func runConfigWhere(cmd *cobra.Command, args []string) error {
	active := am.ActivePath()
	for _, src := range am.SearchPaths() {
		state := "missing"
		if _, err := os.Stat(src.Path); err == nil {
			state = "found"
		}
		if src.Path == active {
			state = "found, highest precedence"
		}
		pterm.Printfln("  [%-7s] %s (%s)", src.Source, src.Path, state)
	}
	pterm.Printfln("  [%-7s] %s_* variables", am.SourceEnvironment, am.EnvPrefix)
	return nil
}
