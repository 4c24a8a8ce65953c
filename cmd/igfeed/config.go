package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"igfeed/pkg/config"
	"igfeed/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage igfeed configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (IGFEED_*, also read from .env)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with the default values",
	Long: `Create a configuration file with all options set to their defaults.

The file is created in the current directory as '.igfeed.yaml' unless a
different path is given with the --config flag.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging all sources.

Secrets like the admin token and the redis password are masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".igfeed.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	out := ui.Default()
	out.Success("Configuration file created: " + path)
	out.Raw("\nNext steps:\n")
	out.Raw("1. Set server.admin_token to protect the admin API\n")
	out.Raw("2. Run 'igfeed settings set --feed-url <url>' to configure the feed\n")
	out.Raw("3. Start the service with 'igfeed serve'\n")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(maskSecrets(*cfg))
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	out := ui.Default()
	out.Highlight("Current Configuration")
	out.Raw("\n" + string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return err
	}

	out := ui.Default()
	if cfg.Server.AdminToken == "" {
		out.Warning("Admin API is not protected", "server.admin_token is empty")
	}
	if !cfg.Schedule.Enabled {
		out.Warning("Daily refresh is disabled")
	}

	out.Success("Configuration is valid")
	out.Fields([]ui.Field{
		{Label: "Database", Value: cfg.Database.Path},
		{Label: "Cache backend", Value: cfg.Cache.Backend},
		{Label: "Media directory", Value: cfg.Media.Directory},
		{Label: "Listen address", Value: cfg.Server.Addr},
		{Label: "Schedule", Value: cfg.Schedule.Spec + " " + cfg.Schedule.Timezone},
		{Label: "Log level", Value: cfg.Logging.Level},
	})
	return nil
}

// maskSecrets hides credentials before display
func maskSecrets(cfg config.Config) config.Config {
	cfg.Server.AdminToken = mask(cfg.Server.AdminToken)
	cfg.Cache.RedisPassword = mask(cfg.Cache.RedisPassword)
	return cfg
}

func mask(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}
