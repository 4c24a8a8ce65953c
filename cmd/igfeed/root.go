package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"igfeed/internal/app"
	"igfeed/internal/lifecycle"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
	"igfeed/pkg/ui"
)

var (
	// Version information
	version   = "2.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile   string
	logLevel     string
	logFile      string
	dbPath       string
	mediaDir     string
	cacheBackend string
	noColor      bool
	quiet        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "igfeed",
	Short: "Cache an Instagram-style JSON feed with locally stored images",
	Long: `igfeed fetches a JSON feed of posts, stores each post image once in a local
media library and keeps the processed feed in a time-limited cache.

The feed is refreshed daily by the built-in scheduler, on demand through the
admin API or the refresh command, and whenever a read finds the cache empty.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		out := ui.Default()
		out.SetQuiet(quiet)
		out.SetNoColor(noColor)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.Default().Error("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .igfeed.yaml or ~/.config/igfeed/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "append logs to this file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&mediaDir, "media-dir", "", "media library directory")
	rootCmd.PersistentFlags().StringVar(&cacheBackend, "cache-backend", "", "transient store backend (memory, database, redis)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`igfeed {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags for config.MergeCommandLineFlags
func globalFlags() map[string]interface{} {
	return map[string]interface{}{
		"log-level":     logLevel,
		"log-file":      logFile,
		"db":            dbPath,
		"media-dir":     mediaDir,
		"cache-backend": cacheBackend,
	}
}

// loadConfig loads configuration and initializes the global logger
func loadConfig(extra map[string]interface{}) (*config.Config, error) {
	flags := globalFlags()
	for k, v := range extra {
		flags[k] = v
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// openApp loads configuration, wires the components and makes sure the
// tables and default options exist
func openApp(ctx context.Context, extra map[string]interface{}) (*app.App, error) {
	cfg, err := loadConfig(extra)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, logger.GetLogger())
	if err != nil {
		return nil, err
	}

	if err := lifecycle.Activate(ctx, a); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}
