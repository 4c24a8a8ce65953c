package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igfeed/internal/hooks"
	"igfeed/pkg/ui"
)

var refreshDaily bool

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Clear the cache and fetch the feed now",
	Long: `Clear the cached feed and run a refresh, the same as the admin refresh action.

With --daily the scheduled daily update runs instead: the cache is replaced
without being cleared first and expired transients are purged.`,
	Example: `  igfeed refresh
  igfeed refresh --daily`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(&refreshDaily, "daily", false, "run the scheduled daily update")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	trigger := hooks.RefreshFeed
	if refreshDaily {
		trigger = hooks.DailyUpdate
	}

	out := ui.Default()
	fireErr := a.Hooks.Fire(ctx, trigger)

	if msg, ok, err := a.Refresher.Journal().Last(ctx); err == nil && ok {
		out.Info("Last message", msg)
	}
	if fireErr != nil {
		return fireErr
	}

	out.Success("Refresh completed")
	return nil
}
