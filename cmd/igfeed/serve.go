package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"igfeed/internal/scheduler"
	"igfeed/internal/server"
	"igfeed/pkg/logger"
)

var (
	serveAddr  string
	noSchedule bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feed and admin API and run the daily refresh",
	Long: `Start the HTTP server and the refresh scheduler.

Routes:
  GET  /feed?count=N     cached feed, refreshed synchronously when empty
  GET  /media/{id}       stored image
  POST /admin/refresh    clear the cache and refresh now
  GET  /admin/settings   current options
  POST /admin/settings   validate and save options
  GET  /admin/status     cache and refresh state

Admin routes require the X-Admin-Token header when server.admin_token is set.`,
	Example: `  # Serve on the configured address
  igfeed serve

  # Serve on another port without the daily refresh
  igfeed serve --addr :9090 --no-schedule`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "disable the daily refresh")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extra := map[string]interface{}{"addr": serveAddr}
	if cmd.Flags().Changed("no-schedule") {
		extra["schedule"] = !noSchedule
	}

	a, err := openApp(ctx, extra)
	if err != nil {
		return err
	}
	defer a.Close()

	log := logger.GetLogger()
	log.WithField("version", version).Info("igfeed starting")

	sched, err := scheduler.New(ctx, a.Config.Schedule, a.Hooks, log)
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	srv := server.New(a, sched.Next, log)
	return srv.Start(ctx, a.Config.Server.Addr)
}
