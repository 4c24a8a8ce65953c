package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"igfeed/pkg/transient"
	"igfeed/pkg/ui"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the cached feed",
}

// cacheClearCmd represents the cache clear command
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop the cached feed; the next read refreshes it",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

// cachePurgeCmd represents the cache purge command
var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired transients from the database backend",
	Args:  cobra.NoArgs,
	RunE:  runCachePurge,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Cache.Clear(ctx); err != nil {
		return err
	}
	ui.Default().Success("Cache cleared")
	return nil
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	db, ok := a.Transients.(*transient.Database)
	if !ok {
		ui.Default().Warning("Nothing to purge", fmt.Sprintf("the %s backend expires keys itself", a.Config.Cache.Backend))
		return nil
	}

	n, err := db.Purge(ctx)
	if err != nil {
		return err
	}
	ui.Default().Success(fmt.Sprintf("Purged %d expired transients", n))
	return nil
}
