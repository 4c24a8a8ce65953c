package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"igfeed/internal/lifecycle"
	"igfeed/pkg/ui"
)

var confirmUninstall bool

// deactivateCmd represents the deactivate command
var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Drop the cached feed and the last refresh message",
	Args:  cobra.NoArgs,
	RunE:  runDeactivate,
}

// uninstallCmd represents the uninstall command
var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove options, transients and the image registry",
	Long: `Remove the stored options, the cached feed, the last refresh message and
the image registry table. Files in the media library are kept.`,
	Example: `  igfeed uninstall --yes`,
	Args:    cobra.NoArgs,
	RunE:    runUninstall,
}

func init() {
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(uninstallCmd)

	uninstallCmd.Flags().BoolVarP(&confirmUninstall, "yes", "y", false, "confirm removal")
}

func runDeactivate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := lifecycle.Deactivate(ctx, a); err != nil {
		return err
	}
	ui.Default().Success("Deactivated")
	return nil
}

func runUninstall(cmd *cobra.Command, args []string) error {
	if !confirmUninstall {
		return errors.New("uninstall removes all stored state; rerun with --yes to confirm")
	}

	ctx := context.Background()
	a, err := openApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := lifecycle.Uninstall(ctx, a); err != nil {
		return err
	}
	ui.Default().Success("Uninstalled")
	return nil
}
