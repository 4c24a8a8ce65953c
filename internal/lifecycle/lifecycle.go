// Package lifecycle installs and removes the service state.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"igfeed/internal/app"
	"igfeed/internal/database"
	"igfeed/pkg/cache"
	"igfeed/pkg/options"
	"igfeed/pkg/refresher"
)

// Activate creates the tables and stores the default options when none exist
func Activate(ctx context.Context, a *app.App) error {
	if err := database.Migrate(a.DB); err != nil {
		return err
	}

	exists, err := a.Options.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check options: %w", err)
	}
	if !exists {
		if err := a.Options.Update(ctx, options.Defaults()); err != nil {
			return fmt.Errorf("failed to seed default options: %w", err)
		}
		a.Logger.Info("Default options stored")
	}

	a.Logger.Debug("Activated")
	return nil
}

// Deactivate drops the cached feed and the last refresh message.
// Options and the image registry are kept.
func Deactivate(ctx context.Context, a *app.App) error {
	var errs []error
	for _, key := range []string{cache.Key, refresher.LastErrorKey} {
		if err := a.Transients.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	a.Logger.Info("Deactivated")
	return nil
}

// Uninstall removes the options, the transients and the image registry
// table. Stored media files are left in place.
func Uninstall(ctx context.Context, a *app.App) error {
	var errs []error
	if err := a.Options.Delete(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to delete options: %w", err))
	}
	if err := Deactivate(ctx, a); err != nil {
		errs = append(errs, err)
	}
	if err := a.Registry.Drop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	a.Logger.Info("Uninstalled")
	return nil
}
