// Package app builds the feed service components from configuration and
// registers the trigger handlers that tie them together.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"igfeed/internal/database"
	"igfeed/internal/hooks"
	"igfeed/pkg/cache"
	"igfeed/pkg/config"
	"igfeed/pkg/feed"
	"igfeed/pkg/logger"
	"igfeed/pkg/media"
	"igfeed/pkg/options"
	"igfeed/pkg/processor"
	"igfeed/pkg/refresher"
	"igfeed/pkg/registry"
	"igfeed/pkg/settings"
	"igfeed/pkg/transient"
)

// App holds the wired components
type App struct {
	Config     *config.Config
	DB         *gorm.DB
	Transients transient.Store
	Options    options.Store
	Cache      *cache.Store
	Registry   *registry.Registry
	Media      *media.Library
	Client     *feed.Client
	Processor  *processor.Processor
	Refresher  *refresher.Refresher
	Settings   *settings.Service
	Hooks      *hooks.Dispatcher
	Logger     logger.Logger
}

// New opens the database, migrates it and wires every component
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	log = logger.OrDefault(log)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}

	transients, err := transient.Open(ctx, cfg.Cache, db)
	if err != nil {
		database.Close(db)
		return nil, fmt.Errorf("failed to open transient store: %w", err)
	}

	lib, err := media.NewLibrary(cfg.Media.Directory, db, log.WithField("component", "media"))
	if err != nil {
		closeStore(transients)
		database.Close(db)
		return nil, err
	}

	return Wire(cfg, db, transients, lib, log), nil
}

// Wire assembles an App from already opened stores
func Wire(cfg *config.Config, db *gorm.DB, transients transient.Store, lib *media.Library, log logger.Logger) *App {
	log = logger.OrDefault(log)

	opts := options.NewDBStore(db)
	store := cache.New(transients, opts, cache.WithLogger(log.WithField("component", "cache")))
	reg := registry.New(db)
	client := feed.NewClient(cfg.Feed, log.WithField("component", "feed"))
	proc := processor.New(client, lib, reg, log.WithField("component", "processor"))

	refreshLog := log.WithField("component", "refresher")
	ref := refresher.New(refresher.Config{
		Options:   opts,
		Fetcher:   client,
		Parse:     feed.Parse,
		Processor: proc,
		Cache:     store,
		Journal:   refresher.NewJournal(transients, refreshLog),
		Logger:    refreshLog,
	})

	a := &App{
		Config:     cfg,
		DB:         db,
		Transients: transients,
		Options:    opts,
		Cache:      store,
		Registry:   reg,
		Media:      lib,
		Client:     client,
		Processor:  proc,
		Refresher:  ref,
		Settings:   settings.New(opts, store, log.WithField("component", "settings")),
		Hooks:      hooks.New(log.WithField("component", "hooks")),
		Logger:     log,
	}
	a.registerHooks()
	return a
}

func (a *App) registerHooks() {
	a.Hooks.Register(hooks.DailyUpdate, a.Refresher.Refresh)
	a.Hooks.Register(hooks.DailyUpdate, func(ctx context.Context) error {
		a.Logger.WithField("executed_at", time.Now().Format(time.RFC3339)).Info("Daily update executed")
		return nil
	})
	if purger, ok := a.Transients.(*transient.Database); ok {
		a.Hooks.Register(hooks.DailyUpdate, func(ctx context.Context) error {
			n, err := purger.Purge(ctx)
			if err != nil {
				return fmt.Errorf("failed to purge expired transients: %w", err)
			}
			if n > 0 {
				a.Logger.WithField("purged", n).Debug("Expired transients purged")
			}
			return nil
		})
	}

	a.Hooks.Register(hooks.RefreshFeed, a.Cache.Clear)
	a.Hooks.Register(hooks.RefreshFeed, a.Refresher.Refresh)
}

// Close releases the transient store and the database
func (a *App) Close() error {
	var errs []error
	if err := closeStore(a.Transients); err != nil {
		errs = append(errs, err)
	}
	if err := database.Close(a.DB); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func closeStore(s transient.Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
