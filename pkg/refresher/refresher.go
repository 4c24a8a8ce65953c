// Package refresher runs the fetch, process and cache cycle.
//
// A refresh is triggered by the daily schedule, by an administrator, or by a
// read that finds the cache empty. Runs are not coordinated: overlapping
// refreshes each write the cache and the last write wins. Nothing is retried;
// the next trigger is the only recovery.
package refresher

import (
	"context"
	"fmt"
	"time"

	igerrors "igfeed/pkg/errors"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/options"
)

// Fetcher downloads the feed document
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser extracts raw records from a feed document
type Parser func(body []byte) ([]models.RawPost, error)

// Processor normalizes raw records
type Processor interface {
	Process(ctx context.Context, raw []models.RawPost, limit int) ([]models.Post, error)
}

// Cache stores the processed feed
type Cache interface {
	Get(ctx context.Context) (*models.CacheEntry, error)
	Put(ctx context.Context, data []models.Post) error
}

// Refresher ties the fetcher, processor and cache together
type Refresher struct {
	options   options.Store
	fetcher   Fetcher
	parse     Parser
	processor Processor
	cache     Cache
	journal   *Journal
	now       func() time.Time
	logger    logger.Logger
}

// Config holds the collaborators of a Refresher
type Config struct {
	Options   options.Store
	Fetcher   Fetcher
	Parse     Parser
	Processor Processor
	Cache     Cache
	Journal   *Journal
	Now       func() time.Time
	Logger    logger.Logger
}

// New creates a refresher
func New(cfg Config) *Refresher {
	r := &Refresher{
		options:   cfg.Options,
		fetcher:   cfg.Fetcher,
		parse:     cfg.Parse,
		processor: cfg.Processor,
		cache:     cfg.Cache,
		journal:   cfg.Journal,
		now:       cfg.Now,
		logger:    logger.OrDefault(cfg.Logger),
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Refresh fetches the feed, processes it and replaces the cache.
// Fetch and parse failures leave the cache untouched. Once processing
// completes, last_updated is set to now even if the cache write fails.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.journal.Info(ctx, fmt.Sprintf("Starting refresh - %s", r.now().Format("2006-01-02 15:04:05")), nil)

	opts, err := r.options.Get(ctx)
	if err != nil {
		r.journal.Error(ctx, "Error: Failed to load options", err, nil)
		return igerrors.Wrap(igerrors.ErrorTypeConfig, err, "failed to load options")
	}

	if opts.FeedURL == "" {
		err := igerrors.Config("no JSON feed URL configured")
		r.journal.Error(ctx, "Error: No JSON feed URL configured", err, nil)
		return err
	}

	fields := map[string]interface{}{"feed_url": opts.FeedURL}
	r.journal.Info(ctx, fmt.Sprintf("Fetching: %s", opts.FeedURL), fields)

	body, err := r.fetcher.Fetch(ctx, opts.FeedURL)
	if err != nil {
		if igerrors.IsType(err, igerrors.ErrorTypeHTTPStatus) {
			r.journal.Error(ctx, fmt.Sprintf("HTTP Error: %d", igerrors.StatusCode(err)), err, fields)
		} else {
			r.journal.Error(ctx, fmt.Sprintf("Request Error: %v", err), err, fields)
		}
		return err
	}

	raw, err := r.parse(body)
	if err != nil {
		r.journal.Error(ctx, "Error: Invalid JSON structure", err, fields)
		return err
	}
	r.journal.Info(ctx, fmt.Sprintf("Received %d posts from feed", len(raw)), fields)

	processed, err := r.processor.Process(ctx, raw, opts.Limit())
	if err != nil {
		r.journal.Error(ctx, "Error: Processing interrupted", err, fields)
		return err
	}
	r.journal.Info(ctx, fmt.Sprintf("Processed %d posts", len(processed)), fields)

	cacheErr := r.cache.Put(ctx, processed)
	if cacheErr != nil {
		r.journal.Error(ctx, "Error: Cache update failed", cacheErr, fields)
	}

	r.touchLastUpdated(ctx)

	if cacheErr != nil {
		return cacheErr
	}

	r.journal.Info(ctx, "Completed refresh", fields)
	return nil
}

// touchLastUpdated stores the refresh time without clobbering concurrent settings changes
func (r *Refresher) touchLastUpdated(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)

	opts, err := r.options.Get(ctx)
	if err != nil {
		r.logger.WithError(err).Warn("Failed to reload options for last_updated")
		return
	}

	opts.LastUpdated = r.now().Unix()
	if err := r.options.Update(ctx, opts); err != nil {
		r.logger.WithError(err).Warn("Failed to store last_updated")
	}
}

// GetData returns the cached feed. When nothing is cached it refreshes
// synchronously, blocking for the whole fetch and image downloads, and
// reads again. The result is nil when the refresh could not fill the cache.
func (r *Refresher) GetData(ctx context.Context) (*models.CacheEntry, error) {
	entry, err := r.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	if err := r.Refresh(ctx); err != nil {
		r.logger.WithError(err).Warn("Refresh on cache miss failed")
	}

	return r.cache.Get(ctx)
}

// Journal returns the refresh message journal
func (r *Refresher) Journal() *Journal {
	return r.journal
}
