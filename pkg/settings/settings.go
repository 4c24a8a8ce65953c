// Package settings is the administrator's path for changing the plugin options.
package settings

import (
	"context"
	"fmt"

	"igfeed/pkg/logger"
	"igfeed/pkg/options"
)

// CacheClearer drops the cached feed
type CacheClearer interface {
	Clear(ctx context.Context) error
}

// Service validates and saves submitted options
type Service struct {
	store  options.Store
	cache  CacheClearer
	logger logger.Logger
}

// New creates a settings service
func New(store options.Store, cache CacheClearer, log logger.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger.OrDefault(log)}
}

// Get returns the current options
func (s *Service) Get(ctx context.Context) (options.Options, error) {
	return s.store.Get(ctx)
}

// Save validates in against the stored options and persists the result.
// When options were already stored and the feed URL changes, the cache is
// cleared so the next read fetches the new feed.
func (s *Service) Save(ctx context.Context, in options.Input) (options.Options, error) {
	prior, err := s.store.Get(ctx)
	if err != nil {
		return options.Options{}, err
	}
	exists, err := s.store.Exists(ctx)
	if err != nil {
		return options.Options{}, err
	}

	valid := options.Validate(in, prior)

	if exists && valid.FeedURL != prior.FeedURL {
		if err := s.cache.Clear(ctx); err != nil {
			return options.Options{}, fmt.Errorf("failed to clear cache after feed URL change: %w", err)
		}
		s.logger.WithFields(map[string]interface{}{
			"old_feed_url": prior.FeedURL,
			"new_feed_url": valid.FeedURL,
		}).Info("Feed URL changed, cache cleared")
	}

	if err := s.store.Update(ctx, valid); err != nil {
		return options.Options{}, err
	}

	s.logger.InfoWithFields("Settings saved", map[string]interface{}{
		"columns":        valid.Columns,
		"image_size":     valid.ImageSize,
		"post_count":     valid.PostCount,
		"cache_duration": valid.CacheDuration,
	})
	return valid, nil
}
