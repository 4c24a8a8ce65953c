// Package cache stores the processed feed in a single transient slot.
//
// The entry carries its own write timestamp; validity is computed on read
// from that timestamp and the configured cache duration. There is no locking:
// concurrent writers overwrite each other and the last Put wins.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	igerrors "igfeed/pkg/errors"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/options"
	"igfeed/pkg/transient"
)

// Key is the transient holding the cached feed
const Key = "instagram_scraper_feed_data"

// ErrNoData is returned by Put when given no sequence
var ErrNoData = errors.New("no data to cache")

// Store is the feed cache
type Store struct {
	transients transient.Store
	options    options.Store
	now        func() time.Time
	logger     logger.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the wall clock
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// New creates a cache over the given transient and option stores
func New(transients transient.Store, opts options.Store, o ...Option) *Store {
	s := &Store{
		transients: transients,
		options:    opts,
		now:        time.Now,
	}
	for _, fn := range o {
		fn(s)
	}
	s.logger = logger.OrDefault(s.logger)
	return s
}

// Get returns the stored entry, or nil when absent or malformed.
// Expiry is not checked.
func (s *Store) Get(ctx context.Context) (*models.CacheEntry, error) {
	raw, err := s.transients.Get(ctx, Key)
	if errors.Is(err, transient.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var probe struct {
		Timestamp int64           `json:"timestamp"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || !isArray(probe.Data) {
		s.logger.Warn("Ignoring malformed cache entry")
		return nil, nil
	}

	entry := &models.CacheEntry{Timestamp: probe.Timestamp}
	if err := json.Unmarshal(probe.Data, &entry.Data); err != nil {
		s.logger.WithError(err).Warn("Ignoring malformed cache entry")
		return nil, nil
	}
	return entry, nil
}

// Put overwrites the slot with data stamped with the current time.
// A nil slice is rejected; an empty one is stored.
func (s *Store) Put(ctx context.Context, data []models.Post) error {
	if data == nil {
		return ErrNoData
	}

	ttl, err := s.duration(ctx)
	if err != nil {
		return igerrors.Wrap(igerrors.ErrorTypeCacheWrite, err, "failed to read cache duration")
	}

	raw, err := json.Marshal(models.CacheEntry{
		Timestamp: s.now().Unix(),
		Data:      data,
	})
	if err != nil {
		return igerrors.Wrap(igerrors.ErrorTypeCacheWrite, err, "failed to encode cache entry")
	}

	if err := s.transients.Set(ctx, Key, raw, ttl); err != nil {
		return igerrors.Wrap(igerrors.ErrorTypeCacheWrite, err, "failed to write cache")
	}

	s.logger.DebugWithFields("Cache updated", map[string]interface{}{
		"posts": len(data),
		"ttl":   ttl,
	})
	return nil
}

// Clear deletes the cached entry
func (s *Store) Clear(ctx context.Context) error {
	if err := s.transients.Delete(ctx, Key); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// IsValid reports whether an entry exists and timestamp+duration has not passed
func (s *Store) IsValid(ctx context.Context) (bool, error) {
	entry, err := s.Get(ctx)
	if err != nil || entry == nil || entry.Timestamp == 0 {
		return false, err
	}

	ttl, err := s.duration(ctx)
	if err != nil {
		return false, err
	}

	return entry.Timestamp+int64(ttl/time.Second) >= s.now().Unix(), nil
}

// Age returns seconds since the entry was written; ok is false when there is no entry
func (s *Store) Age(ctx context.Context) (age int64, ok bool, err error) {
	entry, err := s.Get(ctx)
	if err != nil || entry == nil || entry.Timestamp == 0 {
		return 0, false, err
	}
	return s.now().Unix() - entry.Timestamp, true, nil
}

// ExpiresIn returns seconds until the entry goes stale, floored at zero
func (s *Store) ExpiresIn(ctx context.Context) (remaining int64, ok bool, err error) {
	entry, err := s.Get(ctx)
	if err != nil || entry == nil || entry.Timestamp == 0 {
		return 0, false, err
	}

	ttl, err := s.duration(ctx)
	if err != nil {
		return 0, false, err
	}

	return max(0, entry.Timestamp+int64(ttl/time.Second)-s.now().Unix()), true, nil
}

func (s *Store) duration(ctx context.Context) (time.Duration, error) {
	opts, err := s.options.Get(ctx)
	if err != nil {
		return 0, err
	}
	return opts.CacheTTL(), nil
}

func isArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
