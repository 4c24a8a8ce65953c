// Package transient provides key-value storage with expiry.
//
// Values expire lazily: an expired key reads as absent. Every backend
// applies a key prefix so several installs can share one store.
package transient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"igfeed/pkg/config"
)

// ErrNotFound is returned by Get for absent or expired keys
var ErrNotFound = errors.New("transient not found")

// Store is a key-value store with per-key time-to-live
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key; ttl <= 0 means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key; deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}

// Open creates the Store selected by cfg.Backend
func Open(ctx context.Context, cfg config.CacheConfig, db *gorm.DB) (Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(cfg.KeyPrefix, time.Now), nil
	case config.BackendDatabase, "":
		if db == nil {
			return nil, errors.New("database transient backend requires a database")
		}
		return NewDatabase(db, cfg.KeyPrefix, time.Now), nil
	case config.BackendRedis:
		return NewRedis(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown transient backend: %s", cfg.Backend)
	}
}
