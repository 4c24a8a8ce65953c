package options

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Store persists the plugin options
type Store interface {
	// Get returns the stored options, or Defaults when none are stored
	Get(ctx context.Context) (Options, error)
	Update(ctx context.Context, opts Options) error
	// Exists reports whether options have been stored
	Exists(ctx context.Context) (bool, error)
	Delete(ctx context.Context) error
}

// Record is a row of the options table
type Record struct {
	Name      string    `gorm:"primaryKey;size:191"`
	Value     string    `gorm:"type:text"`
	UpdatedAt time.Time
}

// TableName sets the options table name
func (Record) TableName() string {
	return "options"
}

// DBStore keeps the options as a JSON document in the options table
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates an option store on db
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Get(ctx context.Context) (Options, error) {
	var rec Record
	if err := s.db.WithContext(ctx).First(&rec, "name = ?", Name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Defaults(), nil
		}
		return Options{}, fmt.Errorf("failed to load options: %w", err)
	}

	opts := Defaults()
	if err := json.Unmarshal([]byte(rec.Value), &opts); err != nil {
		return Options{}, fmt.Errorf("failed to decode options: %w", err)
	}
	return opts, nil
}

func (s *DBStore) Update(ctx context.Context, opts Options) error {
	value, err := json.Marshal(opts)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	rec := Record{Name: Name, Value: string(value)}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return fmt.Errorf("failed to save options: %w", err)
	}
	return nil
}

func (s *DBStore) Exists(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Where("name = ?", Name).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check options: %w", err)
	}
	return count > 0, nil
}

func (s *DBStore) Delete(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Where("name = ?", Name).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("failed to delete options: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store
type MemoryStore struct {
	mu   sync.RWMutex
	opts *Options
}

// NewMemoryStore creates a store, optionally seeded with opts
func NewMemoryStore(opts *Options) *MemoryStore {
	s := &MemoryStore{}
	if opts != nil {
		o := *opts
		s.opts = &o
	}
	return s
}

func (s *MemoryStore) Get(ctx context.Context) (Options, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.opts == nil {
		return Defaults(), nil
	}
	return *s.opts, nil
}

func (s *MemoryStore) Update(ctx context.Context, opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = &opts
	return nil
}

func (s *MemoryStore) Exists(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opts != nil, nil
}

func (s *MemoryStore) Delete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opts = nil
	return nil
}
