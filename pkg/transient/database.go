package transient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is a row of the transients table
type Record struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     []byte
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName sets the transients table name
func (Record) TableName() string {
	return "transients"
}

// Database is a Store backed by the transients table
type Database struct {
	db     *gorm.DB
	prefix string
	now    func() time.Time
}

// NewDatabase creates a table-backed store
func NewDatabase(db *gorm.DB, prefix string, now func() time.Time) *Database {
	if now == nil {
		now = time.Now
	}
	return &Database{db: db, prefix: prefix, now: now}
}

func (d *Database) Get(ctx context.Context, key string) ([]byte, error) {
	var rec Record
	err := d.db.WithContext(ctx).First(&rec, "key = ?", d.prefix+key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read transient %s: %w", key, err)
	}

	if rec.ExpiresAt != nil && d.now().After(*rec.ExpiresAt) {
		if err := d.Delete(ctx, key); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	return rec.Value, nil
}

func (d *Database) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rec := Record{Key: d.prefix + key, Value: value}
	if ttl > 0 {
		expires := d.now().Add(ttl)
		rec.ExpiresAt = &expires
	}

	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write transient %s: %w", key, err)
	}
	return nil
}

func (d *Database) Delete(ctx context.Context, key string) error {
	if err := d.db.WithContext(ctx).Where("key = ?", d.prefix+key).Delete(&Record{}).Error; err != nil {
		return fmt.Errorf("failed to delete transient %s: %w", key, err)
	}
	return nil
}

// Purge removes all expired rows and returns how many were deleted
func (d *Database) Purge(ctx context.Context) (int64, error) {
	res := d.db.WithContext(ctx).Where("expires_at IS NOT NULL AND expires_at < ?", d.now()).Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge transients: %w", res.Error)
	}
	return res.RowsAffected, nil
}
