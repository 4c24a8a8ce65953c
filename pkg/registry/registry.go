// Package registry maps feed post IDs to stored media so an image is only
// downloaded once per post.
package registry

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	igerrors "igfeed/pkg/errors"
)

// ErrAlreadyRegistered is returned by Register when the post ID already has a row
var ErrAlreadyRegistered = errors.New("instagram id already registered")

// Image is a row of the image registry table
type Image struct {
	ID          uint      `gorm:"primaryKey"`
	InstagramID string    `gorm:"column:instagram_id;size:255;not null;uniqueIndex"`
	MediaID     int64     `gorm:"column:media_id;not null"`
	URL         string    `gorm:"column:url;size:500;not null"`
	Timestamp   time.Time `gorm:"column:timestamp;not null"`
}

// TableName sets the registry table name
func (Image) TableName() string {
	return "instagram_scraper_images"
}

// Registry is the image registry table
type Registry struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a registry on db
func New(db *gorm.DB) *Registry {
	return &Registry{db: db, now: time.Now}
}

// Lookup returns the media ID stored for instagramID; ok is false when none is stored
func (r *Registry) Lookup(ctx context.Context, instagramID string) (mediaID int64, ok bool, err error) {
	var img Image
	err = r.db.WithContext(ctx).
		Select("media_id").
		Where("instagram_id = ?", instagramID).
		Take(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, igerrors.Wrap(igerrors.ErrorTypeRegistry, err, "lookup failed")
	}
	return img.MediaID, img.MediaID != 0, nil
}

// Register records the media stored for instagramID.
// Existing rows are never replaced; a duplicate returns ErrAlreadyRegistered.
func (r *Registry) Register(ctx context.Context, instagramID string, mediaID int64, sourceURL string) error {
	img := Image{
		InstagramID: instagramID,
		MediaID:     mediaID,
		URL:         sourceURL,
		Timestamp:   r.now(),
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "instagram_id"}}, DoNothing: true}).
		Create(&img)
	if res.Error != nil {
		return igerrors.Wrap(igerrors.ErrorTypeRegistry, res.Error, "register failed")
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyRegistered
	}
	return nil
}

// Count returns the number of registered images
func (r *Registry) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Image{}).Count(&n).Error; err != nil {
		return 0, igerrors.Wrap(igerrors.ErrorTypeRegistry, err, "count failed")
	}
	return n, nil
}

// List returns all rows, oldest first
func (r *Registry) List(ctx context.Context) ([]Image, error) {
	var images []Image
	if err := r.db.WithContext(ctx).Order("id").Find(&images).Error; err != nil {
		return nil, igerrors.Wrap(igerrors.ErrorTypeRegistry, err, "list failed")
	}
	return images, nil
}

// Drop removes the registry table
func (r *Registry) Drop(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Migrator().DropTable(&Image{}); err != nil {
		return igerrors.Wrap(igerrors.ErrorTypeRegistry, err, "drop failed")
	}
	return nil
}
