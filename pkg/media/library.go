package media

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	igerrors "igfeed/pkg/errors"
	"igfeed/pkg/logger"
)

// ErrNotFound is returned for unknown attachment IDs
var ErrNotFound = errors.New("attachment not found")

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// Attachment is a stored media file
type Attachment struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	InstagramID string `gorm:"size:255;index"`
	Title       string `gorm:"size:255"`
	Content     string `gorm:"type:text"`
	MimeType    string `gorm:"size:100"`
	File        string `gorm:"size:255"`
	Size        int64
	CreatedAt   time.Time
}

// TableName sets the attachments table name
func (Attachment) TableName() string {
	return "attachments"
}

// Library stores downloaded images on disk and records them as attachments
type Library struct {
	dir    string
	db     *gorm.DB
	logger logger.Logger
}

// NewLibrary creates a media library rooted at dir
func NewLibrary(dir string, db *gorm.DB, log logger.Logger) (*Library, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	return &Library{
		dir:    dir,
		db:     db,
		logger: logger.OrDefault(log),
	}, nil
}

// Save stores image bytes for a post and returns the new attachment ID
func (l *Library) Save(ctx context.Context, instagramID string, data []byte, caption string) (int64, error) {
	if len(data) == 0 {
		return 0, igerrors.New(igerrors.ErrorTypeImageStorage, "empty image data")
	}

	mimeType := http.DetectContentType(data)
	ext, ok := extensions[mimeType]
	if !ok {
		return 0, igerrors.New(igerrors.ErrorTypeImageStorage, fmt.Sprintf("unsupported content type %q", mimeType))
	}

	filename, err := l.writeFile("instagram-"+safeName(instagramID), ext, data)
	if err != nil {
		return 0, igerrors.Wrap(igerrors.ErrorTypeImageStorage, err, "upload failed")
	}

	att := Attachment{
		InstagramID: instagramID,
		Title:       fmt.Sprintf("Instagram Image %s", instagramID),
		Content:     caption,
		MimeType:    mimeType,
		File:        filename,
		Size:        int64(len(data)),
	}
	if err := l.db.WithContext(ctx).Create(&att).Error; err != nil {
		os.Remove(filepath.Join(l.dir, filename))
		return 0, igerrors.Wrap(igerrors.ErrorTypeImageStorage, err, "failed to insert attachment")
	}

	l.logger.DebugWithFields("Image stored", map[string]interface{}{
		"instagram_id": instagramID,
		"media_id":     att.ID,
		"file":         filename,
		"size":         att.Size,
	})

	return att.ID, nil
}

// writeFile writes data under a name not already taken in the library directory
func (l *Library) writeFile(base, ext string, data []byte) (string, error) {
	filename := base + ext
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(l.dir, filename)); errors.Is(err, os.ErrNotExist) {
			break
		}
		filename = fmt.Sprintf("%s-%d%s", base, i, ext)
	}

	target := filepath.Join(l.dir, filename)
	tempFile := target + ".tmp"

	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to save image data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	// Atomic rename
	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return filename, nil
}

// Get returns the attachment with the given ID
func (l *Library) Get(ctx context.Context, id int64) (*Attachment, error) {
	var att Attachment
	err := l.db.WithContext(ctx).First(&att, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment %d: %w", id, err)
	}
	return &att, nil
}

// Path returns the absolute location of an attachment's file
func (l *Library) Path(att *Attachment) string {
	return filepath.Join(l.dir, att.File)
}

// Dir returns the library directory
func (l *Library) Dir() string {
	return l.dir
}

// Count returns the number of stored attachments
func (l *Library) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := l.db.WithContext(ctx).Model(&Attachment{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count attachments: %w", err)
	}
	return n, nil
}

// safeName keeps ASCII letters, digits, dash and underscore
func safeName(s string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, s)
	if name == "" {
		return "image"
	}
	return name
}
