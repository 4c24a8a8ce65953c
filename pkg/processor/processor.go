// Package processor turns raw feed records into cached posts.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/registry"
	"igfeed/pkg/sanitize"
)

// ImageFetcher downloads image bytes
type ImageFetcher interface {
	FetchImage(ctx context.Context, url string) ([]byte, error)
}

// ImageStore persists image bytes and returns a local image reference
type ImageStore interface {
	Save(ctx context.Context, instagramID string, data []byte, caption string) (int64, error)
}

// Registry maps post IDs to local image references
type Registry interface {
	Lookup(ctx context.Context, instagramID string) (int64, bool, error)
	Register(ctx context.Context, instagramID string, mediaID int64, sourceURL string) error
}

// Processor sorts, truncates, sanitizes and resolves images for feed records
type Processor struct {
	fetcher  ImageFetcher
	images   ImageStore
	registry Registry
	logger   logger.Logger
}

// New creates a processor
func New(fetcher ImageFetcher, images ImageStore, reg Registry, log logger.Logger) *Processor {
	return &Processor{
		fetcher:  fetcher,
		images:   images,
		registry: reg,
		logger:   logger.OrDefault(log),
	}
}

// Process returns the newest limit records that have an ID, an image URL and
// a stored image, newest first. Records whose image cannot be resolved are
// dropped. An error is returned only when ctx is done.
func (p *Processor) Process(ctx context.Context, raw []models.RawPost, limit int) ([]models.Post, error) {
	posts := SortByTimestamp(raw)
	if limit < 0 {
		limit = 0
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}

	out := make([]models.Post, 0, len(posts))
	for i, item := range posts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("processing stopped at record %d: %w", i, err)
		}

		post, ok := p.processOne(ctx, item)
		if ok {
			out = append(out, post)
		}
	}

	return out, nil
}

func (p *Processor) processOne(ctx context.Context, item models.RawPost) (models.Post, bool) {
	if item.Str("id") == "" || item.Str("image_url") == "" {
		p.logger.DebugWithFields("Skipping record without id or image_url", map[string]interface{}{
			"id": item.Str("id"),
		})
		return models.Post{}, false
	}

	instagramID := sanitize.Text(item.Str("id"))
	imageURL := sanitize.URL(item.Str("image_url"))
	if instagramID == "" || imageURL == "" {
		p.logger.WarnWithFields("Skipping record with unusable id or image_url", map[string]interface{}{
			"id":        item.Str("id"),
			"image_url": item.Str("image_url"),
		})
		return models.Post{}, false
	}

	caption := sanitize.Textarea(item.Str("caption"))

	mediaID, err := p.resolveImage(ctx, instagramID, imageURL, caption)
	if err != nil {
		p.logger.WithError(err).WithField("instagram_id", instagramID).Warn("Dropping post without stored image")
		return models.Post{}, false
	}

	return models.Post{
		InstagramID: instagramID,
		MediaID:     mediaID,
		Permalink:   sanitize.URL(item.Str("permalink")),
		Caption:     caption,
		Timestamp:   sanitize.Text(item.Str("timestamp")),
		URL:         imageURL,
		IsVideo:     item.Bool("is_video"),
		VideoURL:    sanitize.URL(item.Str("video_url")),
		Likes:       item.Int("likes"),
		Comments:    item.Int("comments"),
		Hashtags:    sanitize.Texts(item.Strings("hashtags")),
	}, true
}

// resolveImage returns the stored image for a post, downloading it on first sight
func (p *Processor) resolveImage(ctx context.Context, instagramID, imageURL, caption string) (int64, error) {
	mediaID, ok, err := p.registry.Lookup(ctx, instagramID)
	if err != nil {
		return 0, err
	}
	if ok {
		return mediaID, nil
	}

	data, err := p.fetcher.FetchImage(ctx, imageURL)
	if err != nil {
		return 0, fmt.Errorf("failed to download image for post %s: %w", instagramID, err)
	}

	mediaID, err = p.images.Save(ctx, instagramID, data, caption)
	if err != nil {
		return 0, fmt.Errorf("upload error for %s: %w", instagramID, err)
	}

	err = p.registry.Register(ctx, instagramID, mediaID, imageURL)
	if errors.Is(err, registry.ErrAlreadyRegistered) {
		// another refresh registered this post first; use its image
		winner, ok, lookupErr := p.registry.Lookup(ctx, instagramID)
		if lookupErr != nil {
			return 0, lookupErr
		}
		if !ok {
			return 0, fmt.Errorf("registry entry for %s vanished", instagramID)
		}
		p.logger.WithFields(map[string]interface{}{
			"instagram_id": instagramID,
			"media_id":     winner,
			"orphan_id":    mediaID,
		}).Info("Post registered concurrently, reusing existing image")
		return winner, nil
	}
	if err != nil {
		return 0, err
	}

	p.logger.DebugWithFields("Image downloaded", map[string]interface{}{
		"instagram_id": instagramID,
		"media_id":     mediaID,
	})
	return mediaID, nil
}

// SortByTimestamp returns a copy of raw ordered newest first.
// Records without a parsable timestamp sort as the Unix epoch; ties keep input order.
func SortByTimestamp(raw []models.RawPost) []models.RawPost {
	type keyed struct {
		post models.RawPost
		key  int64
	}

	items := make([]keyed, len(raw))
	for i, post := range raw {
		items[i] = keyed{post: post, key: timestampKey(post)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].key > items[j].key
	})

	out := make([]models.RawPost, len(items))
	for i, item := range items {
		out[i] = item.post
	}
	return out
}
