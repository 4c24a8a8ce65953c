package settings

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfeed/pkg/cache"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/options"
	"igfeed/pkg/transient"
)

func setup(t *testing.T, stored *options.Options) (*Service, *cache.Store, *options.MemoryStore) {
	t.Helper()
	store := options.NewMemoryStore(stored)
	c := cache.New(transient.NewMemory("", nil), store, cache.WithLogger(logger.NewNopLogger()))
	require.NoError(t, c.Put(context.Background(), []models.Post{{InstagramID: "a", MediaID: 1}}))
	return New(store, c, logger.NewNopLogger()), c, store
}

func stored(url string) *options.Options {
	o := options.Defaults()
	o.FeedURL = url
	o.LastUpdated = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Unix()
	return &o
}

func cached(t *testing.T, c *cache.Store) bool {
	entry, err := c.Get(context.Background())
	require.NoError(t, err)
	return entry != nil
}

func TestSaveClearsCacheOnFeedURLChange(t *testing.T) {
	svc, c, store := setup(t, stored("https://example.com/old.json"))
	ctx := context.Background()

	saved, err := svc.Save(ctx, options.Input{"feed_url": "https://example.com/new.json"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new.json", saved.FeedURL)
	assert.False(t, cached(t, c))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Equal(t, stored("").LastUpdated, got.LastUpdated, "last_updated preserved")
}

func TestSaveKeepsCacheWhenURLUnchanged(t *testing.T) {
	svc, c, _ := setup(t, stored("https://example.com/feed.json"))

	saved, err := svc.Save(context.Background(), options.Input{
		"feed_url":   "https://example.com/feed.json",
		"columns":    "9",
		"post_count": "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Columns)
	assert.Equal(t, 1, saved.PostCount)
	assert.True(t, cached(t, c))
}

func TestFirstSaveDoesNotClearCache(t *testing.T) {
	svc, c, store := setup(t, nil)

	_, err := svc.Save(context.Background(), options.Input{"feed_url": "https://example.com/feed.json"})
	require.NoError(t, err)
	assert.True(t, cached(t, c))

	exists, err := store.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGet(t *testing.T) {
	svc, _, _ := setup(t, stored("https://example.com/feed.json"))

	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/feed.json", got.FeedURL)
}
