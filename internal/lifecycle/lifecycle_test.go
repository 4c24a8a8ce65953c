package lifecycle

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfeed/internal/app"
	"igfeed/pkg/cache"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/options"
	"igfeed/pkg/refresher"
	"igfeed/pkg/registry"
	"igfeed/pkg/transient"
)

func newApp(t *testing.T) *app.App {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "igfeed.db")
	cfg.Media.Directory = filepath.Join(dir, "media")

	a, err := app.New(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestActivateSeedsDefaultsOnce(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	exists, err := a.Options.Exists(ctx)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, Activate(ctx, a))
	exists, err = a.Options.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	custom := options.Defaults()
	custom.FeedURL = "https://example.com/feed.json"
	custom.Columns = 5
	require.NoError(t, a.Options.Update(ctx, custom))

	require.NoError(t, Activate(ctx, a), "activation is repeatable")
	got, err := a.Options.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}

func TestDeactivateClearsTransients(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	require.NoError(t, Activate(ctx, a))

	require.NoError(t, a.Cache.Put(ctx, []models.Post{{InstagramID: "a", MediaID: 1}}))
	require.NoError(t, a.Transients.Set(ctx, refresher.LastErrorKey, []byte("Completed refresh"), time.Hour))
	require.NoError(t, a.Registry.Register(ctx, "a", 1, "https://cdn.example.com/a.jpg"))

	require.NoError(t, Deactivate(ctx, a))

	_, err := a.Transients.Get(ctx, cache.Key)
	assert.ErrorIs(t, err, transient.ErrNotFound)
	_, err = a.Transients.Get(ctx, refresher.LastErrorKey)
	assert.ErrorIs(t, err, transient.ErrNotFound)

	exists, err := a.Options.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := a.Registry.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUninstallRemovesState(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	require.NoError(t, Activate(ctx, a))
	require.NoError(t, a.Cache.Put(ctx, []models.Post{}))

	require.NoError(t, Uninstall(ctx, a))

	exists, err := a.Options.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = a.Transients.Get(ctx, cache.Key)
	assert.ErrorIs(t, err, transient.ErrNotFound)

	assert.False(t, a.DB.Migrator().HasTable(&registry.Image{}))

	require.NoError(t, Activate(ctx, a), "reactivation recreates the registry")
	assert.True(t, a.DB.Migrator().HasTable(&registry.Image{}))
}
