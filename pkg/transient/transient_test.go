package transient

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"igfeed/pkg/config"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "transients.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Record{}))
	return db
}

func backends(t *testing.T, clock *fakeClock) map[string]Store {
	return map[string]Store{
		"memory":   NewMemory("test_", clock.Now),
		"database": NewDatabase(newTestDB(t), "test_", clock.Now),
	}
}

func TestStoreContract(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	for name, store := range backends(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "feed", []byte(`{"a":1}`), time.Hour))
			got, err := store.Get(ctx, "feed")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"a":1}`), got)

			require.NoError(t, store.Set(ctx, "feed", []byte(`{"a":2}`), time.Hour))
			got, err = store.Get(ctx, "feed")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"a":2}`), got)

			require.NoError(t, store.Delete(ctx, "feed"))
			_, err = store.Get(ctx, "feed")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, store.Delete(ctx, "feed"), "deleting an absent key is not an error")
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	for name := range backends(t, &fakeClock{}) {
		t.Run(name, func(t *testing.T) {
			clock := &fakeClock{now: start}
			store := backends(t, clock)[name]
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "short", []byte("x"), time.Minute))
			require.NoError(t, store.Set(ctx, "forever", []byte("y"), 0))

			clock.Advance(time.Minute)
			_, err := store.Get(ctx, "short")
			assert.NoError(t, err, "still present exactly at expiry")

			clock.Advance(time.Second)
			_, err = store.Get(ctx, "short")
			assert.ErrorIs(t, err, ErrNotFound)

			clock.Advance(365 * 24 * time.Hour)
			got, err := store.Get(ctx, "forever")
			require.NoError(t, err)
			assert.Equal(t, []byte("y"), got)
		})
	}
}

func TestDatabasePurge(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	db := newTestDB(t)
	store := NewDatabase(db, "", clock.Now)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	clock.Advance(10 * time.Minute)
	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int64
	require.NoError(t, db.Model(&Record{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestPrefixIsolation(t *testing.T) {
	db := newTestDB(t)
	a := NewDatabase(db, "site_a_", nil)
	b := NewDatabase(db, "site_b_", nil)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "feed", []byte("a"), time.Hour))
	_, err := b.Get(ctx, "feed")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, config.CacheConfig{Backend: config.BackendMemory}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, config.CacheConfig{Backend: config.BackendDatabase}, newTestDB(t))
	require.NoError(t, err)
	assert.IsType(t, &Database{}, s)

	_, err = Open(ctx, config.CacheConfig{Backend: config.BackendDatabase}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, config.CacheConfig{Backend: "memcached"}, nil)
	assert.Error(t, err)

	_, err = Open(ctx, config.CacheConfig{Backend: config.BackendRedis, RedisURL: "redis://%zz"}, nil)
	assert.Error(t, err)
}

func TestRedis(t *testing.T) {
	url := os.Getenv("IGFEED_TEST_REDIS_URL")
	if url == "" {
		t.Skip("IGFEED_TEST_REDIS_URL not set")
	}

	ctx := context.Background()
	store, err := NewRedis(ctx, config.CacheConfig{RedisURL: url, KeyPrefix: "igfeed_test_"})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "feed", []byte("v"), time.Minute))
	got, err := store.Get(ctx, "feed")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, store.Delete(ctx, "feed"))
	_, err = store.Get(ctx, "feed")
	assert.ErrorIs(t, err, ErrNotFound)
}
