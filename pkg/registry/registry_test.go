package registry

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRegistry(t *testing.T) (*Registry, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "registry.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Image{}))
	return New(db), db
}

func TestLookupMissing(t *testing.T) {
	r, _ := newTestRegistry(t)

	id, ok, err := r.Lookup(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, id)
}

func TestRegisterAndLookup(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Register(ctx, "C1a2B3", 17, "https://cdn.example.com/a.jpg"))

	id, ok, err := r.Lookup(ctx, "C1a2B3")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(17), id)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRegisterDuplicateKeepsFirstRow(t *testing.T) {
	r, _ := newTestRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Register(ctx, "dup", 1, "https://cdn.example.com/1.jpg"))
	err := r.Register(ctx, "dup", 2, "https://cdn.example.com/2.jpg")
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	id, ok, err := r.Lookup(ctx, "dup")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	images, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "https://cdn.example.com/1.jpg", images[0].URL)
	assert.False(t, images[0].Timestamp.IsZero())
}

func TestConcurrentRegisterSingleWinner(t *testing.T) {
	r, db := newTestRegistry(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results <- r.Register(ctx, "race", int64(i+1), "https://cdn.example.com/race.jpg")
		}(i)
	}
	wg.Wait()
	close(results)

	var wins, dupes int
	for err := range results {
		switch err {
		case nil:
			wins++
		case ErrAlreadyRegistered:
			dupes++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, workers-1, dupes)

	n, err := r.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDrop(t *testing.T) {
	r, db := newTestRegistry(t)
	require.NoError(t, r.Drop(context.Background()))
	assert.False(t, db.Migrator().HasTable(&Image{}))
}
