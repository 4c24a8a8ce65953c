package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"

	"igfeed/pkg/config"
	"igfeed/pkg/logger"
	"igfeed/pkg/registry"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "igfeed.db")
	db, err := Open(config.DatabaseConfig{Path: path}, logger.NewNopLogger())
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrations are repeatable")

	for _, table := range []string{"options", "transients", "instagram_scraper_images", "attachments"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.FileExists(t, path)
}

func TestRegistryUniqueConstraintAfterMigrate(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "igfeed.db")}, logger.NewNopLogger())
	require.NoError(t, err)
	defer Close(db)
	require.NoError(t, Migrate(db))

	reg := registry.New(db)
	ctx := context.Background()
	require.NoError(t, reg.Register(ctx, "x", 1, "https://cdn.example.com/x.jpg"))
	assert.ErrorIs(t, reg.Register(ctx, "x", 2, "https://cdn.example.com/x.jpg"), registry.ErrAlreadyRegistered)
}

func TestBuildDSN(t *testing.T) {
	assert.Equal(t, ":memory:", buildDSN(":memory:"))
	assert.Equal(t, "a.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", buildDSN("a.db"))
	assert.Equal(t, "a.db?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", buildDSN("a.db?mode=rwc"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, parseLevel(""))
	assert.Equal(t, gormlogger.Silent, parseLevel("silent"))
	assert.Equal(t, gormlogger.Info, parseLevel("debug"))
	assert.Equal(t, gormlogger.Warn, parseLevel("WARN"))
	assert.Equal(t, gormlogger.Error, parseLevel("error"))
}

func TestGormLoggerTrace(t *testing.T) {
	log := logger.NewTestLogger()
	gl := newGormLogger(log, gormlogger.Warn)

	fc := func() (string, int64) { return "SELECT 1", 1 }

	gl.Trace(context.Background(), time.Now(), fc, nil)
	assert.Empty(t, log.GetMessages(), "fast queries are not logged at warn level")

	gl.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	assert.True(t, log.HasMessage("Slow query"))

	gl.Trace(context.Background(), time.Now(), fc, assert.AnError)
	assert.True(t, log.HasMessage("Query failed"))

	silent := gl.LogMode(gormlogger.Silent)
	log.Clear()
	silent.Trace(context.Background(), time.Now(), fc, assert.AnError)
	assert.Empty(t, log.GetMessages())
}
