package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	igerrors "igfeed/pkg/errors"
	"igfeed/pkg/logger"
	"igfeed/pkg/models"
	"igfeed/pkg/options"
	"igfeed/pkg/transient"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setup(t *testing.T, duration int) (*Store, *clock, *transient.Memory) {
	t.Helper()
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	opts := options.Defaults()
	opts.CacheDuration = duration
	mem := transient.NewMemory("", c.Now)
	s := New(mem, options.NewMemoryStore(&opts), WithClock(c.Now), WithLogger(logger.NewNopLogger()))
	return s, c, mem
}

func samplePosts() []models.Post {
	return []models.Post{
		{InstagramID: "b", MediaID: 2, URL: "https://cdn.example.com/b.jpg", Hashtags: []string{"two"}},
		{InstagramID: "a", MediaID: 1, URL: "https://cdn.example.com/a.jpg", Hashtags: []string{}},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s, c, _ := setup(t, 3600)
	ctx := context.Background()

	entry, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)

	posts := samplePosts()
	require.NoError(t, s.Put(ctx, posts))

	entry, err = s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, c.now.Unix(), entry.Timestamp)
	assert.Equal(t, posts, entry.Data)
}

func TestPutRejectsNil(t *testing.T) {
	s, _, _ := setup(t, 3600)
	assert.ErrorIs(t, s.Put(context.Background(), nil), ErrNoData)
}

func TestPutStoresEmptySequence(t *testing.T) {
	s, _, _ := setup(t, 3600)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, []models.Post{}))

	entry, err := s.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry, "an empty feed is a present entry")
	assert.Empty(t, entry.Data)
}

func TestIsValidBoundary(t *testing.T) {
	s, c, _ := setup(t, 3600)
	ctx := context.Background()

	valid, err := s.IsValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid, "no entry")

	require.NoError(t, s.Put(ctx, samplePosts()))

	c.now = c.now.Add(3599 * time.Second)
	valid, err = s.IsValid(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	c.now = c.now.Add(time.Second)
	valid, err = s.IsValid(ctx)
	require.NoError(t, err)
	assert.True(t, valid, "timestamp + duration == now is still valid")

	c.now = c.now.Add(time.Second)
	valid, err = s.IsValid(ctx)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestDurationClampedToOneHour(t *testing.T) {
	s, c, _ := setup(t, 60)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, samplePosts()))

	c.now = c.now.Add(30 * time.Minute)
	valid, err := s.IsValid(ctx)
	require.NoError(t, err)
	assert.True(t, valid)

	remaining, ok, err := s.ExpiresIn(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1800), remaining)
}

func TestAgeAndExpiresIn(t *testing.T) {
	s, c, _ := setup(t, 7200)
	ctx := context.Background()

	_, ok, err := s.Age(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = s.ExpiresIn(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, samplePosts()))
	c.now = c.now.Add(600 * time.Second)

	age, ok, err := s.Age(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(600), age)

	remaining, ok, err := s.ExpiresIn(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(6600), remaining)
}

func TestExpiresInFlooredAtZero(t *testing.T) {
	s, c, mem := setup(t, 3600)
	ctx := context.Background()

	// entry written long ago but still held by a backend without expiry
	require.NoError(t, mem.Set(ctx, Key, []byte(`{"timestamp": 1699990000, "data": []}`), 0))
	c.now = time.Unix(1_700_000_000, 0)

	remaining, ok, err := s.ExpiresIn(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), remaining)
}

func TestClear(t *testing.T) {
	s, _, _ := setup(t, 3600)
	ctx := context.Background()

	require.NoError(t, s.Clear(ctx), "clearing an empty cache is not an error")
	require.NoError(t, s.Put(ctx, samplePosts()))
	require.NoError(t, s.Clear(ctx))

	entry, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGetIgnoresMalformedEntries(t *testing.T) {
	s, _, mem := setup(t, 3600)
	ctx := context.Background()

	for _, raw := range []string{
		`not json`,
		`{"timestamp": 1}`,
		`{"timestamp": 1, "data": "nope"}`,
		`{"timestamp": 1, "data": {"a": 1}}`,
	} {
		require.NoError(t, mem.Set(ctx, Key, []byte(raw), time.Hour))
		entry, err := s.Get(ctx)
		require.NoError(t, err)
		assert.Nil(t, entry, raw)
	}
}

type failingTransients struct {
	transient.Store
}

func (failingTransients) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("disk full")
}

func TestPutWriteFailureIsCacheWriteError(t *testing.T) {
	s := New(failingTransients{transient.NewMemory("", nil)}, options.NewMemoryStore(nil), WithLogger(logger.NewNopLogger()))

	err := s.Put(context.Background(), samplePosts())
	require.Error(t, err)
	assert.True(t, igerrors.IsType(err, igerrors.ErrorTypeCacheWrite))
}
