package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfeed/internal/hooks"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
)

type recordingFirer struct {
	mu    sync.Mutex
	names []string
	err   error
	ctxOK bool
}

func (f *recordingFirer) Fire(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.ctxOK = ctx.Deadline()
	f.names = append(f.names, name)
	return f.err
}

func dailyConfig() config.ScheduleConfig {
	return config.ScheduleConfig{Enabled: true, Spec: "0 3 * * *", Timezone: "UTC", Timeout: time.Minute}
}

func TestNextAfter(t *testing.T) {
	s, err := New(context.Background(), dailyConfig(), &recordingFirer{}, logger.NewNopLogger())
	require.NoError(t, err)

	next, err := s.NextAfter(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 2, 3, 0, 0, 0, time.UTC), next.UTC())

	next, err = s.NextAfter(time.Date(2024, 3, 1, 2, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC), next.UTC())
}

func TestNextAfterHonoursTimezone(t *testing.T) {
	cfg := dailyConfig()
	cfg.Timezone = "Europe/Berlin"
	s, err := New(context.Background(), cfg, &recordingFirer{}, logger.NewNopLogger())
	require.NoError(t, err)

	next, err := s.NextAfter(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 11, 2, 0, 0, 0, time.UTC), next.UTC())
}

func TestStartStop(t *testing.T) {
	s, err := New(context.Background(), dailyConfig(), &recordingFirer{}, logger.NewNopLogger())
	require.NoError(t, err)

	_, ok := s.Next()
	assert.False(t, ok)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start(), "starting twice is a no-op")

	next, ok := s.Next()
	assert.True(t, ok)
	assert.Equal(t, 3, next.UTC().Hour())
	assert.True(t, next.After(time.Now()))

	s.Stop()
	_, ok = s.Next()
	assert.False(t, ok)
}

func TestDisabledSchedule(t *testing.T) {
	cfg := dailyConfig()
	cfg.Enabled = false
	log := logger.NewTestLogger()

	s, err := New(context.Background(), cfg, &recordingFirer{}, log)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	_, ok := s.Next()
	assert.False(t, ok)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
	s.Stop()
}

func TestInvalidConfig(t *testing.T) {
	cfg := dailyConfig()
	cfg.Timezone = "Mars/Olympus"
	_, err := New(context.Background(), cfg, &recordingFirer{}, logger.NewNopLogger())
	assert.Error(t, err)

	cfg = dailyConfig()
	cfg.Spec = "every day"
	s, err := New(context.Background(), cfg, &recordingFirer{}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestRunDailyUpdateFiresTrigger(t *testing.T) {
	firer := &recordingFirer{}
	log := logger.NewTestLogger()
	s, err := New(context.Background(), dailyConfig(), firer, log)
	require.NoError(t, err)

	s.runDailyUpdate()
	assert.Equal(t, []string{hooks.DailyUpdate}, firer.names)
	assert.True(t, firer.ctxOK, "runs are bounded by the schedule timeout")
	assert.True(t, log.HasMessage("Scheduled refresh completed"))

	firer.err = errors.New("feed down")
	s.runDailyUpdate()
	assert.True(t, log.HasMessage("Scheduled refresh failed"))
}

func TestRunDailyUpdateSkipsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	firer := &recordingFirer{}
	s, err := New(ctx, dailyConfig(), firer, logger.NewNopLogger())
	require.NoError(t, err)

	s.runDailyUpdate()
	assert.Empty(t, firer.names)
}
