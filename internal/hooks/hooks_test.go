package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igfeed/pkg/logger"
)

func TestFireRunsHandlersInOrder(t *testing.T) {
	d := New(logger.NewNopLogger())

	var calls []string
	d.Register(RefreshFeed, func(ctx context.Context) error {
		calls = append(calls, "clear")
		return nil
	})
	d.Register(RefreshFeed, func(ctx context.Context) error {
		calls = append(calls, "refresh")
		return nil
	})

	require.NoError(t, d.Fire(context.Background(), RefreshFeed))
	assert.Equal(t, []string{"clear", "refresh"}, calls)
}

func TestFireUnknownTrigger(t *testing.T) {
	d := New(logger.NewNopLogger())
	assert.ErrorIs(t, d.Fire(context.Background(), "nope"), ErrUnknownTrigger)
}

func TestFireJoinsErrorsAndKeepsGoing(t *testing.T) {
	log := logger.NewTestLogger()
	d := New(log)

	first := errors.New("first")
	second := errors.New("second")
	ran := 0

	d.Register(DailyUpdate, func(ctx context.Context) error { ran++; return first })
	d.Register(DailyUpdate, func(ctx context.Context) error { ran++; return nil })
	d.Register(DailyUpdate, func(ctx context.Context) error { ran++; return second })

	err := d.Fire(context.Background(), DailyUpdate)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Equal(t, 3, ran)
	assert.True(t, log.HasMessage("Trigger finished with errors"))
}

func TestFirePassesContext(t *testing.T) {
	d := New(logger.NewNopLogger())
	type key struct{}

	d.Register(DailyUpdate, func(ctx context.Context) error {
		assert.Equal(t, "v", ctx.Value(key{}))
		return nil
	})

	require.NoError(t, d.Fire(context.WithValue(context.Background(), key{}, "v"), DailyUpdate))
}

func TestNames(t *testing.T) {
	d := New(logger.NewNopLogger())
	d.Register(RefreshFeed, func(context.Context) error { return nil })
	d.Register(DailyUpdate, func(context.Context) error { return nil })

	assert.Equal(t, []string{DailyUpdate, RefreshFeed}, d.Names())
}
