package refresher

import (
	"context"
	"errors"
	"time"

	"igfeed/pkg/logger"
	"igfeed/pkg/transient"
)

// LastErrorKey is the transient holding the most recent refresh message
const LastErrorKey = "instagram_scraper_last_error"

const journalTTL = 24 * time.Hour

// Journal logs refresh messages and keeps the latest one for the admin status
type Journal struct {
	store  transient.Store
	logger logger.Logger
}

// NewJournal creates a journal on store
func NewJournal(store transient.Store, log logger.Logger) *Journal {
	return &Journal{store: store, logger: logger.OrDefault(log)}
}

// Info logs msg and records it as the latest message
func (j *Journal) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	j.logger.InfoWithFields(msg, fields)
	j.remember(ctx, msg)
}

// Error logs msg with err and records it as the latest message
func (j *Journal) Error(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	j.logger.WithError(err).ErrorWithFields(msg, fields)
	j.remember(ctx, msg)
}

func (j *Journal) remember(ctx context.Context, msg string) {
	// detached so a cancelled refresh still records why it stopped
	ctx = context.WithoutCancel(ctx)
	if err := j.store.Set(ctx, LastErrorKey, []byte(msg), journalTTL); err != nil {
		j.logger.WithError(err).Warn("Failed to record refresh message")
	}
}

// Last returns the latest recorded message; ok is false when none is recorded
func (j *Journal) Last(ctx context.Context) (msg string, ok bool, err error) {
	raw, err := j.store.Get(ctx, LastErrorKey)
	if errors.Is(err, transient.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

// Clear forgets the latest message
func (j *Journal) Clear(ctx context.Context) error {
	return j.store.Delete(ctx, LastErrorKey)
}
