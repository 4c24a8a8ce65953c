// Package scheduler fires the daily update trigger on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"igfeed/internal/hooks"
	"igfeed/pkg/config"
	"igfeed/pkg/logger"
)

// Firer fires named triggers
type Firer interface {
	Fire(ctx context.Context, name string) error
}

// Scheduler runs the daily update
type Scheduler struct {
	ctx     context.Context
	cfg     config.ScheduleConfig
	cron    *cron.Cron
	firer   Firer
	logger  logger.Logger
	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// New creates a scheduler; ctx bounds every scheduled run
func New(ctx context.Context, cfg config.ScheduleConfig, firer Firer, log logger.Logger) (*Scheduler, error) {
	loc := time.UTC
	if cfg.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule timezone %q: %w", cfg.Timezone, err)
		}
	}

	log = logger.OrDefault(log).WithField("component", "scheduler")
	return &Scheduler{
		ctx:    ctx,
		cfg:    cfg,
		cron:   cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		firer:  firer,
		logger: log,
	}, nil
}

// Start registers the daily job and starts the cron loop.
// A disabled schedule only logs a warning.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.logger.Warn("Scheduled refresh disabled; the feed only updates on demand")
		return nil
	}
	if s.started {
		return nil
	}

	id, err := s.cron.AddFunc(s.cfg.Spec, s.runDailyUpdate)
	if err != nil {
		return fmt.Errorf("invalid schedule spec %q: %w", s.cfg.Spec, err)
	}
	s.entryID = id
	s.cron.Start()
	s.started = true

	logger.LogComponentStart(s.logger, "scheduler", map[string]interface{}{
		"spec":     s.cfg.Spec,
		"next_run": s.cron.Entry(id).Next,
	})
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.started = false
	logger.LogComponentStop(s.logger, "scheduler", "stopped")
}

// Next returns the next scheduled run; ok is false when nothing is scheduled
func (s *Scheduler) Next() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return time.Time{}, false
	}
	next := s.cron.Entry(s.entryID).Next
	return next, !next.IsZero()
}

// NextAfter returns the first run of the configured spec after t
func (s *Scheduler) NextAfter(t time.Time) (time.Time, error) {
	sched, err := cron.ParseStandard(s.cfg.Spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule spec %q: %w", s.cfg.Spec, err)
	}
	return sched.Next(t.In(s.cron.Location())), nil
}

func (s *Scheduler) runDailyUpdate() {
	ctx := s.ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	select {
	case <-ctx.Done():
		s.logger.WithError(ctx.Err()).Info("Scheduler context is done")
		return
	default:
	}

	if err := s.firer.Fire(ctx, hooks.DailyUpdate); err != nil {
		s.logger.WithError(err).Error("Scheduled refresh failed")
		return
	}
	s.logger.Info("Scheduled refresh completed")
}
