// Package hooks maps named triggers to handlers.
//
// The table is built once at startup; Fire runs the handlers registered for
// a trigger in registration order.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"igfeed/pkg/logger"
)

// Trigger names
const (
	DailyUpdate = "daily_update"
	RefreshFeed = "refresh_feed"
)

// ErrUnknownTrigger is returned by Fire for names without handlers
var ErrUnknownTrigger = errors.New("unknown trigger")

// Handler runs when its trigger fires
type Handler func(ctx context.Context) error

// Dispatcher is the trigger table
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
}

// New creates an empty dispatcher
func New(log logger.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string][]Handler),
		logger:   logger.OrDefault(log),
	}
}

// Register appends h to the handlers of name
func (d *Dispatcher) Register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = append(d.handlers[name], h)
}

// Fire runs every handler of name, even after one fails, and joins their errors
func (d *Dispatcher) Fire(ctx context.Context, name string) error {
	d.mu.RLock()
	handlers := append([]Handler(nil), d.handlers[name]...)
	d.mu.RUnlock()

	if len(handlers) == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTrigger, name)
	}

	log := d.logger.WithField("trigger", name)
	start := time.Now()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	fields := map[string]interface{}{
		"handlers": len(handlers),
		"duration": time.Since(start),
	}
	if err != nil {
		log.WithError(err).WarnWithFields("Trigger finished with errors", fields)
	} else {
		log.DebugWithFields("Trigger finished", fields)
	}
	return err
}

// Names returns the registered trigger names, sorted
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
