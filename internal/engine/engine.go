// Package engine implements the group state engine: the membership registry,
// the expense ledger with settlement suggestions, and the poll lifecycle.
//
// All mutating operations on one group's ledger are serialized, as are all
// operations on one poll; different groups and different polls proceed in
// parallel. Every operation validates its input fully before the first
// write, so a rejected call leaves state untouched.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/huddleup/huddle/internal/events"
	"github.com/huddleup/huddle/internal/storage"
)

// Engine owns the derived state of all groups. It holds no cross-group
// state: every operation is scoped to one group (or one poll) and resolves
// member references through that group's registry.
type Engine struct {
	store     storage.Store
	publisher events.Publisher
	now       func() time.Time

	groupLocks *keyedMutex
	pollLocks  *keyedMutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets the event publisher. Defaults to a no-op publisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithClock overrides the time source. Used by tests to exercise deadlines.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine backed by the given store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		publisher:  events.Nop{},
		now:        time.Now,
		groupLocks: newKeyedMutex(),
		pollLocks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// publish emits an event without letting a broker failure fail the
// operation that produced it.
func (e *Engine) publish(ctx context.Context, event events.Event) {
	if err := e.publisher.Publish(ctx, event); err != nil {
		slog.Warn("event publish failed", "kind", event.Kind, "group_id", event.GroupID, "error", err)
	}
}
