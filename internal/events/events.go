// Package events publishes engine state changes for external consumers
// (notification workers, audit trails). Delivery is best-effort: a failed
// publish never fails the operation that produced the event.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event kinds emitted by the engine.
const (
	KindExpenseRecorded = "expense.recorded"
	KindExpenseVoided   = "expense.voided"
	KindPollClosed      = "poll.closed"
)

// Event is a lightweight state-change message. Consumers fetch the full
// record from the API using the entity ID.
type Event struct {
	Kind       string    `json:"kind"`
	GroupID    string    `json:"group_id"`
	EntityID   string    `json:"entity_id"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to an external broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop is a Publisher that discards everything. Used when no broker is
// configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
