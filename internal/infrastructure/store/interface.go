package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyBatch      = errors.New("event batch is empty")
	ErrVersionConflict = errors.New("aggregate was modified concurrently")
)

// PendingEvent is an event that has not been assigned an id or version yet.
type PendingEvent struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any

	// ExpectedVersion, when positive, is the version the aggregate must be at
	// for the batch to commit. Zero skips the check.
	ExpectedVersion int
}

// checkVersions compares the first expectation given for each aggregate with
// its current version.
func checkVersions(batch []PendingEvent, current func(aggregateID string) int) error {
	checked := make(map[string]bool)
	for _, p := range batch {
		if p.ExpectedVersion <= 0 || checked[p.AggregateID] {
			continue
		}
		checked[p.AggregateID] = true
		if v := current(p.AggregateID); v != p.ExpectedVersion {
			return fmt.Errorf("%w: %s is at version %d, expected %d", ErrVersionConflict, p.AggregateID, v, p.ExpectedVersion)
		}
	}
	return nil
}

// Publisher forwards committed events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)

	// AppendBatch stores all events or none of them. Versions are assigned
	// per aggregate in batch order.
	AppendBatch(ctx context.Context, batch []PendingEvent) ([]Event, error)

	// The read methods return an error when the store cannot be reached;
	// an aggregate without events is an empty slice.
	GetEvents(ctx context.Context, aggregateID string) ([]Event, error)
	GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]Event, error)
	GetAllEvents(ctx context.Context) ([]Event, error)

	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}
