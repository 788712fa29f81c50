package aggregate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
)

// Aggregate defines the interface for event-sourced aggregates
type Aggregate interface {
	GetID() string
	GetVersion() int
	SetVersion(int)
	ApplyEvent(store.Event) error
}

// Versioned carries the version bookkeeping shared by every aggregate.
type Versioned struct {
	Version int `json:"version"`
}

func (v *Versioned) GetVersion() int  { return v.Version }
func (v *Versioned) SetVersion(n int) { v.Version = n }

// LoadAggregate loads an aggregate by replaying events, using snapshot if available
// Returns the aggregate, a boolean indicating if data was found, and any error
func LoadAggregate[T Aggregate](
	ctx context.Context,
	eventStore store.EventStoreInterface,
	id string,
	newAggregate func() T,
) (T, bool, error) {
	var zero T
	agg := newAggregate()

	snapshot, err := eventStore.GetSnapshot(ctx, id)
	if err != nil {
		return zero, false, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var events []store.Event
	if snapshot != nil {
		if err := json.Unmarshal(snapshot.State, agg); err != nil {
			return zero, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
		}
		agg.SetVersion(snapshot.Version)
		events, err = eventStore.GetEventsFromVersion(ctx, id, snapshot.Version)
	} else {
		events, err = eventStore.GetEvents(ctx, id)
	}
	if err != nil {
		return zero, false, fmt.Errorf("failed to load events: %w", err)
	}

	hasData := snapshot != nil || len(events) > 0

	for _, event := range events {
		if err := agg.ApplyEvent(event); err != nil {
			return zero, false, fmt.Errorf("failed to apply event: %w", err)
		}
		agg.SetVersion(event.Version)
	}

	return agg, hasData, nil
}

// Apply folds freshly appended events into an already loaded aggregate.
func Apply(agg Aggregate, events ...store.Event) error {
	for _, event := range events {
		if event.AggregateID != agg.GetID() {
			continue
		}
		if err := agg.ApplyEvent(event); err != nil {
			return fmt.Errorf("failed to apply event: %w", err)
		}
		agg.SetVersion(event.Version)
	}
	return nil
}

// MaybeCreateSnapshot saves a snapshot when the aggregate reaches a snapshot boundary.
func MaybeCreateSnapshot(
	ctx context.Context,
	eventStore store.EventStoreInterface,
	agg Aggregate,
	aggregateType string,
) error {
	if !store.Due(agg.GetVersion()) {
		return nil
	}

	snapshot, err := store.NewSnapshot(agg.GetID(), aggregateType, agg.GetVersion(), agg)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate state: %w", err)
	}
	if err := eventStore.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
