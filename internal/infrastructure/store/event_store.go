package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// MarshalJSON returns the JSON encoding of the event
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	return json.Marshal(&struct{ Alias }{Alias: Alias(e)})
}

// EventStore keeps events in memory. It backs local development and tests.
type EventStore struct {
	mu        sync.RWMutex
	events    map[string][]Event // aggregateID -> events
	snapshots map[string]*Snapshot
	publisher Publisher
	log       *zap.Logger
}

func NewEventStore(publisher Publisher, log *zap.Logger) *EventStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventStore{
		events:    make(map[string][]Event),
		snapshots: make(map[string]*Snapshot),
		publisher: publisher,
		log:       log,
	}
}

func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	events, err := es.AppendBatch(ctx, []PendingEvent{{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	}})
	if err != nil {
		return nil, err
	}
	return &events[0], nil
}

func (es *EventStore) AppendBatch(ctx context.Context, batch []PendingEvent) ([]Event, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	// Encode everything before taking the lock so a bad payload leaves the
	// store untouched.
	payloads := make([][]byte, len(batch))
	for i, p := range batch {
		data, err := json.Marshal(p.Data)
		if err != nil {
			return nil, err
		}
		payloads[i] = data
	}

	now := time.Now()
	es.mu.Lock()
	if err := checkVersions(batch, func(id string) int { return len(es.events[id]) }); err != nil {
		es.mu.Unlock()
		return nil, err
	}
	next := make(map[string]int)
	stored := make([]Event, len(batch))
	for i, p := range batch {
		if _, ok := next[p.AggregateID]; !ok {
			next[p.AggregateID] = len(es.events[p.AggregateID])
		}
		next[p.AggregateID]++
		stored[i] = Event{
			ID:            uuid.New().String(),
			AggregateID:   p.AggregateID,
			AggregateType: p.AggregateType,
			EventType:     p.EventType,
			Data:          payloads[i],
			Timestamp:     now,
			Version:       next[p.AggregateID],
		}
	}
	for _, e := range stored {
		es.events[e.AggregateID] = append(es.events[e.AggregateID], e)
	}
	es.mu.Unlock()

	publishAll(ctx, es.publisher, stored, es.log)
	return stored, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.events[aggregateID]...), nil
}

func (es *EventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var out []Event
	for _, e := range es.events[aggregateID] {
		if e.Version > version {
			out = append(out, e)
		}
	}
	return out, nil
}

// GetAllEvents returns every event ordered by timestamp, then version.
func (es *EventStore) GetAllEvents(ctx context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var all []Event
	for _, events := range es.events {
		all = append(all, events...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Timestamp.Equal(all[j].Timestamp) {
			return all[i].Version < all[j].Version
		}
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all, nil
}

func (es *EventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return es.snapshots[aggregateID], nil
}

func (es *EventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.snapshots[snapshot.AggregateID] = snapshot
	return nil
}

// publishAll forwards committed events. The events are already durable, so a
// publish failure is logged and left to the startup replay.
func publishAll(ctx context.Context, publisher Publisher, events []Event, log *zap.Logger) {
	if publisher == nil {
		return
	}
	for _, e := range events {
		if err := publisher.Publish(ctx, e.AggregateID, e); err != nil {
			log.Warn("failed to publish event",
				zap.String("component", "EventStore"),
				zap.String("event_id", e.ID),
				zap.String("event_type", e.EventType),
				zap.Error(err),
			)
		}
	}
}
