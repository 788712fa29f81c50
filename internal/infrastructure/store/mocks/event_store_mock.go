package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viepratiqueservice-arch/Visela/internal/infrastructure/store"
)

// MockEventStore is a mock implementation of EventStoreInterface for testing
type MockEventStore struct {
	mu        sync.RWMutex
	events    map[string][]store.Event
	snapshots map[string]*store.Snapshot

	// AppendCalls records every event written, whether through Append or
	// AppendBatch. BatchCalls records each AppendBatch call as a unit.
	AppendCalls       []AppendCall
	BatchCalls        [][]AppendCall
	SaveSnapshotCalls []SaveSnapshotCall
	AppendErr         error
	// ReadErr fails every event read, as an unreachable database would.
	ReadErr error
}

// SaveSnapshotCall records a snapshot passed to SaveSnapshot
type SaveSnapshotCall struct {
	Snapshot *store.Snapshot
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	AggregateID   string
	AggregateType string
	EventType     string
	Data          any
}

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{
		events:      make(map[string][]store.Event),
		snapshots:   make(map[string]*store.Snapshot),
		AppendCalls: make([]AppendCall, 0),
	}
}

func (m *MockEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          data,
	})
	return m.addLocked(aggregateID, aggregateType, eventType, data)
}

// AppendBatch stores all events or none.
func (m *MockEventStore) AppendBatch(ctx context.Context, batch []store.PendingEvent) ([]store.Event, error) {
	if len(batch) == 0 {
		return nil, store.ErrEmptyBatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	calls := make([]AppendCall, len(batch))
	for i, p := range batch {
		calls[i] = AppendCall{
			AggregateID:   p.AggregateID,
			AggregateType: p.AggregateType,
			EventType:     p.EventType,
			Data:          p.Data,
		}
		if p.ExpectedVersion > 0 && len(m.events[p.AggregateID]) != p.ExpectedVersion {
			return nil, store.ErrVersionConflict
		}
	}

	before := make(map[string]int)
	for _, p := range batch {
		if _, ok := before[p.AggregateID]; !ok {
			before[p.AggregateID] = len(m.events[p.AggregateID])
		}
	}

	stored := make([]store.Event, 0, len(batch))
	for _, p := range batch {
		e, err := m.addLocked(p.AggregateID, p.AggregateType, p.EventType, p.Data)
		if err != nil {
			for id, n := range before {
				m.events[id] = m.events[id][:n]
			}
			return nil, err
		}
		stored = append(stored, *e)
	}

	m.AppendCalls = append(m.AppendCalls, calls...)
	m.BatchCalls = append(m.BatchCalls, calls)
	return stored, nil
}

func (m *MockEventStore) GetEvents(ctx context.Context, aggregateID string) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return append([]store.Event(nil), m.events[aggregateID]...), nil
}

func (m *MockEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	var out []store.Event
	for _, e := range m.events[aggregateID] {
		if e.Version > version {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockEventStore) GetAllEvents(ctx context.Context) ([]store.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}

	var all []store.Event
	for _, events := range m.events {
		all = append(all, events...)
	}
	return all, nil
}

func (m *MockEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*store.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots[aggregateID], nil
}

func (m *MockEventStore) SaveSnapshot(ctx context.Context, snapshot *store.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveSnapshotCalls = append(m.SaveSnapshotCalls, SaveSnapshotCall{Snapshot: snapshot})
	m.snapshots[snapshot.AggregateID] = snapshot
	return nil
}

// Reset clears all events and recorded calls
func (m *MockEventStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = make(map[string][]store.Event)
	m.snapshots = make(map[string]*store.Snapshot)
	m.AppendCalls = make([]AppendCall, 0)
	m.BatchCalls = nil
	m.SaveSnapshotCalls = nil
	m.AppendErr = nil
}

// ResetCalls forgets recorded calls but keeps stored events.
func (m *MockEventStore) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls = make([]AppendCall, 0)
	m.BatchCalls = nil
}

// SetEvents sets events directly for testing
func (m *MockEventStore) SetEvents(aggregateID string, events []store.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[aggregateID] = events
}

// SetSnapshot stores a snapshot without recording a call.
func (m *MockEventStore) SetSnapshot(snapshot *store.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.AggregateID] = snapshot
}

// AddEvent adds a single event for testing without recording a call.
func (m *MockEventStore) AddEvent(aggregateID, aggregateType, eventType string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.addLocked(aggregateID, aggregateType, eventType, data)
	return err
}

func (m *MockEventStore) addLocked(aggregateID, aggregateType, eventType string, data any) (*store.Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	event := store.Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       len(m.events[aggregateID]) + 1,
	}
	m.events[aggregateID] = append(m.events[aggregateID], event)
	return &event, nil
}
