package mocks

import (
	"sync"
)

// MockReadStore is a mock implementation of ReadStoreInterface for testing
type MockReadStore struct {
	mu   sync.Mutex
	data map[string]map[string]any // collection -> id -> data

	SetCalls    []SetCall
	DeleteCalls []DeleteCall
	UpdateCalls []UpdateCall

	// Err, when set, is returned by every operation.
	Err error
}

type SetCall struct {
	Collection string
	ID         string
	Data       any
}

type DeleteCall struct {
	Collection string
	ID         string
}

type UpdateCall struct {
	Collection string
	ID         string
}

func NewMockReadStore() *MockReadStore {
	return &MockReadStore{
		data: make(map[string]map[string]any),
	}
}

func (m *MockReadStore) Set(collection, id string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.SetCalls = append(m.SetCalls, SetCall{Collection: collection, ID: id, Data: data})
	m.setLocked(collection, id, data)
	return nil
}

func (m *MockReadStore) Get(collection, id string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, false, m.Err
	}
	data, ok := m.data[collection][id]
	return data, ok, nil
}

func (m *MockReadStore) GetAll(collection string) ([]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	items := make([]any, 0, len(m.data[collection]))
	for _, item := range m.data[collection] {
		items = append(items, item)
	}
	return items, nil
}

func (m *MockReadStore) Delete(collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.DeleteCalls = append(m.DeleteCalls, DeleteCall{Collection: collection, ID: id})
	delete(m.data[collection], id)
	return nil
}

func (m *MockReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{Collection: collection, ID: id})
	current, ok := m.data[collection][id]
	if !ok {
		return false, nil
	}
	m.data[collection][id] = updateFn(current)
	return true, nil
}

// Reset clears all data and recorded calls
func (m *MockReadStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]map[string]any)
	m.SetCalls = nil
	m.DeleteCalls = nil
	m.UpdateCalls = nil
	m.Err = nil
}

// SetData stores data without recording a call.
func (m *MockReadStore) SetData(collection, id string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setLocked(collection, id, data)
}

// GetData reads data without going through Err.
func (m *MockReadStore) GetData(collection, id string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[collection][id]
	return data, ok
}

func (m *MockReadStore) setLocked(collection, id string, data any) {
	if m.data[collection] == nil {
		m.data[collection] = make(map[string]any)
	}
	m.data[collection][id] = data
}
