package store

import (
	"slices"
	"sync"
)

// ReadStore keeps read models in memory. Like GormReadStore, GetAll lists the
// most recently written models first.
type ReadStore struct {
	mu    sync.RWMutex
	seq   uint64
	colls map[string]map[string]entry
}

type entry struct {
	model any
	seq   uint64
}

func NewReadStore() *ReadStore {
	return &ReadStore{colls: make(map[string]map[string]entry)}
}

func (rs *ReadStore) Set(collection, id string, data any) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.put(collection, id, data)
	return nil
}

func (rs *ReadStore) put(collection, id string, data any) {
	docs, ok := rs.colls[collection]
	if !ok {
		docs = make(map[string]entry)
		rs.colls[collection] = docs
	}
	rs.seq++
	docs[id] = entry{model: data, seq: rs.seq}
}

func (rs *ReadStore) Get(collection, id string) (any, bool, error) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	e, ok := rs.colls[collection][id]
	return e.model, ok, nil
}

func (rs *ReadStore) GetAll(collection string) ([]any, error) {
	rs.mu.RLock()
	entries := make([]entry, 0, len(rs.colls[collection]))
	for _, e := range rs.colls[collection] {
		entries = append(entries, e)
	}
	rs.mu.RUnlock()

	slices.SortFunc(entries, func(a, b entry) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		}
		return 0
	})

	items := make([]any, len(entries))
	for i, e := range entries {
		items[i] = e.model
	}
	return items, nil
}

func (rs *ReadStore) Delete(collection, id string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	delete(rs.colls[collection], id)
	return nil
}

func (rs *ReadStore) Update(collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	e, ok := rs.colls[collection][id]
	if !ok {
		return false, nil
	}
	rs.put(collection, id, updateFn(e.model))
	return true, nil
}
