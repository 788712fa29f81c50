package store

import (
	"encoding/json"
	"time"
)

// SnapshotThreshold is the number of events between two snapshots of an aggregate.
const SnapshotThreshold = 10

// Snapshot is the serialized state of an aggregate at Version.
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"`
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewSnapshot serializes state into a snapshot.
func NewSnapshot(aggregateID, aggregateType string, version int, state any) (*Snapshot, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		Version:       version,
		State:         raw,
		CreatedAt:     time.Now(),
	}, nil
}

// Due reports whether a snapshot should be taken at version.
func Due(version int) bool {
	return version > 0 && version%SnapshotThreshold == 0
}
