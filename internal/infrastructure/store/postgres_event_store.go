package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const eventSchema = `
CREATE TABLE IF NOT EXISTS events (
	id             UUID PRIMARY KEY,
	aggregate_id   TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	event_type     TEXT NOT NULL,
	data           JSONB NOT NULL,
	version        INT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (aggregate_id, version)
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events (created_at);
CREATE TABLE IF NOT EXISTS snapshots (
	aggregate_id   TEXT PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	version        INT NOT NULL,
	state          JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);`

// PostgresEventStore stores events in PostgreSQL
type PostgresEventStore struct {
	db        *sql.DB
	publisher Publisher
	log       *zap.Logger
}

func NewPostgresEventStore(db *sql.DB, publisher Publisher, log *zap.Logger) *PostgresEventStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &PostgresEventStore{
		db:        db,
		publisher: publisher,
		log:       log,
	}
}

// EnsureSchema creates the events and snapshots tables when missing.
func (es *PostgresEventStore) EnsureSchema(ctx context.Context) error {
	_, err := es.db.ExecContext(ctx, eventSchema)
	return err
}

func (es *PostgresEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
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

// AppendBatch writes the batch inside one transaction. Each touched aggregate
// is locked with a transaction-scoped advisory lock while its next version is
// read, so concurrent writers to the same aggregate queue up instead of
// colliding on the (aggregate_id, version) key.
func (es *PostgresEventStore) AppendBatch(ctx context.Context, batch []PendingEvent) ([]Event, error) {
	if len(batch) == 0 {
		return nil, ErrEmptyBatch
	}

	tx, err := es.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	// Lock in a stable order to avoid deadlocks between overlapping batches.
	ids := make([]string, 0, len(batch))
	seen := make(map[string]bool)
	for _, p := range batch {
		if !seen[p.AggregateID] {
			seen[p.AggregateID] = true
			ids = append(ids, p.AggregateID)
		}
	}
	sort.Strings(ids)

	next := make(map[string]int, len(ids))
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", id); err != nil {
			return nil, fmt.Errorf("lock aggregate %s: %w", id, err)
		}
		var current int
		if err := tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = $1",
			id,
		).Scan(&current); err != nil {
			return nil, err
		}
		next[id] = current
	}
	if err := checkVersions(batch, func(id string) int { return next[id] }); err != nil {
		return nil, err
	}

	now := time.Now()
	stored := make([]Event, 0, len(batch))
	for _, p := range batch {
		jsonData, err := json.Marshal(p.Data)
		if err != nil {
			return nil, err
		}
		next[p.AggregateID]++
		event := Event{
			ID:            uuid.New().String(),
			AggregateID:   p.AggregateID,
			AggregateType: p.AggregateType,
			EventType:     p.EventType,
			Data:          jsonData,
			Timestamp:     now,
			Version:       next[p.AggregateID],
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, aggregate_id, aggregate_type, event_type, data, version, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			event.ID,
			event.AggregateID,
			event.AggregateType,
			event.EventType,
			event.Data,
			event.Version,
			event.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", event.EventType, err)
		}
		stored = append(stored, event)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	publishAll(ctx, es.publisher, stored, es.log)
	return stored, nil
}

func (es *PostgresEventStore) GetEvents(ctx context.Context, aggregateID string) ([]Event, error) {
	return es.query(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1
		 ORDER BY version ASC`,
		aggregateID,
	)
}

func (es *PostgresEventStore) GetEventsFromVersion(ctx context.Context, aggregateID string, version int) ([]Event, error) {
	return es.query(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 WHERE aggregate_id = $1 AND version > $2
		 ORDER BY version ASC`,
		aggregateID, version,
	)
}

// GetAllEvents returns the whole history in commit order, for replay.
func (es *PostgresEventStore) GetAllEvents(ctx context.Context) ([]Event, error) {
	return es.query(ctx,
		`SELECT id, aggregate_id, aggregate_type, event_type, data, version, created_at
		 FROM events
		 ORDER BY created_at ASC, version ASC`,
	)
}

// query reads events. A partial history is never returned: a failed scan or
// an interrupted cursor fails the whole read.
func (es *PostgresEventStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := es.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &e.Data, &e.Version, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func (es *PostgresEventStore) GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error) {
	var s Snapshot
	err := es.db.QueryRowContext(ctx,
		`SELECT aggregate_id, aggregate_type, version, state, created_at
		 FROM snapshots WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&s.AggregateID, &s.AggregateType, &s.Version, &s.State, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (es *PostgresEventStore) SaveSnapshot(ctx context.Context, snapshot *Snapshot) error {
	_, err := es.db.ExecContext(ctx,
		`INSERT INTO snapshots (aggregate_id, aggregate_type, version, state, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (aggregate_id) DO UPDATE
		 SET version = EXCLUDED.version, state = EXCLUDED.state, created_at = EXCLUDED.created_at
		 WHERE snapshots.version < EXCLUDED.version`,
		snapshot.AggregateID,
		snapshot.AggregateType,
		snapshot.Version,
		snapshot.State,
		snapshot.CreatedAt,
	)
	return err
}

// ConnectPostgres establishes a connection to PostgreSQL
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
