package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL is how long an idle checkout session is kept.
const SessionTTL = 24 * time.Hour

// SessionStore keeps one checkout session per customer.
type SessionStore interface {
	// Load returns the saved session, or a fresh one when none exists.
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID string) error
}

// MemorySessionStore keeps sessions in process. Used by tests and single-node runs.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]Session)}
}

func (m *MemorySessionStore) Load(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return NewSession(userID), nil
	}
	return &s, nil
}

func (m *MemorySessionStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.UserID] = *s
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}

// RedisSessionStore keeps sessions as JSON under checkout_session:<user>
// with a sliding TTL.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(userID string) string {
	return "checkout_session:" + userID
}

func (r *RedisSessionStore) Load(ctx context.Context, userID string) (*Session, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	return &s, nil
}

func (r *RedisSessionStore) Save(ctx context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(s.UserID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, sessionKey(userID)).Err()
}
