// Package lock serialises wallet-affecting operations per customer.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultTTL bounds how long a crashed holder can block a wallet.
const DefaultTTL = 5 * time.Second

var ErrLocked = errors.New("resource is locked, please retry")

// Locker grants exclusive short-lived access to a key. The returned release
// func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// WalletKey is the lock key for a customer's wallet.
func WalletKey(userID string) string {
	return "wallet_lock:" + userID
}

// releaseScript deletes the key only if it still holds our token, so a
// holder whose TTL expired cannot free someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, log: log}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.rdb, []string{key}, token).Err(); err != nil {
				l.log.Warn("failed to release lock",
					zap.String("component", "Lock"),
					zap.String("key", key),
					zap.Error(err),
				)
			}
		})
	}, nil
}

// LocalLocker is an in-process Locker for tests and single-node runs.
type LocalLocker struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	held  map[string]held
	token uint64
}

type held struct {
	token   uint64
	expires time.Time
}

func NewLocalLocker(ttl time.Duration) *LocalLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &LocalLocker{ttl: ttl, now: time.Now, held: make(map[string]held)}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if h, ok := l.held[key]; ok && now.Before(h.expires) {
		return nil, ErrLocked
	}
	l.token++
	token := l.token
	l.held[key] = held{token: token, expires: now.Add(l.ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if h, ok := l.held[key]; ok && h.token == token {
				delete(l.held, key)
			}
		})
	}, nil
}
