// Package redislock provides a cycle lock shared by every process that points at the same Redis.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultKey = "price-radar:cycle-lock"
	DefaultTTL = 30 * time.Minute
)

// ErrNotHeld is returned by Unlock when this holder does not own the key anymore.
var ErrNotHeld = errors.New("lock is not held")

// releaseScript deletes the key only if it still carries our token.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Lock is a single-holder lock with an expiry, so a crashed holder cannot block cycles forever.
type Lock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	token  string
}

// New creates a Lock on key. Empty key and non-positive ttl use the defaults.
func New(client redis.UniversalClient, key string, ttl time.Duration) *Lock {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Lock{client: client, key: key, ttl: ttl, token: uuid.NewString()}
}

// TryLock sets the key if it is absent. It returns false when another holder owns it.
func (l *Lock) TryLock(ctx context.Context) (bool, error) {
	const opn = "redislock.TryLock"

	err := l.client.SetArgs(ctx, l.key, l.token, redis.SetArgs{Mode: "NX", TTL: l.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: failed to set %s: %w", opn, l.key, err)
	}
	return true, nil
}

// Unlock releases the key if it is still ours.
func (l *Lock) Unlock(ctx context.Context) error {
	const opn = "redislock.Unlock"

	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Int64()
	if err != nil {
		return fmt.Errorf("%s: failed to release %s: %w", opn, l.key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%s: %w", opn, ErrNotHeld)
	}
	return nil
}

// NewClient connects to addr and verifies the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	const opn = "redislock.NewClient"

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: failed to ping redis at %s: %w", opn, addr, err)
	}
	return client, nil
}
