// Package distlock provides a Redis-backed distributed lock used to
// serialize draft generation per client-month across server instances.
package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lock is the distributed locking contract. A Lock instance belongs to
// a single goroutine; concurrent holders need separate instances.
type Lock interface {
	// Acquire tries to take the lock. Returns true on success.
	Acquire(ctx context.Context) (bool, error)
	// Release frees the lock if this instance still owns it.
	Release(ctx context.Context) error
}

// Factory builds a Lock for a key. Services depend on this instead of a
// concrete Redis client so tests can substitute in-memory locks.
type Factory func(key string) Lock

// NewRedisFactory returns a Factory producing Redis locks with the
// given TTL.
func NewRedisFactory(client *redis.Client, ttl time.Duration) Factory {
	return func(key string) Lock {
		return NewRedisLock(client, key, ttl)
	}
}

// RedisLock implements Lock via SET NX with a TTL. A random ownership
// value plus a Lua release script prevents one process from freeing a
// lock that has expired and been re-acquired by another.
type RedisLock struct {
	client *redis.Client
	key    string
	value  string
	ttl    time.Duration
}

// NewRedisLock creates a Redis-backed lock for the given key.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	b := make([]byte, 16)
	rand.Read(b)
	return &RedisLock{
		client: client,
		key:    fmt.Sprintf("emailpilot:lock:%s", key),
		value:  hex.EncodeToString(b),
		ttl:    ttl,
	}
}

// Acquire tries to take the lock. Returns true on success.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Release frees the lock only if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
	_, err := script.Run(ctx, l.client, []string{l.key}, l.value).Result()
	return err
}
