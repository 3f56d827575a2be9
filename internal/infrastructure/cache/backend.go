// Package cache provides the report response cache and its storage backends.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend stores opaque cache entries with a TTL.
type Backend interface {
	// Get returns the stored value; ok is false on a miss.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// RedisBackend implements Backend on Redis. It is shared by every server
// instance pointing at the same Redis database.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to the Redis server at rawURL
// (redis://[:password@]host:port/db) and verifies the connection.
func NewRedisBackend(ctx context.Context, rawURL string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeletePrefix implements Backend using SCAN, so it never blocks the server
// the way KEYS would.
func (b *RedisBackend) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := b.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del: %w", err)
	}
	return int(n), nil
}

// Ping checks Redis reachability for the readiness probe.
func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

// MemoryBackend implements Backend in process memory. It serves single-instance
// deployments without Redis.
type MemoryBackend struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Backend. Expired entries are dropped lazily.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	e, ok := b.entries[key]
	b.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !b.now().Before(e.expiresAt) {
		b.mu.Lock()
		delete(b.entries, key)
		b.mu.Unlock()
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements Backend. A non-positive ttl keeps the entry until purged.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = b.now().Add(ttl)
	}
	b.mu.Lock()
	b.entries[key] = e
	b.mu.Unlock()
	return nil
}

// DeletePrefix implements Backend.
func (b *MemoryBackend) DeletePrefix(_ context.Context, prefix string) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for key := range b.entries {
		if strings.HasPrefix(key, prefix) {
			delete(b.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired ones included.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Close implements Backend.
func (b *MemoryBackend) Close() error {
	return nil
}
