package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace is the key prefix used when none is configured.
const DefaultNamespace = "safesubmit"

// RedisStore is a Redis-backed reservation store. Expiry is enforced by
// Redis natively, and reservations survive process restarts and are shared
// across instances. All keys carry a namespace prefix so reservations do not
// collide with unrelated data in a shared keyspace.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

// NewRedisStore creates a Redis store. An empty namespace selects
// DefaultNamespace.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	return &RedisStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *RedisStore) prefixed(key string) string {
	return s.namespace + ":" + key
}

// Get retrieves the marker for key from Redis.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	marker, err := s.client.Get(ctx, s.prefixed(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	return marker, true, nil
}

// Set stores a marker in Redis with TTL.
func (s *RedisStore) Set(ctx context.Context, key, marker string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefixed(key), marker, ttl).Err()
}

// SetIfAbsent reserves key atomically via SETNX, so concurrent reservations
// for the same key admit exactly one even across process instances.
func (s *RedisStore) SetIfAbsent(ctx context.Context, key, marker string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, s.prefixed(key), marker, ttl).Result()
}

// Delete removes the entry for key; a missing key is a no-op.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefixed(key)).Err()
}
