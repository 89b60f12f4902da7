package events

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore shares replay detection across process instances.
// SET NX gives the atomic check-and-insert; a losing racer reads back the
// winner's value.
type RedisIdempotencyStore struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client, prefix: "claimsgate:idem:"}
}

func (s *RedisIdempotencyStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) ([]byte, bool, error) {
	full := s.prefix + key
	inserted, err := s.client.SetNX(ctx, full, value, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency setnx: %w", err)
	}
	if inserted {
		return value, true, nil
	}
	stored, err := s.client.Get(ctx, full).Bytes()
	if err == redis.Nil {
		// Key expired between SETNX and GET; treat this attempt as new.
		return value, true, s.client.Set(ctx, full, value, ttl).Err()
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency get: %w", err)
	}
	return stored, false, nil
}
