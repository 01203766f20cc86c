package ledger

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

const redisScanBatch = 100

// RedisKV stores each record as a plain string value.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV builds a Redis-backed key-value backend.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

// Get fetches the value stored under key.
func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Set overwrites the value stored under key without expiry.
func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Count walks the keyspace with SCAN; KEYS would block the server.
func (r *RedisKV) Count(ctx context.Context, prefix string) (int, error) {
	var (
		cursor uint64
		n      int
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", redisScanBatch).Result()
		if err != nil {
			return 0, err
		}
		n += len(keys)
		cursor = next
		if cursor == 0 {
			return n, nil
		}
	}
}
