package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces pool records away from other users of the same Redis
// instance (the task queue lives there too).
const keyPrefix = "unsplash:pool:"

// RedisMetadata implements MetadataStore on a Redis client.
type RedisMetadata struct {
	rdb *redis.Client
}

func NewRedisMetadata(rdb *redis.Client) *RedisMetadata {
	return &RedisMetadata{rdb: rdb}
}

func (s *RedisMetadata) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

func (s *RedisMetadata) Put(ctx context.Context, key string, data []byte) error {
	if err := s.rdb.Set(ctx, keyPrefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisMetadata) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisMetadata) Scan(ctx context.Context, cursor uint64, count int64) ([]string, uint64, error) {
	keys, next, err := s.rdb.Scan(ctx, cursor, keyPrefix+"*", count).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("redis scan: %w", err)
	}
	for i := range keys {
		keys[i] = keys[i][len(keyPrefix):]
	}
	return keys, next, nil
}
