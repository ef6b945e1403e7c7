package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/preciz/chunx"
)

const chunkKeyPrefix = "chunks:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client.
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{
		client: client,
	}, nil
}

// GetChunks retrieves a cached chunking result by key.
func (c *RedisCache) GetChunks(ctx context.Context, key string) ([]chunx.Chunk, error) {
	data, err := c.client.Get(ctx, chunkKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}

	var chunks []chunx.Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// SetChunks stores a chunking result with TTL.
func (c *RedisCache) SetChunks(ctx context.Context, key string, chunks []chunx.Chunk, ttl time.Duration) error {
	data, err := json.Marshal(chunks)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, chunkKeyPrefix+key, data, ttl).Err()
}

// Close closes the cache connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
