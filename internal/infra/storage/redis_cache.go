package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

type RedisConfig struct {
	Addr     string
	DB       int
	Password string
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// RedisReportCache shares reports between service replicas. Keys are
// prefix+clientID and never expire.
type RedisReportCache struct {
	client *redis.Client
	prefix string
}

func NewRedisReportCache(client *redis.Client, prefix string) *RedisReportCache {
	return &RedisReportCache{client: client, prefix: prefix}
}

func (c *RedisReportCache) Get(ctx context.Context, clientID string) (domain.ResponseRecord, bool, error) {
	data, err := c.client.Get(ctx, c.key(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ResponseRecord{}, false, nil
	}
	if err != nil {
		return domain.ResponseRecord{}, false, err
	}

	var record domain.ResponseRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return domain.ResponseRecord{}, false, fmt.Errorf("decode cached report %s: %w", clientID, err)
	}
	return record, true, nil
}

func (c *RedisReportCache) PutIfAbsent(ctx context.Context, clientID string, record domain.ResponseRecord) (domain.ResponseRecord, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return domain.ResponseRecord{}, err
	}

	stored, err := c.client.SetNX(ctx, c.key(clientID), data, 0).Result()
	if err != nil {
		return domain.ResponseRecord{}, err
	}
	if stored {
		return record, nil
	}

	existing, ok, err := c.Get(ctx, clientID)
	if err != nil {
		return domain.ResponseRecord{}, err
	}
	if !ok {
		return record, nil
	}
	return existing, nil
}

func (c *RedisReportCache) key(clientID string) string {
	return c.prefix + clientID
}
