package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andresuchdata/serverless-sim/internal/config"
	"github.com/andresuchdata/serverless-sim/internal/domain"
	"github.com/redis/go-redis/v9"
)

const recordKeyPrefix = "records:item"

// RecordCache keeps the latest metadata record per object key.
type RecordCache interface {
	Get(ctx context.Context, filename string) (*domain.FileMetadata, bool, error)
	Set(ctx context.Context, item *domain.FileMetadata) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisRecordCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRecordCache struct{}

func NewRecordCache(cfg config.CacheConfig) (RecordCache, error) {
	if !cfg.Enabled {
		return &noopRecordCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRecordCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopRecordCache() RecordCache {
	return &noopRecordCache{}
}

func (c *redisRecordCache) Get(ctx context.Context, filename string) (*domain.FileMetadata, bool, error) {
	payload, err := c.client.Get(ctx, buildRecordKey(filename)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var item domain.FileMetadata
	if err := json.Unmarshal(payload, &item); err != nil {
		return nil, false, fmt.Errorf("decode record cache: %w", err)
	}

	return &item, true, nil
}

func (c *redisRecordCache) Set(ctx context.Context, item *domain.FileMetadata) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode record cache: %w", err)
	}

	if err := c.client.Set(ctx, buildRecordKey(item.Filename), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisRecordCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, recordKeyPrefix, scanBatchSize)
}

func (c *redisRecordCache) Close() error {
	return c.client.Close()
}

func (n *noopRecordCache) Get(ctx context.Context, filename string) (*domain.FileMetadata, bool, error) {
	return nil, false, nil
}

func (n *noopRecordCache) Set(ctx context.Context, item *domain.FileMetadata) error {
	return nil
}

func (n *noopRecordCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopRecordCache) Close() error {
	return nil
}

func buildRecordKey(filename string) string {
	hash := sha1.Sum([]byte(filename))
	return fmt.Sprintf("%s:%s", recordKeyPrefix, hex.EncodeToString(hash[:]))
}
