package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisDocKeyPattern = "plantshop:doc:%s"

// KV is the subset of the Redis client used by RedisBlob.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Ping(ctx context.Context) *goredis.StatusCmd
}

// RedisBlob stores each document as a single Redis string value.
type RedisBlob struct {
	kv  KV
	log *slog.Logger
}

var _ Blob = (*RedisBlob)(nil)

// NewRedisBlob builds a Redis-backed Blob.
func NewRedisBlob(kv KV, log *slog.Logger) *RedisBlob {
	if log == nil {
		log = slog.Default()
	}
	return &RedisBlob{kv: kv, log: log}
}

// Load fetches the document, mapping a missing key to ErrNotFound.
func (b *RedisBlob) Load(ctx context.Context, name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}

	value, err := b.kv.Get(ctx, redisDocKey(name))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		b.log.Error("failed to load document from redis", slog.String("name", name), slog.Any("error", err))
		return nil, fmt.Errorf("get document %s: %w", name, err)
	}

	return []byte(value), nil
}

// Save overwrites the document. A single SET is atomic in Redis.
func (b *RedisBlob) Save(ctx context.Context, name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}

	if err := b.kv.Set(ctx, redisDocKey(name), data, 0); err != nil {
		b.log.Error("failed to save document to redis", slog.String("name", name), slog.Any("error", err))
		return fmt.Errorf("set document %s: %w", name, err)
	}

	return nil
}

// HealthCheck pings Redis.
func (b *RedisBlob) HealthCheck(ctx context.Context) error {
	return b.kv.Ping(ctx).Err()
}

func redisDocKey(name string) string {
	return fmt.Sprintf(redisDocKeyPattern, name)
}
