package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"modelctl/internal/model"
	"modelctl/pkg/interfaces"

	"github.com/go-redis/redis/v8"
)

// StatusRepository keeps the worker status record under a single key.
// SET replaces the value wholesale, so readers never observe a partial record.
type StatusRepository struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

// NewStatusRepository creates the repository. ttl bounds how long a record of a
// dead worker survives; zero keeps it forever.
func NewStatusRepository(redisClient *RedisClient, key string, ttl time.Duration) *StatusRepository {
	return &StatusRepository{
		redis: redisClient.GetClient(),
		key:   key,
		ttl:   ttl,
	}
}

// Read retrieves the worker status record
func (r *StatusRepository) Read(ctx context.Context) (*interfaces.StatusSnapshot, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: key %s", interfaces.ErrStatusNotFound, r.key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get %s: %v", interfaces.ErrStatusUnreadable, r.key, err)
	}

	record, err := model.DecodeStatusRecord(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrStatusUnreadable, err)
	}

	// redis exposes no modification time, liveness relies on the heartbeat alone
	return &interfaces.StatusSnapshot{Record: record}, nil
}

// Write replaces the worker status record
func (r *StatusRepository) Write(ctx context.Context, record *model.StatusRecord) error {
	data, err := model.EncodeStatusRecord(record)
	if err != nil {
		return err
	}
	if err := r.redis.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save status record: %w", err)
	}
	return nil
}

// Remove deletes the record
func (r *StatusRepository) Remove(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("failed to delete status record: %w", err)
	}
	return nil
}
