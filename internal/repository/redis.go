package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const idempotencyKeyTTL = 24 * time.Hour

// RedisRepository wraps the small set of Redis operations the server needs.
type RedisRepository struct {
	Client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{Client: client}
}

func idempotencyKey(requestID string) string {
	return "idempotency:" + requestID
}

// IsDuplicate checks whether a notification request id has been seen before.
// SetNX makes the check-and-mark atomic.
func (r *RedisRepository) IsDuplicate(ctx context.Context, requestID string) (bool, error) {
	wasSet, err := r.Client.SetNX(ctx, idempotencyKey(requestID), "processed", idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return !wasSet, nil
}

// Forget clears the idempotency mark so a request whose dispatch failed can be
// retried under the same request id.
func (r *RedisRepository) Forget(ctx context.Context, requestID string) error {
	return r.Client.Del(ctx, idempotencyKey(requestID)).Err()
}
