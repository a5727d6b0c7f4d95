package realtime

import (
	"context"

	"github.com/go-redis/redis/v8"
)

// RedisTransport publishes event envelopes over Redis pub/sub. Subscribers
// authenticate against a tenant-scoped channel on the socket edge.
type RedisTransport struct {
	client *redis.Client
}

func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

func (t *RedisTransport) Publish(ctx context.Context, channel string, payload []byte) error {
	return t.client.Publish(ctx, channel, payload).Err()
}
