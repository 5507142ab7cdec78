package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisTransport publishes broadcast payloads on redis pub/sub channels,
// one channel per topic.
type RedisTransport struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisTransport creates a redis-backed transport. prefix namespaces
// the pub/sub channels, e.g. "trailhub".
func NewRedisTransport(client *redis.Client, prefix string, logger *zap.Logger) *RedisTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisTransport{client: client, prefix: prefix, logger: logger}
}

// Send implements Transport.
func (t *RedisTransport) Send(ctx context.Context, topic string, payload []byte) error {
	channel := topic
	if t.prefix != "" {
		channel = fmt.Sprintf("%s:%s", t.prefix, topic)
	}

	if err := t.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish to %s: %w", channel, err)
	}
	return nil
}

// Health pings redis so startup can fail fast on a bad URL.
func (t *RedisTransport) Health(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}
