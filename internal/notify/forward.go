package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Forwarder relays payloads beyond the local process.
type Forwarder interface {
	Forward(ctx context.Context, payload []byte) error
	Close() error
}

// RedisForwarder publishes every payload to a Redis pub/sub channel.
type RedisForwarder struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

// NewRedisForwarder connects lazily to addr; nothing is dialed until the
// first publish.
func NewRedisForwarder(addr, channel string) *RedisForwarder {
	return &RedisForwarder{
		client: redis.NewClient(&redis.Options{
			Addr:        addr,
			DialTimeout: 2 * time.Second,
			MaxRetries:  1,
		}),
		channel: channel,
		timeout: 3 * time.Second,
	}
}

func (f *RedisForwarder) Forward(ctx context.Context, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.client.Publish(ctx, f.channel, payload).Err()
}

func (f *RedisForwarder) Close() error { return f.client.Close() }
