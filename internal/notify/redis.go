package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
)

const redisChannel = "storefront:cart_events"

type RedisRemote struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewRedisRemote(client *redis.Client, l *slog.Logger) *RedisRemote {
	if l == nil {
		l = slog.Default()
	}
	return &RedisRemote{client: client, channel: redisChannel, log: l}
}

func (r *RedisRemote) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("redis: json.Marshal failed: %w", err)
	}
	return r.client.Publish(ctx, r.channel, data).Err()
}

func (r *RedisRemote) Listen(ctx context.Context, fn func(Event)) error {
	sub := r.client.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("redis: subscribe %s: %w", r.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				r.log.Warn("redis_decode_error", "channel", r.channel, "error", err)
				continue
			}
			fn(e)
		}
	}
}

// Close leaves the shared client open; its owner closes it.
func (r *RedisRemote) Close() error {
	return nil
}
