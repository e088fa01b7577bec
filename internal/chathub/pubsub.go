package chathub

import (
	"context"
	"encoding/json"

	"resolvenow/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventBus is the Redis Pub/Sub surface the relay needs.
type EventBus interface {
	PublishEvent(ctx context.Context, channel string, ev models.Event) error
	SubscribeEvents(ctx context.Context, channel string) *redis.PubSub
}

// RedisRelay publishes events through Redis so every server instance's hub receives them.
type RedisRelay struct {
	bus     EventBus
	channel string
	hub     *ManagerService
	log     *zap.Logger
}

func NewRedisRelay(bus EventBus, channel string, hub *ManagerService, log *zap.Logger) *RedisRelay {
	return &RedisRelay{bus: bus, channel: channel, hub: hub, log: log.Named("relay")}
}

// Publish sends ev to Redis. The local hub receives it back through Listen.
func (r *RedisRelay) Publish(ctx context.Context, ev models.Event) error {
	return r.bus.PublishEvent(ctx, r.channel, ev)
}

// Listen forwards events from the Redis channel into the local hub until ctx is cancelled.
// ready, when non-nil, is closed once the subscription is active.
func (r *RedisRelay) Listen(ctx context.Context, ready chan<- struct{}) error {
	pubsub := r.bus.SubscribeEvents(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}
	r.log.Info("listening for events", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev models.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.Warn("bad event payload", zap.Error(err))
				continue
			}
			if err := r.hub.Publish(ctx, ev); err != nil {
				return nil
			}
		}
	}
}
