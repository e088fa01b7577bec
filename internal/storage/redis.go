package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"resolvenow/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// PublishEvent publishes an event on a Redis Pub/Sub channel.
func (s *Service) PublishEvent(ctx context.Context, channel string, ev models.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, channel, payload).Err()
}

// SubscribeEvents subscribes to a Pub/Sub channel. The caller closes the subscription.
func (s *Service) SubscribeEvents(ctx context.Context, channel string) *redis.PubSub {
	return s.Redis.Subscribe(ctx, channel)
}

// RevokeToken marks a token id as revoked until ttl elapses.
func (s *Service) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.Redis.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl).Err()
}

// IsTokenRevoked checks the revocation list in Redis.
func (s *Service) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := s.Redis.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
