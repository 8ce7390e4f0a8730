package redisadapter

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"showingcover/contexts/billing/subscription-service/ports"
)

const defaultPrefix = "billing:payment-event:"

// EventDedup reserves processor event ids with SET NX and a TTL.
type EventDedup struct {
	Client *redis.Client
	Prefix string
}

func NewEventDedup(redisURL string) (*EventDedup, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(redisURL))
	if err != nil {
		return nil, err
	}
	return &EventDedup{Client: redis.NewClient(opts)}, nil
}

func (d *EventDedup) Reserve(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	return d.Client.SetNX(ctx, d.key(eventID), "1", ttl).Result()
}

func (d *EventDedup) Release(ctx context.Context, eventID string) error {
	return d.Client.Del(ctx, d.key(eventID)).Err()
}

func (d *EventDedup) Close() error {
	return d.Client.Close()
}

func (d *EventDedup) key(eventID string) string {
	prefix := d.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	return prefix + eventID
}

var _ ports.EventDedup = (*EventDedup)(nil)
