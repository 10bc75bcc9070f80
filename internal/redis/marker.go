package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Marker records that a one-off action happened so repeated runs skip it.
type Marker interface {
	// MarkOnce returns true the first time key is marked within ttl.
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type redisMarker struct {
	client *redis.Client
	prefix string
}

func NewRedisMarker(client *redis.Client, prefix string) Marker {
	return &redisMarker{client: client, prefix: prefix}
}

func (m *redisMarker) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set marker: %w", err)
	}
	return ok, nil
}
