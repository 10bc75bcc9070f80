package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("client schedule lock not acquired")
)

// Locker is used by the appointment service to serialize conflict checks and
// writes per client.
type Locker interface {
	WithClientLock(ctx context.Context, clientID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisClientLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClientLocker creates a locker that uses a per client Redis key
func NewRedisClientLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisClientLocker{
		client: client,
		ttl:    ttl,
	}
}

func clientLockKey(clientID uuid.UUID) string {
	return fmt.Sprintf("lock:client:%s", clientID.String())
}

func (l *redisClientLocker) WithClientLock(ctx context.Context, clientID uuid.UUID, fn func(ctx context.Context) error) error {
	key := clientLockKey(clientID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire client lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		// release even if ctx was cancelled inside fn
		_ = l.release(context.WithoutCancel(ctx), key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisClientLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release client lock: %w", err)
	}
	return nil
}
