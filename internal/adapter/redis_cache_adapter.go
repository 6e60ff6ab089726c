package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/domain"
	"github.com/Kelajak-Mediklari/kelajak-mediklari-backend/internal/util"

	"github.com/redis/go-redis/v9"
)

// unlockScript deletes the lock only if it still holds the caller's token.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisCacheAdapter implements domain.Cache and domain.Locker using a Redis client.
type RedisCacheAdapter struct {
	client   *redis.Client
	newToken func() string
}

// NewRedisCacheAdapter creates a new instance of RedisCacheAdapter.
// It expects a connected *redis.Client.
func NewRedisCacheAdapter(client *redis.Client) *RedisCacheAdapter {
	return &RedisCacheAdapter{client: client, newToken: util.NewULID}
}

// Get retrieves an item from the Redis cache.
// It translates redis.Nil to domain.ErrCacheMiss.
func (r *RedisCacheAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Set adds an item to the Redis cache.
func (r *RedisCacheAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete removes an item from the Redis cache.
func (r *RedisCacheAdapter) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping checks the health of the Redis server.
func (r *RedisCacheAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// TryLock sets key with a fresh token if it is absent. An empty token means
// the lease is held elsewhere.
func (r *RedisCacheAdapter) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := r.newToken()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Unlock releases key if token still owns it. A lease that already expired
// and was taken by someone else is left alone.
func (r *RedisCacheAdapter) Unlock(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return r.client.Eval(ctx, unlockScript, []string{key}, token).Err()
}
