package state

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "authgate:state:"

// RedisStore is the Store implementation for multi-instance deployments.
// Expiry is delegated to server-side TTLs, so SweepExpired is a no-op and
// the simulated-clock behavior of MemoryStore does not apply here.
type RedisStore[T any] struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore[T any](client *redis.Client, ttl time.Duration) *RedisStore[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore[T]{client: client, ttl: ttl}
}

// Create implements Store.
func (r *RedisStore[T]) Create(ctx context.Context, payload T) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state payload: %w", err)
	}
	for {
		var raw [16]byte
		if _, err := rand.Read(raw[:]); err != nil {
			return "", fmt.Errorf("failed to generate state token: %w", err)
		}
		token := base64.RawURLEncoding.EncodeToString(raw[:])
		ok, err := r.client.SetNX(ctx, redisKeyPrefix+token, b, r.ttl).Result()
		if err != nil {
			return "", fmt.Errorf("failed to store state entry: %w", err)
		}
		if ok {
			return token, nil
		}
	}
}

// Get implements Store.
func (r *RedisStore[T]) Get(ctx context.Context, token string) (T, bool) {
	var zero T
	b, err := r.client.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		return zero, false
	}
	return decodePayload[T](b)
}

// GetAndDelete implements Store. GETDEL makes the consumption atomic on
// the Redis side.
func (r *RedisStore[T]) GetAndDelete(ctx context.Context, token string) (T, bool) {
	var zero T
	b, err := r.client.GetDel(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		return zero, false
	}
	return decodePayload[T](b)
}

// Delete implements Store.
func (r *RedisStore[T]) Delete(ctx context.Context, token string) {
	r.client.Del(ctx, redisKeyPrefix+token)
}

// SweepExpired implements Store.
func (r *RedisStore[T]) SweepExpired(context.Context) {}

func decodePayload[T any](b []byte) (T, bool) {
	var payload T
	if err := json.Unmarshal(b, &payload); err != nil {
		var zero T
		return zero, false
	}
	return payload, true
}
