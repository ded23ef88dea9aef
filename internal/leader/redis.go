package leader

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisElector implements the lease as a Redis key with a TTL. SET NX takes
// the lease; the holder refreshes the TTL on renewal, and expiry gives
// standbys their opening.
type RedisElector struct {
	client *redis.Client
	key    string
	id     string
	ttl    time.Duration
}

func NewRedisElector(client *redis.Client, key string, ttl time.Duration) *RedisElector {
	if key == "" {
		key = "botterverse:director:leader"
	}
	return &RedisElector{
		client: client,
		key:    key,
		id:     instanceID(),
		ttl:    ttl,
	}
}

func (r *RedisElector) Acquire(ctx context.Context) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.key, r.id, r.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}
	holder, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SetNX and Get; the next poll will race for it.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if holder != r.id {
		return false, nil
	}
	// Still ours; refresh the TTL.
	if err := r.client.PExpire(ctx, r.key, r.ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisElector) Release(ctx context.Context) error {
	holder, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if holder != r.id {
		return nil
	}
	return r.client.Del(ctx, r.key).Err()
}
