package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "propmgr:ratelimit:"

type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

var redisAllowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

func NewRedisLimiter(addr, password string, db int, now func() time.Time) (*RedisLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if now == nil {
		now = time.Now
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisLimiter{client: client, now: now}, nil
}

// Ping checks connectivity.
func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		return Decision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	windowMillis := window.Milliseconds()
	if windowMillis <= 0 {
		windowMillis = 1000
	}
	result, err := redisAllowScript.Run(ctx, r.client, []string{keyPrefix + key}, windowMillis).Result()
	if err != nil {
		return Decision{}, err
	}
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return Decision{}, errors.New("unexpected redis rate limit response")
	}
	current, ok := values[0].(int64)
	if !ok {
		return Decision{}, errors.New("invalid redis counter response")
	}
	ttlMillis, _ := values[1].(int64)
	resetAt := r.now()
	if ttlMillis > 0 {
		resetAt = resetAt.Add(time.Duration(ttlMillis) * time.Millisecond)
	}
	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   current <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}, nil
}

func (r *RedisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
