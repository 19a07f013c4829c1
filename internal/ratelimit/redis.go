package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  local ttl = redis.call("PTTL", KEYS[1])
  if ttl < 0 then
    ttl = tonumber(ARGV[2])
  end
  return {0, ttl}
end
return {1, 0}
`)

type redisFixedWindowLimiter struct {
	client *redis.Client
	prefix string
}

// NewRedisFixedWindowLimiter returns a limiter shared across processes via
// a Redis counter per key and window.
func NewRedisFixedWindowLimiter(client *redis.Client, prefix string) Limiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &redisFixedWindowLimiter{client: client, prefix: prefix}
}

func (l *redisFixedWindowLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	redisKey := fmt.Sprintf("%s:{%s}", l.prefix, key)
	res, err := redisFixedWindowScript.Run(ctx, l.client, []string{redisKey}, limit, window.Milliseconds()).Slice()
	if err != nil {
		return false, window, err
	}
	if len(res) != 2 {
		return false, window, fmt.Errorf("unexpected limiter script reply: %v", res)
	}
	allowed, _ := res[0].(int64)
	ttlMS, _ := res[1].(int64)
	if allowed == 1 {
		return true, 0, nil
	}
	return false, time.Duration(ttlMS) * time.Millisecond, nil
}
