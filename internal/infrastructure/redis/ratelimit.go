package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// hitScript increments the counter and starts the window on the first hit.
// A key that somehow lost its expiry gets a fresh window.
var hitScript = goredis.NewScript(`
local c = redis.call('INCR', KEYS[1])
if c == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {c, ttl}
`)

// RateLimitStore keeps fixed-window counters in Redis so that every API
// instance shares them.
type RateLimitStore struct {
	client goredis.Scripter
	now    func() time.Time
}

func NewRateLimitStore(client goredis.Scripter) *RateLimitStore {
	return &RateLimitStore{client: client, now: time.Now}
}

func (s *RateLimitStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	res, err := hitScript.Run(ctx, s.client, []string{keyPrefix + key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("rate limit script: %w", err)
	}
	count, ttl, err := parseHit(res)
	if err != nil {
		return 0, time.Time{}, err
	}
	return count, s.now().Add(ttl), nil
}

func parseHit(res []int64) (int64, time.Duration, error) {
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script: unexpected reply length %d", len(res))
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}
