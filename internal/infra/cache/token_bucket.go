package cache

import (
	"context"
	"time"

	"tienda/config"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills whole intervals, then takes one token. State lives in a hash per key.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
	tokens = capacity
	last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + (intervals * refill_tokens))
		last_refill = last_refill + (intervals * interval_ms)
	end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateDecision is the outcome of one Allow call.
type RateDecision struct {
	Allowed    bool
	Limit      int
	Remaining  int64
	RetryAfter time.Duration
}

// TokenBucket is a Redis-backed token bucket shared by every API instance.
type TokenBucket struct {
	client         *redis.Client
	prefix         string
	capacity       int
	refillTokens   int
	refillInterval time.Duration
	ttl            time.Duration
	now            func() time.Time
}

// NewTokenBucket returns nil when rate limiting is disabled or Redis is unavailable.
func NewTokenBucket(cfg *config.Config, client *redis.Client) *TokenBucket {
	rl := cfg.RateLimit
	if rl == nil || !rl.Enabled || client == nil {
		return nil
	}

	bucket := &TokenBucket{
		client:         client,
		prefix:         rl.Prefix,
		capacity:       max(rl.Capacity, 1),
		refillTokens:   max(rl.RefillTokens, 1),
		refillInterval: rl.RefillInterval,
		ttl:            rl.TTL,
		now:            time.Now,
	}
	if bucket.prefix == "" {
		bucket.prefix = "rl"
	}
	if bucket.refillInterval <= 0 {
		bucket.refillInterval = time.Second
	}
	// an idle key must outlive a full refill
	bucket.ttl = max(bucket.ttl, 5*bucket.refillInterval)

	return bucket
}

// Allow takes one token from the bucket identified by key.
func (b *TokenBucket) Allow(ctx context.Context, key string) (RateDecision, error) {
	args := []any{
		b.now().UnixMilli(),
		b.capacity,
		b.refillTokens,
		b.refillInterval.Milliseconds(),
		int64(b.ttl / time.Second),
	}

	vals, err := tokenBucketScript.Run(ctx, b.client, []string{b.prefix + ":" + key}, args...).Int64Slice()
	if err != nil {
		return RateDecision{}, errors.Wrap(err, "rate limit script failed")
	}
	if len(vals) != 3 {
		return RateDecision{}, errors.Errorf("rate limit script returned %d values", len(vals))
	}

	return RateDecision{
		Allowed:    vals[0] == 1,
		Limit:      b.capacity,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}
