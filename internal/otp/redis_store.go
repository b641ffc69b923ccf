package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otp:v1:"

// consumeScript runs the whole check-and-consume step inside Redis so two
// concurrent verifications of the same code cannot both succeed.
var consumeScript = redis.NewScript(`
local h = redis.call('HMGET', KEYS[1], 'digest', 'expires_at', 'attempts')
if not h[1] then
  return 'not_found'
end
if tonumber(ARGV[2]) >= tonumber(h[2]) then
  return 'expired'
end
if h[1] ~= ARGV[1] then
  local left = redis.call('HINCRBY', KEYS[1], 'attempts', -1)
  if left <= 0 then
    redis.call('DEL', KEYS[1])
  end
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
return 'ok'
`)

// RedisStore keeps challenges in Redis hashes.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore builds a Redis-backed challenge store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, email string, ch Challenge, retain time.Duration) error {
	key := keyPrefix + email
	ttl := time.Until(ch.ExpiresAt) + retain
	if ttl <= 0 {
		ttl = retain
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			"digest", ch.Digest,
			"expires_at", ch.ExpiresAt.UnixMilli(),
			"attempts", ch.Attempts,
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, email, digest string, now time.Time) error {
	res, err := consumeScript.Run(ctx, s.client, []string{keyPrefix + email}, digest, now.UnixMilli()).Text()
	if err != nil {
		return fmt.Errorf("consume otp challenge: %w", err)
	}
	switch res {
	case "ok":
		return nil
	case "expired":
		return ErrExpired
	case "mismatch":
		return ErrMismatch
	default:
		return ErrNotFound
	}
}
