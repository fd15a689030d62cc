package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// reserveScript refuses a reservation when the result is already cached,
// otherwise claims the pending key with SET NX.
var reserveScript = goredis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
if redis.call("SET", KEYS[2], "1", "NX", "PX", ARGV[1]) then
	return 1
end
return 0
`)

// IdempotencyCache implements ports.IdempotencyCache using Redis.
type IdempotencyCache struct {
	client        goredis.UniversalClient
	prefix        string
	pendingPrefix string
}

// NewIdempotencyCache creates a new Redis-backed idempotency cache.
func NewIdempotencyCache(client goredis.UniversalClient) *IdempotencyCache {
	return &IdempotencyCache{
		client:        client,
		prefix:        "idempotency:",
		pendingPrefix: "idempotency:pending:",
	}
}

// Get retrieves a cached response by idempotency key.
// Returns nil, nil if the key does not exist.
func (c *IdempotencyCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis idempotency get: %w", err)
	}
	return val, nil
}

// Set stores a response in the idempotency cache with TTL.
func (c *IdempotencyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis idempotency set: %w", err)
	}
	return nil
}

// Reserve marks key as in flight for ttl. It returns false when another
// request holds the reservation or the result is already cached.
func (c *IdempotencyCache) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	res, err := reserveScript.Run(ctx, c.client,
		[]string{c.prefix + key, c.pendingPrefix + key},
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis idempotency reserve: %w", err)
	}
	return res == 1, nil
}

// Release drops a reservation so the key can be retried.
func (c *IdempotencyCache) Release(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.pendingPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis idempotency release: %w", err)
	}
	return nil
}
