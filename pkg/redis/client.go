package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// pingTimeout bounds the connectivity check during Init.
const pingTimeout = 5 * time.Second

// client is the process-wide connection backing the replay cache. The
// gateway treats Redis as a disposable fast path; the relational
// idempotency store stays authoritative.
var client *redis.Client

// Init connects to Redis from a redis:// URL and verifies the connection
// with a bounded ping.
func Init(url, password string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return err
	}
	if password != "" {
		opts.Password = password
	}

	c := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		return err
	}

	client = c
	return nil
}

// SetClient swaps the backing client. Tests point this at a miniredis
// instance and restore the previous client afterwards.
func SetClient(c *redis.Client) {
	client = c
}

// GetClient returns the current backing client.
func GetClient() *redis.Client {
	return client
}

// Set writes a value with a TTL.
func Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return client.Set(ctx, key, value, expiration).Err()
}

// Get reads a value; a miss returns redis.Nil.
func Get(ctx context.Context, key string) (string, error) {
	return client.Get(ctx, key).Result()
}

// Del drops a key.
func Del(ctx context.Context, key string) error {
	return client.Del(ctx, key).Err()
}
