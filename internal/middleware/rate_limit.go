package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/gema-classroom-api/internal/utils"
)

const storageTimeout = 2 * time.Second

// RateLimiter hands out per-route limiter middleware sharing one counter store.
type RateLimiter struct {
	max     int
	window  time.Duration
	storage fiber.Storage
}

// NewRateLimiter builds a limiter. A nil redis client keeps the counters in
// process memory.
func NewRateLimiter(client *redis.Client, max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 10
	}
	if window <= 0 {
		window = time.Second
	}

	limiterInstance := &RateLimiter{max: max, window: window}
	if client != nil {
		limiterInstance.storage = NewRedisStorage(client, "gema:ratelimit:")
	}
	return limiterInstance
}

// Handler returns the middleware for one route group. Callers are keyed by
// user id, falling back to the remote address.
func (r *RateLimiter) Handler(identifier string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        r.max,
		Expiration: r.window,
		Storage:    r.storage,
		KeyGenerator: func(c *fiber.Ctx) string {
			if id, ok := c.Locals("user_id").(uint); ok && id != 0 {
				return fmt.Sprintf("%s:user:%d", identifier, id)
			}
			return fmt.Sprintf("%s:ip:%s", identifier, c.IP())
		},
		LimitReached: func(c *fiber.Ctx) error {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(r.window.Seconds())))
			return utils.Fail(c, fiber.StatusTooManyRequests, "rate limit exceeded", nil)
		},
	})
}

// Close releases the counter store.
func (r *RateLimiter) Close() error {
	if r.storage == nil {
		return nil
	}
	return r.storage.Close()
}

// RedisStorage implements fiber.Storage on top of a shared redis client so
// limits hold across API replicas.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage constructs a storage that namespaces every key with prefix.
func NewRedisStorage(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return value, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	return s.client.Set(ctx, s.prefix+key, val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	return s.client.Del(ctx, s.prefix+key).Err()
}

// Reset removes every key under the storage prefix.
func (s *RedisStorage) Reset() error {
	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the redis client is owned by the caller.
func (s *RedisStorage) Close() error {
	return nil
}
