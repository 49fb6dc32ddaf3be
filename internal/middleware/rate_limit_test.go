package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func limitedApp(userID uint, client *redis.Client) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", userID)
		return c.Next()
	})
	app.Use(NewRateLimiter(client, 2, time.Minute).Handler("grades"))
	app.Post("/grades", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app
}

func hit(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/grades", nil))
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRateLimitSharesCountersThroughRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	first := limitedApp(10, client)
	second := limitedApp(10, client)

	require.Equal(t, fiber.StatusCreated, hit(t, first))
	require.Equal(t, fiber.StatusCreated, hit(t, second))
	require.Equal(t, fiber.StatusTooManyRequests, hit(t, first))

	require.True(t, server.Exists("gema:ratelimit:grades:user:10"))

	other := limitedApp(11, client)
	require.Equal(t, fiber.StatusCreated, hit(t, other))

	require.NoError(t, NewRateLimiter(client, 2, time.Minute).Close())
}

func TestRedisStorageRoundTripAndReset(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	storage := NewRedisStorage(client, "test:")

	missing, err := storage.Get("absent")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, storage.Set("a", []byte("1"), time.Minute))
	require.NoError(t, storage.Set("b", []byte("2"), 0))

	value, err := storage.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)

	require.NoError(t, storage.Delete("a"))
	value, err = storage.Get("a")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, client.Set(t.Context(), "other:key", "x", 0).Err())
	require.NoError(t, storage.Reset())
	require.False(t, server.Exists("test:b"))
	require.True(t, server.Exists("other:key"))
}

func TestRateLimitFallsBackToMemory(t *testing.T) {
	app := limitedApp(20, nil)
	require.Equal(t, fiber.StatusCreated, hit(t, app))
	require.Equal(t, fiber.StatusCreated, hit(t, app))
	require.Equal(t, fiber.StatusTooManyRequests, hit(t, app))
}
