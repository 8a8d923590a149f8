package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-votr-api/internal/models"
	"movie-votr-api/internal/service"
)

type tokenTable map[string]*models.User

func (t tokenTable) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := t[token]; ok {
		return u, nil
	}
	return nil, &service.Error{Kind: service.ErrUnauthorized, Detail: "Could not validate credentials"}
}

func kindStatus(c fiber.Ctx, err error) error {
	var domainErr *service.Error
	if errors.As(err, &domainErr) {
		switch domainErr.Kind {
		case service.ErrUnauthorized:
			return c.SendStatus(fiber.StatusUnauthorized)
		case service.ErrForbidden:
			return c.SendStatus(fiber.StatusForbidden)
		}
	}
	return fiber.DefaultErrorHandler(c, err)
}

func newApp(final fiber.Handler, chain ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: kindStatus})
	for _, h := range chain {
		app.Use(h)
	}
	app.Get("/", final)
	return app
}

func do(t *testing.T, app *fiber.App, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second, FailOnTimeout: true})
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

func TestRequireUser(t *testing.T) {
	users := tokenTable{
		"alice-token": {ID: 1, Username: "alice"},
		"root-token":  {ID: 2, Username: "root", IsSuperuser: true},
	}
	var seen *models.User
	app := newApp(func(c fiber.Ctx) error {
		seen = CurrentUser(c)
		return c.SendStatus(fiber.StatusOK)
	}, RequireUser(users))

	tests := []struct {
		name    string
		headers map[string]string
		want    int
		user    string
	}{
		{"no token", nil, fiber.StatusUnauthorized, ""},
		{"bearer", map[string]string{"Authorization": "Bearer alice-token"}, fiber.StatusOK, "alice"},
		{"lowercase scheme", map[string]string{"Authorization": "bearer alice-token"}, fiber.StatusOK, "alice"},
		{"access token header", map[string]string{"X-Access-Token": "root-token"}, fiber.StatusOK, "root"},
		{"basic scheme falls back", map[string]string{"Authorization": "Basic abc", "X-Access-Token": "alice-token"}, fiber.StatusOK, "alice"},
		{"unknown token", map[string]string{"Authorization": "Bearer nope"}, fiber.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			resp := do(t, app, tt.headers)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.user != "" {
				require.NotNil(t, seen)
				assert.Equal(t, tt.user, seen.Username)
			}
		})
	}
}

func TestRequireSuperuser(t *testing.T) {
	users := tokenTable{
		"alice-token": {ID: 1, Username: "alice"},
		"root-token":  {ID: 2, Username: "root", IsSuperuser: true},
	}
	app := newApp(func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	}, RequireUser(users), RequireSuperuser())

	assert.Equal(t, fiber.StatusForbidden, do(t, app, map[string]string{"Authorization": "Bearer alice-token"}).StatusCode)
	assert.Equal(t, fiber.StatusNoContent, do(t, app, map[string]string{"Authorization": "Bearer root-token"}).StatusCode)
}

func TestRateLimiterDisabled(t *testing.T) {
	ok := func(c fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	nilClient := newApp(ok, NewRateLimiter(nil, 1, 60).Handler("login"))
	for i := 0; i < 3; i++ {
		assert.Equal(t, fiber.StatusOK, do(t, nilClient, nil).StatusCode)
	}

	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6390"})
	defer rdb.Close()
	zeroMax := newApp(ok, NewRateLimiter(rdb, 0, 60).Handler("login"))
	assert.Equal(t, fiber.StatusOK, do(t, zeroMax, nil).StatusCode)
}

func TestRateLimiterFailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	app := newApp(func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}, NewRateLimiter(rdb, 1, 60).Handler("register"))
	for i := 0; i < 2; i++ {
		resp := do(t, app, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
}

func liveRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "127.0.0.1:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DialTimeout: 200 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func bucketKey(t *testing.T, rdb *redis.Client, bucket string) string {
	t.Helper()
	keys, err := rdb.Keys(context.Background(), "ratelimit:"+bucket+":*").Result()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	t.Cleanup(func() { rdb.Del(context.Background(), keys[0]) })
	return keys[0]
}

func TestRateLimiterWindow(t *testing.T) {
	rdb := liveRedis(t)
	bucket := "test-window-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	app := newApp(func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}, NewRateLimiter(rdb, 2, 60).Handler(bucket))

	resp := do(t, app, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Remaining"))

	ttl, err := rdb.TTL(context.Background(), bucketKey(t, rdb, bucket)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 60*time.Second)

	assert.Equal(t, fiber.StatusOK, do(t, app, nil).StatusCode)
	resp = do(t, app, nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimiterRestoresLostExpiry(t *testing.T) {
	rdb := liveRedis(t)
	ctx := context.Background()
	bucket := "test-expiry-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	app := newApp(func(c fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}, NewRateLimiter(rdb, 5, 30).Handler(bucket))
	assert.Equal(t, fiber.StatusOK, do(t, app, nil).StatusCode)

	key := bucketKey(t, rdb, bucket)
	require.NoError(t, rdb.Persist(ctx, key).Err())

	assert.Equal(t, fiber.StatusOK, do(t, app, nil).StatusCode)
	ttl, err := rdb.TTL(ctx, key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
}
