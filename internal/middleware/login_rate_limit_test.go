package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

func setupRateLimitApp(t *testing.T, limit int) (*fiber.App, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	app := fiber.New()
	app.Post("/login", LoginRateLimit(cache, limit), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app, func() {
		cache.Close()
		mr.Close()
	}
}

func attemptLogin(t *testing.T, app *fiber.App, email string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestLoginRateLimitBlocksAfterThreshold(t *testing.T) {
	app, cleanup := setupRateLimitApp(t, 3)
	defer cleanup()

	for i := 0; i < 3; i++ {
		if status := attemptLogin(t, app, "seller@example.com"); status != fiber.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i+1, status)
		}
	}
	if status := attemptLogin(t, app, "seller@example.com"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 past the limit, got %d", status)
	}
}

func TestLoginRateLimitIsPerEmail(t *testing.T) {
	app, cleanup := setupRateLimitApp(t, 2)
	defer cleanup()

	attemptLogin(t, app, "first@example.com")
	attemptLogin(t, app, "first@example.com")
	if status := attemptLogin(t, app, "first@example.com"); status != fiber.StatusTooManyRequests {
		t.Fatalf("expected first address to be limited, got %d", status)
	}
	if status := attemptLogin(t, app, "second@example.com"); status != fiber.StatusOK {
		t.Fatalf("expected second address to pass, got %d", status)
	}
}

func TestLoginRateLimitWithoutCacheIsNoop(t *testing.T) {
	app := fiber.New()
	app.Post("/login", LoginRateLimit(nil, 1), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 5; i++ {
		if status := attemptLogin(t, app, "seller@example.com"); status != fiber.StatusOK {
			t.Fatalf("expected pass-through without redis, got %d", status)
		}
	}
}
