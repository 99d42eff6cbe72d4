package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tenderdesk/tenderdesk/internal/logging"
)

func setupIdempotencyApp(t *testing.T) (*fiber.App, *int, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	calls := 0
	app.Post("/escrow/fund", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"state": "funded", "calls": calls})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}
	return app, &calls, cleanup
}

func postFund(t *testing.T, app *fiber.App, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/escrow/fund", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode, string(body)
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	if status, _ := postFund(t, app, ""); status != fiber.StatusCreated {
		t.Fatalf("expected %d, got %d", fiber.StatusCreated, status)
	}
	if status, _ := postFund(t, app, ""); status != fiber.StatusCreated {
		t.Fatalf("expected %d, got %d", fiber.StatusCreated, status)
	}
	if *calls != 2 {
		t.Fatalf("expected handler to run twice without a key, ran %d times", *calls)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	status, body := postFund(t, app, "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected %d, got %d", fiber.StatusCreated, status)
	}

	status2, body2 := postFund(t, app, "abc123")
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected replayed status %d, got %d", fiber.StatusCreated, status2)
	}
	if body2 != body {
		t.Fatalf("expected replayed body %s, got %s", body, body2)
	}
	if *calls != 1 {
		t.Fatalf("expected handler to run once, ran %d times", *calls)
	}
}

func TestIdempotencyDistinctKeysRunSeparately(t *testing.T) {
	app, calls, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	postFund(t, app, "key-a")
	postFund(t, app, "key-b")
	if *calls != 2 {
		t.Fatalf("expected two handler runs for distinct keys, got %d", *calls)
	}
}
