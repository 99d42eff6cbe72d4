package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/tenderdesk/tenderdesk/internal/auth"
	"github.com/tenderdesk/tenderdesk/internal/identity"
	"github.com/tenderdesk/tenderdesk/internal/logging"
	"github.com/tenderdesk/tenderdesk/internal/notification"
)

func setupSessionApp(t *testing.T) (*fiber.App, *auth.Service, *identity.Service) {
	t.Helper()
	users := identity.NewService(identity.NewMemoryRepository())
	notifier := notification.NewLoggerNotifier(logging.Discard())
	svc := auth.NewService(users, auth.NewMemoryCodeRepository(), auth.NewMemorySessionStore(), notifier, 10*time.Minute, time.Hour)

	app := fiber.New()
	app.Use(Session(svc))
	app.Get("/private", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	return app, svc, users
}

func sessionFor(t *testing.T, svc *auth.Service, users *identity.Service, email, role string) string {
	t.Helper()
	user, err := users.EnsureUser(context.Background(), email, role)
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	token, err := svc.CreateSession(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return token
}

func getStatus(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test %s: %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestRequireUser(t *testing.T) {
	app, svc, users := setupSessionApp(t)

	if status := getStatus(t, app, "/private", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", status)
	}
	if status := getStatus(t, app, "/private", "bogus-token"); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for a garbage token, got %d", status)
	}

	token := sessionFor(t, svc, users, "seller@example.com", identity.RoleSeller)
	if status := getStatus(t, app, "/private", token); status != fiber.StatusOK {
		t.Fatalf("expected 200 with a session, got %d", status)
	}
}

func TestRequireAdmin(t *testing.T) {
	app, svc, users := setupSessionApp(t)

	if status := getStatus(t, app, "/admin", ""); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for anonymous, got %d", status)
	}

	seller := sessionFor(t, svc, users, "seller@example.com", identity.RoleSeller)
	if status := getStatus(t, app, "/admin", seller); status != fiber.StatusForbidden {
		t.Fatalf("expected 403 for a non-admin, got %d", status)
	}

	admin := sessionFor(t, svc, users, "admin@example.com", identity.RoleAdmin)
	if status := getStatus(t, app, "/admin", admin); status != fiber.StatusOK {
		t.Fatalf("expected 200 for an admin, got %d", status)
	}
}

func TestSessionStoreFaultIsNotAnonymous(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	users := identity.NewService(identity.NewMemoryRepository())
	notifier := notification.NewLoggerNotifier(logging.Discard())
	svc := auth.NewService(users, auth.NewMemoryCodeRepository(), auth.NewRedisSessionStore(client), notifier, 10*time.Minute, time.Hour)

	app := fiber.New()
	app.Use(Session(svc))
	app.Get("/private", RequireUser(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token := sessionFor(t, svc, users, "seller@example.com", identity.RoleSeller)
	if status := getStatus(t, app, "/private", token); status != fiber.StatusOK {
		t.Fatalf("expected 200 while the store is up, got %d", status)
	}

	// With the store unreachable the session is unknown, not absent.
	mr.Close()
	if status := getStatus(t, app, "/private", token); status != fiber.StatusInternalServerError {
		t.Fatalf("expected 500 when the session store is down, got %d", status)
	}
}

func TestSessionEndsAfterDestroy(t *testing.T) {
	app, svc, users := setupSessionApp(t)

	token := sessionFor(t, svc, users, "seller@example.com", identity.RoleSeller)
	if status := getStatus(t, app, "/private", token); status != fiber.StatusOK {
		t.Fatalf("expected 200 before destroy, got %d", status)
	}

	if err := svc.Destroy(context.Background(), token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if status := getStatus(t, app, "/private", token); status != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 after destroy, got %d", status)
	}
}
