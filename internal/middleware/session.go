package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/auth"
	"github.com/tenderdesk/tenderdesk/internal/identity"
)

const userLocal = "current_user"

// Session resolves the session cookie to a user and stashes it in Locals.
// Absent or unresolvable tokens pass through as anonymous; RequireUser and
// RequireAdmin decide whether that is acceptable per route. A session
// store fault is not anonymity: it surfaces as a server error rather than
// silently logging valid sessions out.
func Session(svc *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(auth.SessionCookie)
		if token != "" {
			user, err := svc.Resolve(c.UserContext(), token)
			switch {
			case err == nil:
				c.Locals(userLocal, user)
			case errors.Is(err, auth.ErrNoSession):
				// anonymous
			default:
				return fiber.NewError(http.StatusInternalServerError, "session lookup failed")
			}
		}
		return c.Next()
	}
}

// RequireUser rejects anonymous requests with 401, distinct from 403 so
// clients can tell "log in" from "not allowed".
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := CurrentUser(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, "auth required")
		}
		return c.Next()
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "auth required")
		}
		if !user.IsAdmin() {
			return fiber.NewError(http.StatusForbidden, "admin only")
		}
		return c.Next()
	}
}

// CurrentUser returns the resolved user for the request, if any.
func CurrentUser(c *fiber.Ctx) (identity.User, bool) {
	user, ok := c.Locals(userLocal).(identity.User)
	return user, ok
}
