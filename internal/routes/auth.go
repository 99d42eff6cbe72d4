package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/auth"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
	"github.com/tenderdesk/tenderdesk/internal/twofactor"
)

// RegisterAuthRoutes wires authentication and second-factor endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, tf *twofactor.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/request-code", rateLimiter, h.RequestCode)
	group.Post("/login", rateLimiter, h.Login)
	group.Get("/whoami", h.Whoami)
	group.Post("/logout", h.Logout)

	twofa := group.Group("/2fa", middleware.RequireUser())
	twofa.Post("/setup", tf.Setup)
	twofa.Post("/enable", tf.Enable)
	twofa.Post("/verify", tf.Verify)
}
