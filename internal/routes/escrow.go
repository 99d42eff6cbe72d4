package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/escrow"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

// RegisterEscrowRoutes wires escrow endpoints behind a session.
func RegisterEscrowRoutes(r fiber.Router, h *escrow.Handler) {
	group := r.Group("/escrow", middleware.RequireUser())
	group.Post("/create", h.Create)
	group.Post("/fund", h.Fund)
	group.Post("/release", h.Release)
	group.Post("/refund", h.Refund)
}
