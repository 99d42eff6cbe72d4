package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/compliance"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

// RegisterComplianceRoutes wires export, erasure and admin analytics.
func RegisterComplianceRoutes(r fiber.Router, h *compliance.Handler) {
	r.Get("/export", h.Export)
	r.Post("/privacy/erasure", h.RequestErasure)
	r.Get("/admin/analytics", middleware.RequireAdmin(), h.Analytics)
}
