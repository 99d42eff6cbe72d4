package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/kyc"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

// RegisterKycRoutes wires KYC intake and admin approval.
func RegisterKycRoutes(r fiber.Router, h *kyc.Handler) {
	r.Post("/kyc/submit", middleware.RequireUser(), h.Submit)
	r.Post("/admin/kyc/approve", middleware.RequireAdmin(), h.Approve)
}
