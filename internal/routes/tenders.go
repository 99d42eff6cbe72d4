package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/tender"
)

// RegisterTenderRoutes wires tender, bid and milestone endpoints.
// Creation and bidding are deliberately open to anonymous callers.
func RegisterTenderRoutes(r fiber.Router, h *tender.Handler) {
	r.Get("/professions", h.Professions)
	r.Get("/tenders", h.List)
	r.Post("/tenders", h.Create)
	r.Post("/tenders/update-status", h.UpdateStatus)
	r.Post("/tenders/award", h.Award)
	r.Post("/auto-bid", h.AutoBid)
	r.Post("/milestones/add", h.AddMilestone)
	r.Post("/milestones/update", h.UpdateMilestone)
}
