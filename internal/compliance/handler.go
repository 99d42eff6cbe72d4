package compliance

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/identity"
)

var validate = validator.New()

// Handler exposes export, erasure and admin analytics endpoints.
type Handler struct {
	svc    *Service
	audits *audit.Service
}

// NewHandler builds the compliance handler.
func NewHandler(svc *Service, audits *audit.Service) *Handler {
	return &Handler{svc: svc, audits: audits}
}

// Export returns every record referencing the e-mail in the query string.
func (h *Handler) Export(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return fiber.NewError(http.StatusBadRequest, "email is required")
	}
	out, err := h.svc.Export(c.UserContext(), email)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "export failed")
	}
	return c.JSON(fiber.Map{
		"user":          out.User,
		"tenders_owned": out.TendersOwned,
		"milestones":    out.Milestones,
		"bids_by_name":  out.BidsByName,
		"kyc":           out.Kyc,
		"escrows":       out.Escrows,
	})
}

type erasureRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RequestErasure queues a deletion intent for manual action.
func (h *Handler) RequestErasure(c *fiber.Ctx) error {
	var req erasureRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	queued, err := h.svc.RequestErasure(c.UserContext(), req.Email)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "erasure request failed")
	}

	h.audits.Record(c.UserContext(), "erasure_request", c.IP(), map[string]string{
		"email_hash": audit.HashValue(identity.NormalizeEmail(req.Email)),
	})
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"ok": true, "request_id": queued.ID, "status": queued.Status})
}

// Analytics returns counts and state distributions. Admin-only route.
func (h *Handler) Analytics(c *fiber.Ctx) error {
	stats, err := h.svc.Summarize(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "analytics failed")
	}
	return c.JSON(stats)
}
