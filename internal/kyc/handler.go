package kyc

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/identity"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

var validate = validator.New()

// Handler exposes KYC submission and admin approval.
type Handler struct {
	svc    *Service
	audits *audit.Service
}

// NewHandler builds the KYC handler.
func NewHandler(svc *Service, audits *audit.Service) *Handler {
	return &Handler{svc: svc, audits: audits}
}

type submitRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Country  string `json:"country"`
	DocType  string `json:"doc_type"`
	DocID    string `json:"doc_id" validate:"required"`
}

// Submit files a pending KYC record for the current user.
func (h *Handler) Submit(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	record, err := h.svc.Submit(c.UserContext(), user, SubmitInput{
		FullName: req.FullName,
		Country:  req.Country,
		DocType:  req.DocType,
		DocID:    req.DocID,
	})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "kyc submission failed")
	}

	h.audits.Record(c.UserContext(), "kyc_submit", c.IP(), map[string]string{"user": user.ID})
	return c.JSON(fiber.Map{"ok": true, "kyc": recordResponse(record)})
}

type approveRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Approve flips the e-mail's records to approved. Admin-only route.
func (h *Handler) Approve(c *fiber.Ctx) error {
	var req approveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.Approve(c.UserContext(), req.Email); err != nil {
		return fiber.NewError(http.StatusInternalServerError, "kyc approval failed")
	}

	h.audits.Record(c.UserContext(), "kyc_approve", c.IP(), map[string]string{
		"email_hash": audit.HashValue(identity.NormalizeEmail(req.Email)),
	})
	return c.JSON(fiber.Map{"ok": true})
}

func recordResponse(r Record) fiber.Map {
	return fiber.Map{
		"user_id":      r.UserID,
		"email":        r.Email,
		"full_name":    r.FullName,
		"country":      r.Country,
		"doc_type":     r.DocType,
		"doc_id_hash":  r.DocIDHash,
		"status":       r.Status,
		"submitted_at": r.SubmittedAt.Format(time.RFC3339),
	}
}
