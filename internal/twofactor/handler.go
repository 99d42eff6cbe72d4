package twofactor

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

var validate = validator.New()

// Handler exposes the 2FA endpoints. All require a session.
type Handler struct {
	svc    *Service
	audits *audit.Service
}

// NewHandler builds the two-factor handler.
func NewHandler(svc *Service, audits *audit.Service) *Handler {
	return &Handler{svc: svc, audits: audits}
}

// Setup provisions (or re-reads) the caller's TOTP secret.
func (h *Handler) Setup(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}

	result, err := h.svc.Setup(c.UserContext(), user.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "2fa setup failed")
	}

	h.audits.Record(c.UserContext(), "2fa_setup", c.IP(), map[string]string{"user": user.ID})
	return c.JSON(fiber.Map{"ok": true, "secret": result.Secret, "uri": result.URI})
}

type codeRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// Enable turns 2FA on after a successful code check.
func (h *Handler) Enable(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.Enable(c.UserContext(), user.ID, req.Code); err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "2fa_enable", c.IP(), map[string]string{"user": user.ID})
	return c.JSON(fiber.Map{"ok": true, "enabled": true})
}

// Verify checks a code for an enabled user. No state change, no audit.
func (h *Handler) Verify(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req codeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.Verify(c.UserContext(), user.ID, req.Code); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"ok": true, "valid": true})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidCode):
		return fiber.NewError(http.StatusUnauthorized, ErrInvalidCode.Error())
	case errors.Is(err, ErrNotProvisioned), errors.Is(err, ErrNotEnabled):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "2fa operation failed")
	}
}
