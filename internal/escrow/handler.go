package escrow

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

var validate = validator.New()

// Handler exposes escrow endpoints. All of them require a session.
type Handler struct {
	svc    *Service
	audits *audit.Service
}

// NewHandler builds the escrow handler.
func NewHandler(svc *Service, audits *audit.Service) *Handler {
	return &Handler{svc: svc, audits: audits}
}

type createRequest struct {
	TenderID  string  `json:"tender_id" validate:"required"`
	PayeeName string  `json:"payee_name" validate:"required"`
	Amount    float64 `json:"amount" validate:"gt=0"`
}

// Create opens an escrow with the caller as payer.
func (h *Handler) Create(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	e, err := h.svc.Create(c.UserContext(), req.TenderID, user, req.PayeeName, req.Amount)
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "escrow_create", c.IP(), map[string]string{"escrow": e.ID})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true, "escrow": escrowResponse(e)})
}

type transitionRequest struct {
	EscrowID string `json:"escrow_id" validate:"required"`
}

// Fund moves the escrow to funded.
func (h *Handler) Fund(c *fiber.Ctx) error {
	return h.transition(c, "escrow_fund", h.svc.Fund)
}

// Release moves the escrow to released.
func (h *Handler) Release(c *fiber.Ctx) error {
	return h.transition(c, "escrow_release", h.svc.Release)
}

// Refund moves the escrow to refunded.
func (h *Handler) Refund(c *fiber.Ctx) error {
	return h.transition(c, "escrow_refund", h.svc.Refund)
}

func (h *Handler) transition(c *fiber.Ctx, event string, apply func(ctx context.Context, id string) (Escrow, error)) error {
	if _, ok := middleware.CurrentUser(c); !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req transitionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	e, err := apply(c.UserContext(), req.EscrowID)
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), event, c.IP(), map[string]string{"escrow": e.ID})
	return c.JSON(fiber.Map{"ok": true, "escrow": escrowResponse(e)})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownEscrow):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "escrow operation failed")
	}
}

func escrowResponse(e Escrow) fiber.Map {
	history := make([]fiber.Map, 0, len(e.History))
	for _, entry := range e.History {
		history = append(history, fiber.Map{
			"ts":    entry.Timestamp.Format(time.RFC3339),
			"event": entry.Event,
		})
	}
	return fiber.Map{
		"id":          e.ID,
		"tender_id":   e.TenderID,
		"payer_email": e.PayerEmail,
		"payee_name":  e.PayeeName,
		"amount":      e.Amount,
		"state":       e.State,
		"history":     history,
	}
}
