package tender

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/middleware"
)

var validate = validator.New()

// Handler exposes tender, bid and milestone endpoints.
type Handler struct {
	svc    *Service
	audits *audit.Service
}

// NewHandler builds the tender handler.
func NewHandler(svc *Service, audits *audit.Service) *Handler {
	return &Handler{svc: svc, audits: audits}
}

type createRequest struct {
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description"`
	Profession   string  `json:"profession"`
	Budget       float64 `json:"budget"`
	Deadline     string  `json:"deadline"`
	ContactEmail string  `json:"contact_email" validate:"required,email"`
	Consent      bool    `json:"consent"`
}

// Create publishes a tender. Anonymous submissions are allowed; consent is not optional.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	t, err := h.svc.Create(c.UserContext(), CreateInput{
		Title:        req.Title,
		Description:  req.Description,
		Profession:   req.Profession,
		Budget:       req.Budget,
		Deadline:     req.Deadline,
		ContactEmail: req.ContactEmail,
		Consent:      req.Consent,
	})
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "tender_create", c.IP(), map[string]string{"tender_id": t.ID})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true, "tender": tenderResponse(t)})
}

// List returns every tender with every bid.
func (h *Handler) List(c *fiber.Ctx) error {
	tenders, bids, err := h.svc.List(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "could not list tenders")
	}
	outTenders := make([]fiber.Map, 0, len(tenders))
	for _, t := range tenders {
		outTenders = append(outTenders, tenderResponse(t))
	}
	outBids := make([]fiber.Map, 0, len(bids))
	for _, b := range bids {
		outBids = append(outBids, bidResponse(b))
	}
	return c.JSON(fiber.Map{"tenders": outTenders, "bids": outBids})
}

// Professions lists the profession categories with automated agents.
func (h *Handler) Professions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"professions": Professions()})
}

type updateStatusRequest struct {
	TenderID string `json:"tender_id" validate:"required"`
	Status   string `json:"status" validate:"required"`
}

// UpdateStatus moves a tender forward. Owner-or-admin.
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req updateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	t, err := h.svc.UpdateStatus(c.UserContext(), req.TenderID, user, req.Status)
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "tender_status", c.IP(), map[string]string{"tender_id": t.ID, "status": string(t.Status)})
	return c.JSON(fiber.Map{"ok": true, "tender": tenderResponse(t)})
}

type awardRequest struct {
	TenderID   string `json:"tender_id" validate:"required"`
	BidderName string `json:"bidder_name" validate:"required"`
}

// Award marks the winning bidder. Owner-or-admin.
func (h *Handler) Award(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req awardRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	t, err := h.svc.Award(c.UserContext(), req.TenderID, user, req.BidderName)
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "tender_award", c.IP(), map[string]string{"tender_id": t.ID, "bidder": t.AwardedTo})
	return c.JSON(fiber.Map{"ok": true, "tender": tenderResponse(t)})
}

type autoBidRequest struct {
	TenderID   string `json:"tender_id" validate:"required"`
	Profession string `json:"profession" validate:"required"`
}

// AutoBid lets a profession agent bid on a tender. No session needed.
func (h *Handler) AutoBid(c *fiber.Ctx) error {
	var req autoBidRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	b, err := h.svc.AutoBid(c.UserContext(), req.TenderID, req.Profession)
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "auto_bid", c.IP(), map[string]string{"tender_id": b.TenderID, "profession": req.Profession})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true, "bid": bidResponse(b)})
}

type addMilestoneRequest struct {
	TenderID string  `json:"tender_id" validate:"required"`
	Title    string  `json:"title" validate:"required"`
	Amount   float64 `json:"amount"`
	DueDate  string  `json:"due_date"`
}

// AddMilestone attaches a milestone to a tender. Owner-or-admin.
func (h *Handler) AddMilestone(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req addMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.AddMilestone(c.UserContext(), req.TenderID, user, MilestoneInput{
		Title:   req.Title,
		Amount:  req.Amount,
		DueDate: req.DueDate,
	})
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "milestone_add", c.IP(), map[string]string{"tender_id": m.TenderID, "milestone_id": m.ID})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"ok": true, "milestone": milestoneResponse(m)})
}

type updateMilestoneRequest struct {
	MilestoneID string `json:"milestone_id" validate:"required"`
	Status      string `json:"status" validate:"required"`
}

// UpdateMilestone moves a milestone forward. Owner-or-admin.
func (h *Handler) UpdateMilestone(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "auth required")
	}
	var req updateMilestoneRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid JSON")
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	m, err := h.svc.UpdateMilestoneStatus(c.UserContext(), req.MilestoneID, user, req.Status)
	if err != nil {
		return mapError(err)
	}

	h.audits.Record(c.UserContext(), "milestone_status", c.IP(), map[string]string{"milestone_id": m.ID, "status": string(m.Status)})
	return c.JSON(fiber.Map{"ok": true, "milestone": milestoneResponse(m)})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrUnknownTender), errors.Is(err, ErrUnknownMilestone):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrForbidden):
		return fiber.NewError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrConsentRequired), errors.Is(err, ErrInvalidStatus):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, "tender operation failed")
	}
}

func tenderResponse(t Tender) fiber.Map {
	return fiber.Map{
		"id":          t.ID,
		"title":       t.Title,
		"description": t.Description,
		"profession":  t.Profession,
		"budget":      t.Budget,
		"deadline":    t.Deadline,
		"owner_email": t.OwnerEmail,
		"status":      t.Status,
		"awarded_to":  t.AwardedTo,
		"created_at":  t.CreatedAt.Format(time.RFC3339),
	}
}

func bidResponse(b Bid) fiber.Map {
	return fiber.Map{
		"id":          b.ID,
		"tender_id":   b.TenderID,
		"bidder_name": b.BidderName,
		"amount":      b.Amount,
		"message":     b.Message,
		"created_at":  b.CreatedAt.Format(time.RFC3339),
	}
}

func milestoneResponse(m Milestone) fiber.Map {
	return fiber.Map{
		"id":        m.ID,
		"tender_id": m.TenderID,
		"title":     m.Title,
		"amount":    m.Amount,
		"due_date":  m.DueDate,
		"status":    m.Status,
	}
}
