package tender

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tenderdesk/tenderdesk/internal/identity"
)

var (
	// ErrConsentRequired rejects tender creation without an explicit consent flag.
	ErrConsentRequired = errors.New("consent required")
	// ErrForbidden rejects mutations by callers who are neither owner nor admin.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidStatus rejects values outside the status enumeration.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrInvalidTransition rejects backward or no-op status moves.
	ErrInvalidTransition = errors.New("invalid status transition")
)

const (
	maxTitleLen    = 120
	maxDescLen     = 5000
	maxDeadlineLen = 40
	maxNameLen     = 160
	maxMessageLen  = 2000
)

// Service drives the tender, bid and milestone lifecycles.
type Service struct {
	repo Repository
}

// NewService builds a tender service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries a tender submission.
type CreateInput struct {
	Title        string
	Description  string
	Profession   string
	Budget       float64
	Deadline     string
	ContactEmail string
	Consent      bool
}

// Create publishes a tender. Consent is a hard invariant: without it the
// submission fails no matter what else is set.
func (s *Service) Create(ctx context.Context, input CreateInput) (Tender, error) {
	if !input.Consent {
		return Tender{}, ErrConsentRequired
	}

	t := Tender{
		ID:          uuid.New().String(),
		Title:       clip(input.Title, maxTitleLen),
		Description: clip(input.Description, maxDescLen),
		Profession:  input.Profession,
		Budget:      input.Budget,
		Deadline:    clip(input.Deadline, maxDeadlineLen),
		OwnerEmail:  identity.NormalizeEmail(input.ContactEmail),
		Status:      StatusOpen,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateTender(ctx, t); err != nil {
		return Tender{}, err
	}
	return t, nil
}

// Get fetches one tender.
func (s *Service) Get(ctx context.Context, id string) (Tender, error) {
	return s.repo.GetTender(ctx, id)
}

// List returns all tenders and all bids, the shape the portal renders.
func (s *Service) List(ctx context.Context) ([]Tender, []Bid, error) {
	tenders, err := s.repo.ListTenders(ctx)
	if err != nil {
		return nil, nil, err
	}
	bids, err := s.repo.ListBids(ctx)
	if err != nil {
		return nil, nil, err
	}
	return tenders, bids, nil
}

// UpdateStatus moves a tender forward through its lifecycle. Only the
// owner or an admin may call it.
func (s *Service) UpdateStatus(ctx context.Context, tenderID string, caller identity.User, newStatus string) (Tender, error) {
	t, err := s.repo.GetTender(ctx, tenderID)
	if err != nil {
		return Tender{}, err
	}
	if !canMutate(caller, t) {
		return Tender{}, ErrForbidden
	}

	target := Status(newStatus)
	targetRank, ok := statusRank[target]
	if !ok {
		return Tender{}, ErrInvalidStatus
	}
	if targetRank <= statusRank[t.Status] {
		return Tender{}, ErrInvalidTransition
	}

	t.Status = target
	if err := s.repo.UpdateTender(ctx, t); err != nil {
		return Tender{}, err
	}
	return t, nil
}

// Award records the winning bidder and forces the tender to awarded.
// Allowed from any state but closed.
func (s *Service) Award(ctx context.Context, tenderID string, caller identity.User, bidderName string) (Tender, error) {
	t, err := s.repo.GetTender(ctx, tenderID)
	if err != nil {
		return Tender{}, err
	}
	if !canMutate(caller, t) {
		return Tender{}, ErrForbidden
	}
	if t.Status == StatusClosed {
		return Tender{}, ErrInvalidTransition
	}

	t.AwardedTo = clip(bidderName, maxNameLen)
	t.Status = StatusAwarded
	if err := s.repo.UpdateTender(ctx, t); err != nil {
		return Tender{}, err
	}
	return t, nil
}

// BidInput carries a bid submission.
type BidInput struct {
	BidderName string
	Amount     float64
	Message    string
}

// SubmitBid appends a bid. No authorization on purpose: profession agents
// and anonymous humans bid through the same door.
func (s *Service) SubmitBid(ctx context.Context, tenderID string, input BidInput) (Bid, error) {
	if _, err := s.repo.GetTender(ctx, tenderID); err != nil {
		return Bid{}, err
	}
	b := Bid{
		ID:         uuid.New().String(),
		TenderID:   tenderID,
		BidderName: clip(input.BidderName, maxNameLen),
		Amount:     input.Amount,
		Message:    clip(input.Message, maxMessageLen),
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateBid(ctx, b); err != nil {
		return Bid{}, err
	}
	return b, nil
}

// AutoBid derives a deterministic bid for the profession's agent and
// appends it like any other bid.
func (s *Service) AutoBid(ctx context.Context, tenderID, profession string) (Bid, error) {
	t, err := s.repo.GetTender(ctx, tenderID)
	if err != nil {
		return Bid{}, err
	}
	name, amount, message := agentBid(profession, t)
	return s.SubmitBid(ctx, tenderID, BidInput{BidderName: name, Amount: amount, Message: message})
}

// MilestoneInput carries a milestone submission.
type MilestoneInput struct {
	Title   string
	Amount  float64
	DueDate string
}

// AddMilestone attaches a milestone to a tender. Owner-or-admin only.
func (s *Service) AddMilestone(ctx context.Context, tenderID string, caller identity.User, input MilestoneInput) (Milestone, error) {
	t, err := s.repo.GetTender(ctx, tenderID)
	if err != nil {
		return Milestone{}, err
	}
	if !canMutate(caller, t) {
		return Milestone{}, ErrForbidden
	}

	m := Milestone{
		ID:       uuid.New().String(),
		TenderID: tenderID,
		Title:    clip(input.Title, maxTitleLen),
		Amount:   input.Amount,
		DueDate:  clip(input.DueDate, maxDeadlineLen),
		Status:   MilestonePending,
	}
	if err := s.repo.CreateMilestone(ctx, m); err != nil {
		return Milestone{}, err
	}
	return m, nil
}

// UpdateMilestoneStatus moves a milestone forward, under the owning
// tender's authorization rule.
func (s *Service) UpdateMilestoneStatus(ctx context.Context, milestoneID string, caller identity.User, newStatus string) (Milestone, error) {
	m, err := s.repo.GetMilestone(ctx, milestoneID)
	if err != nil {
		return Milestone{}, err
	}
	t, err := s.repo.GetTender(ctx, m.TenderID)
	if err != nil {
		return Milestone{}, err
	}
	if !canMutate(caller, t) {
		return Milestone{}, ErrForbidden
	}

	target := MilestoneStatus(newStatus)
	targetRank, ok := milestoneRank[target]
	if !ok {
		return Milestone{}, ErrInvalidStatus
	}
	if targetRank <= milestoneRank[m.Status] {
		return Milestone{}, ErrInvalidTransition
	}

	m.Status = target
	if err := s.repo.UpdateMilestone(ctx, m); err != nil {
		return Milestone{}, err
	}
	return m, nil
}

func canMutate(caller identity.User, t Tender) bool {
	if caller.IsAdmin() {
		return true
	}
	return t.OwnerEmail != "" && t.OwnerEmail == caller.Email
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
