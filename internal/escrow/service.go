package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tenderdesk/tenderdesk/internal/identity"
)

// Service drives the escrow state machine. It holds no money; the record
// and its history are the ledger.
type Service struct {
	repo Repository
}

// NewService builds an escrow service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create opens an escrow in the created state with its first history entry.
func (s *Service) Create(ctx context.Context, tenderID string, payer identity.User, payeeName string, amount float64) (Escrow, error) {
	e := Escrow{
		ID:         uuid.New().String(),
		TenderID:   tenderID,
		PayerEmail: payer.Email,
		PayeeName:  payeeName,
		Amount:     amount,
		State:      StateCreated,
		History:    []HistoryEntry{{Timestamp: time.Now().UTC(), Event: string(StateCreated)}},
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return Escrow{}, err
	}
	return e, nil
}

// Fund moves created -> funded.
func (s *Service) Fund(ctx context.Context, id string) (Escrow, error) {
	return s.repo.Transition(ctx, id, StateFunded)
}

// Release moves funded -> released.
func (s *Service) Release(ctx context.Context, id string) (Escrow, error) {
	return s.repo.Transition(ctx, id, StateReleased)
}

// Refund moves funded -> refunded.
func (s *Service) Refund(ctx context.Context, id string) (Escrow, error) {
	return s.repo.Transition(ctx, id, StateRefunded)
}

// Get fetches one escrow.
func (s *Service) Get(ctx context.Context, id string) (Escrow, error) {
	return s.repo.Get(ctx, id)
}
