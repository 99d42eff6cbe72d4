package kyc

import (
	"context"
	"time"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/identity"
)

const (
	maxNameLen    = 160
	maxCountryLen = 80
	maxDocTypeLen = 40
)

// Service manages KYC intake.
type Service struct {
	repo Repository
}

// NewService builds a KYC service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SubmitInput carries the declared identity fields.
type SubmitInput struct {
	FullName string
	Country  string
	DocType  string
	DocID    string
}

// Submit stores a pending record for the user, replacing any earlier one.
// The raw document id is hashed before it touches storage.
func (s *Service) Submit(ctx context.Context, user identity.User, input SubmitInput) (Record, error) {
	record := Record{
		UserID:      user.ID,
		Email:       user.Email,
		FullName:    clip(input.FullName, maxNameLen),
		Country:     clip(input.Country, maxCountryLen),
		DocType:     clip(input.DocType, maxDocTypeLen),
		DocIDHash:   audit.HashValue(input.DocID),
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.repo.Replace(ctx, record); err != nil {
		return Record{}, err
	}
	return record, nil
}

// Approve flips the e-mail's records to approved. Callers gate on admin.
func (s *Service) Approve(ctx context.Context, email string) error {
	return s.repo.Approve(ctx, identity.NormalizeEmail(email))
}

// ByEmail returns the records for an e-mail.
func (s *Service) ByEmail(ctx context.Context, email string) ([]Record, error) {
	return s.repo.FindByEmail(ctx, identity.NormalizeEmail(email))
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
