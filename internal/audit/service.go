package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service records compliance events. Every successful mutation across the
// app produces exactly one Record call, after its data write, so a crash
// between the two under-logs rather than over-logs.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService builds the audit recorder.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one entry with a hashed caller IP. Failures are logged
// and swallowed: the mutation already happened and must not be reported
// as failed because its trail write lagged.
func (s *Service) Record(ctx context.Context, event, callerIP string, metadata map[string]string) {
	entry := Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Event:     event,
		IPHash:    HashValue(callerIP),
		Metadata:  metadata,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("audit append failed", "event", event, "error", err)
	}
}

// Entries returns the full trail, oldest first.
func (s *Service) Entries(ctx context.Context) ([]Entry, error) {
	return s.repo.List(ctx)
}
