package compliance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/escrow"
	"github.com/tenderdesk/tenderdesk/internal/identity"
	"github.com/tenderdesk/tenderdesk/internal/kyc"
	"github.com/tenderdesk/tenderdesk/internal/tender"
)

// Service assembles data-subject exports, queues erasure intents and
// computes the admin analytics summary.
type Service struct {
	users    identity.Repository
	tenders  tender.Repository
	kyc      kyc.Repository
	escrows  escrow.Repository
	erasures ErasureRepository
}

// NewService builds the compliance service.
func NewService(users identity.Repository, tenders tender.Repository, kycRepo kyc.Repository, escrows escrow.Repository, erasures ErasureRepository) *Service {
	return &Service{users: users, tenders: tenders, kyc: kycRepo, escrows: escrows, erasures: erasures}
}

// Export is everything the system knows about one identity.
type Export struct {
	User         *identity.User
	TendersOwned []tender.Tender
	Milestones   []tender.Milestone
	BidsByName   []tender.Bid
	Kyc          []kyc.Record
	Escrows      []escrow.Escrow
}

// Export assembles every record referencing the e-mail: the user row,
// owned tenders and their milestones, bids whose bidder name starts with
// the e-mail, KYC rows and escrows where the identity pays or is named
// payee. Read-only.
func (s *Service) Export(ctx context.Context, email string) (Export, error) {
	email = identity.NormalizeEmail(email)
	out := Export{}

	if user, err := s.users.FindByEmail(ctx, email); err == nil {
		out.User = &user
	} else if !errors.Is(err, identity.ErrNotFound) {
		return Export{}, err
	}

	tenders, err := s.tenders.ListTenders(ctx)
	if err != nil {
		return Export{}, err
	}
	for _, t := range tenders {
		if t.OwnerEmail == email {
			out.TendersOwned = append(out.TendersOwned, t)
			milestones, err := s.tenders.ListMilestones(ctx, t.ID)
			if err != nil {
				return Export{}, err
			}
			out.Milestones = append(out.Milestones, milestones...)
		}
	}

	bids, err := s.tenders.ListBids(ctx)
	if err != nil {
		return Export{}, err
	}
	for _, b := range bids {
		if strings.HasPrefix(strings.ToLower(b.BidderName), email) {
			out.BidsByName = append(out.BidsByName, b)
		}
	}

	records, err := s.kyc.FindByEmail(ctx, email)
	if err != nil {
		return Export{}, err
	}
	out.Kyc = records

	escrows, err := s.escrows.List(ctx)
	if err != nil {
		return Export{}, err
	}
	for _, e := range escrows {
		if e.PayerEmail == email || strings.HasPrefix(strings.ToLower(e.PayeeName), email) {
			out.Escrows = append(out.Escrows, e)
		}
	}

	return out, nil
}

// RequestErasure queues a deletion intent. It deletes nothing itself, and
// it stores only the e-mail's hash; whoever actions the queue matches it
// against the hash of the address the subject presents.
func (s *Service) RequestErasure(ctx context.Context, email string) (ErasureRequest, error) {
	req := ErasureRequest{
		ID:          uuid.New().String(),
		EmailHash:   audit.HashValue(identity.NormalizeEmail(email)),
		RequestedAt: time.Now().UTC(),
		Status:      ErasureStatusReceived,
	}
	if err := s.erasures.Append(ctx, req); err != nil {
		return ErasureRequest{}, err
	}
	return req, nil
}

// Analytics is the admin dashboard summary.
type Analytics struct {
	Counts          map[string]int `json:"counts"`
	TendersByStatus map[string]int `json:"tenders_by_status"`
	EscrowsByState  map[string]int `json:"escrows_by_state"`
}

// Summarize counts records and state distributions across the stores.
func (s *Service) Summarize(ctx context.Context) (Analytics, error) {
	tenders, err := s.tenders.ListTenders(ctx)
	if err != nil {
		return Analytics{}, err
	}
	bids, err := s.tenders.ListBids(ctx)
	if err != nil {
		return Analytics{}, err
	}
	escrows, err := s.escrows.List(ctx)
	if err != nil {
		return Analytics{}, err
	}
	kycRecords, err := s.kyc.List(ctx)
	if err != nil {
		return Analytics{}, err
	}
	userCount, err := s.users.Count(ctx)
	if err != nil {
		return Analytics{}, err
	}

	kycPending := 0
	for _, rec := range kycRecords {
		if rec.Status == kyc.StatusPending {
			kycPending++
		}
	}

	byStatus := map[string]int{
		string(tender.StatusOpen):        0,
		string(tender.StatusUnderReview): 0,
		string(tender.StatusAwarded):     0,
		string(tender.StatusClosed):      0,
	}
	for _, t := range tenders {
		byStatus[string(t.Status)]++
	}

	byState := map[string]int{
		string(escrow.StateCreated):  0,
		string(escrow.StateFunded):   0,
		string(escrow.StateReleased): 0,
		string(escrow.StateRefunded): 0,
	}
	for _, e := range escrows {
		byState[string(e.State)]++
	}

	return Analytics{
		Counts: map[string]int{
			"tenders":     len(tenders),
			"bids":        len(bids),
			"escrows":     len(escrows),
			"users":       userCount,
			"kyc_pending": kycPending,
		},
		TendersByStatus: byStatus,
		EscrowsByState:  byState,
	}, nil
}
