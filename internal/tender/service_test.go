package tender

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/tenderdesk/tenderdesk/internal/identity"
)

var (
	owner = identity.User{ID: "u-owner", Email: "owner@example.com", Role: identity.RoleBuyer}
	other = identity.User{ID: "u-other", Email: "other@example.com", Role: identity.RoleSeller}
	admin = identity.User{ID: "u-admin", Email: "admin@example.com", Role: identity.RoleAdmin}
)

func createTender(t *testing.T, svc *Service) Tender {
	t.Helper()
	created, err := svc.Create(context.Background(), CreateInput{
		Title:        "Landing page redesign",
		Description:  "Refresh the marketing site.",
		Profession:   "Designer",
		Budget:       2000,
		Deadline:     "2026-10-01",
		ContactEmail: owner.Email,
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("create tender: %v", err)
	}
	return created
}

func TestCreateRequiresConsent(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.Create(context.Background(), CreateInput{
		Title:        "No consent",
		Budget:       500,
		ContactEmail: owner.Email,
	})
	if !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
}

func TestCreateClipsFields(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	created, err := svc.Create(context.Background(), CreateInput{
		Title:        strings.Repeat("t", 500),
		Description:  strings.Repeat("d", 6000),
		ContactEmail: "Owner@Example.com",
		Budget:       100,
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(created.Title) != 120 {
		t.Fatalf("expected title clipped to 120, got %d", len(created.Title))
	}
	if len(created.Description) != 5000 {
		t.Fatalf("expected description clipped to 5000, got %d", len(created.Description))
	}
	if created.OwnerEmail != "owner@example.com" {
		t.Fatalf("expected normalized owner email, got %q", created.OwnerEmail)
	}
	if created.Status != StatusOpen {
		t.Fatalf("expected open status, got %q", created.Status)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	created := createTender(t, svc)

	updated, err := svc.UpdateStatus(ctx, created.ID, owner, string(StatusUnderReview))
	if err != nil {
		t.Fatalf("open -> under_review: %v", err)
	}
	if updated.Status != StatusUnderReview {
		t.Fatalf("expected under_review, got %q", updated.Status)
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, owner, string(StatusOpen)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected backward move to fail, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, owner, string(StatusUnderReview)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected no-op move to fail, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, owner, "archived"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected unknown status to fail, got %v", err)
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	created := createTender(t, svc)

	if _, err := svc.UpdateStatus(ctx, created.ID, other, string(StatusClosed)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, created.ID, admin, string(StatusClosed)); err != nil {
		t.Fatalf("admin update: %v", err)
	}
}

func TestAward(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	created := createTender(t, svc)

	awarded, err := svc.Award(ctx, created.ID, owner, "Designer Agent")
	if err != nil {
		t.Fatalf("award: %v", err)
	}
	if awarded.Status != StatusAwarded || awarded.AwardedTo != "Designer Agent" {
		t.Fatalf("unexpected award result %+v", awarded)
	}

	if _, err := svc.UpdateStatus(ctx, created.ID, owner, string(StatusClosed)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := svc.Award(ctx, created.ID, owner, "Someone Else"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected award on closed tender to fail, got %v", err)
	}
}

func TestSubmitBidUnknownTender(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	_, err := svc.SubmitBid(context.Background(), "missing", BidInput{BidderName: "Anyone", Amount: 300})
	if !errors.Is(err, ErrUnknownTender) {
		t.Fatalf("expected ErrUnknownTender, got %v", err)
	}
}

func TestAutoBidIsDeterministic(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	created := createTender(t, svc)

	bid, err := svc.AutoBid(ctx, created.ID, "Designer")
	if err != nil {
		t.Fatalf("auto bid: %v", err)
	}
	if bid.BidderName != "Designer Agent" {
		t.Fatalf("expected Designer Agent, got %q", bid.BidderName)
	}
	if bid.Amount != 1600 {
		t.Fatalf("expected 2000 * 0.80 = 1600, got %v", bid.Amount)
	}

	again, err := svc.AutoBid(ctx, created.ID, "Designer")
	if err != nil {
		t.Fatalf("auto bid again: %v", err)
	}
	if again.Amount != bid.Amount {
		t.Fatalf("expected deterministic amount, got %v then %v", bid.Amount, again.Amount)
	}

	_, bids, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(bids) != 2 {
		t.Fatalf("expected 2 bids, got %d", len(bids))
	}
}

func TestAutoBidFloorsAtMinimum(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{
		Title:        "Tiny job",
		Budget:       50,
		ContactEmail: owner.Email,
		Consent:      true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bid, err := svc.AutoBid(ctx, created.ID, "Writer")
	if err != nil {
		t.Fatalf("auto bid: %v", err)
	}
	if bid.Amount != 100 {
		t.Fatalf("expected floor of 100, got %v", bid.Amount)
	}
}

func TestAutoBidUnknownProfessionUsesDefaultFactor(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	created := createTender(t, svc)

	bid, err := svc.AutoBid(ctx, created.ID, "Astronaut")
	if err != nil {
		t.Fatalf("auto bid: %v", err)
	}
	if bid.Amount != 1600 {
		t.Fatalf("expected default factor 0.80 over budget 2000, got %v", bid.Amount)
	}
}

func TestMilestoneLifecycle(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	created := createTender(t, svc)

	m, err := svc.AddMilestone(ctx, created.ID, owner, MilestoneInput{Title: "Wireframes", Amount: 400, DueDate: "2026-09-15"})
	if err != nil {
		t.Fatalf("add milestone: %v", err)
	}
	if m.Status != MilestonePending {
		t.Fatalf("expected pending, got %q", m.Status)
	}

	if _, err := svc.AddMilestone(ctx, created.ID, other, MilestoneInput{Title: "Sneaky"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	for _, next := range []MilestoneStatus{MilestoneInProgress, MilestoneSubmitted, MilestoneAccepted, MilestonePaid} {
		m, err = svc.UpdateMilestoneStatus(ctx, m.ID, owner, string(next))
		if err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
		if m.Status != next {
			t.Fatalf("expected %s, got %s", next, m.Status)
		}
	}

	if _, err := svc.UpdateMilestoneStatus(ctx, m.ID, owner, string(MilestonePending)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected backward milestone move to fail, got %v", err)
	}
}
