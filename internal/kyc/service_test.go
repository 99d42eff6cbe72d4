package kyc

import (
	"context"
	"testing"

	"github.com/tenderdesk/tenderdesk/internal/audit"
	"github.com/tenderdesk/tenderdesk/internal/identity"
)

var applicant = identity.User{ID: "u-1", Email: "seller@example.com", Role: identity.RoleSeller}

func TestSubmitHashesDocumentID(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	record, err := svc.Submit(context.Background(), applicant, SubmitInput{
		FullName: "Ada Seller",
		Country:  "Estonia",
		DocType:  "passport",
		DocID:    "K1234567",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if record.Status != StatusPending {
		t.Fatalf("expected pending, got %q", record.Status)
	}
	if record.DocIDHash == "K1234567" {
		t.Fatal("document id must not be stored in the clear")
	}
	if record.DocIDHash != audit.HashValue("K1234567") {
		t.Fatalf("expected deterministic document hash, got %q", record.DocIDHash)
	}
}

func TestSubmitReplacesEarlierRecord(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Submit(ctx, applicant, SubmitInput{FullName: "Ada Seller", DocType: "passport", DocID: "A1"}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(ctx, applicant, SubmitInput{FullName: "Ada Seller", DocType: "id_card", DocID: "B2"}); err != nil {
		t.Fatalf("second submit: %v", err)
	}

	records, err := svc.ByEmail(ctx, applicant.Email)
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one active record, got %d", len(records))
	}
	if records[0].DocType != "id_card" {
		t.Fatalf("expected latest submission to win, got %q", records[0].DocType)
	}
}

func TestApprove(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Submit(ctx, applicant, SubmitInput{FullName: "Ada Seller", DocID: "A1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := svc.Approve(ctx, "Seller@Example.COM"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	records, err := svc.ByEmail(ctx, applicant.Email)
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if len(records) != 1 || records[0].Status != StatusApproved {
		t.Fatalf("expected approved record, got %+v", records)
	}
}
