package audit

import (
	"context"
	"testing"

	"github.com/tenderdesk/tenderdesk/internal/logging"
)

func TestHashValue(t *testing.T) {
	a := HashValue("203.0.113.9")
	b := HashValue("203.0.113.9")
	if a != b {
		t.Fatal("expected deterministic hash")
	}
	if a == "203.0.113.9" {
		t.Fatal("hash must not equal the input")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if HashValue("") != HashValue("unknown") {
		t.Fatal("expected empty input to hash as unknown")
	}
}

func TestRecordAppendsEntries(t *testing.T) {
	svc := NewService(NewMemoryRepository(), logging.Discard())
	ctx := context.Background()

	svc.Record(ctx, "login", "203.0.113.9", map[string]string{"email": "seller@example.com"})
	svc.Record(ctx, "tender_create", "203.0.113.9", nil)

	entries, err := svc.Entries(ctx)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Event != "login" || entries[1].Event != "tender_create" {
		t.Fatalf("expected ordered trail, got %+v", entries)
	}
	if entries[0].IPHash == "203.0.113.9" {
		t.Fatal("caller ip must be stored hashed")
	}
	if entries[0].Metadata["email"] != "seller@example.com" {
		t.Fatalf("expected metadata to survive, got %+v", entries[0].Metadata)
	}
}
