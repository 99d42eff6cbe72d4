package identity

import (
	"context"
	"strings"
	"sync"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Seller@Example.COM "); got != "seller@example.com" {
		t.Fatalf("expected seller@example.com, got %q", got)
	}

	long := strings.Repeat("a", 200) + "@example.com"
	if got := NormalizeEmail(long); len(got) != 160 {
		t.Fatalf("expected email capped at 160 chars, got %d", len(got))
	}
}

func TestEnsureUserCreatesOnce(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	created, err := svc.EnsureUser(ctx, "buyer@example.com", RoleBuyer)
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if created.Role != RoleBuyer {
		t.Fatalf("expected buyer role, got %q", created.Role)
	}

	// A second call with a different role must return the existing user.
	again, err := svc.EnsureUser(ctx, "buyer@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("ensure user again: %v", err)
	}
	if again.ID != created.ID || again.Role != RoleBuyer {
		t.Fatalf("expected existing user %s to be returned unchanged, got %+v", created.ID, again)
	}
}

func TestEnsureUserConcurrentFirstContact(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	users := make(chan User, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := svc.EnsureUser(ctx, "new@example.com", RoleBuyer)
			if err != nil {
				t.Errorf("ensure user: %v", err)
				return
			}
			users <- user
		}()
	}
	wg.Wait()
	close(users)

	ids := make(map[string]bool)
	for user := range users {
		ids[user.ID] = true
	}
	if len(ids) != 1 {
		t.Fatalf("expected every caller to land on one user, got %d distinct ids", len(ids))
	}
}

func TestEnsureUserDefaultsRoleToSeller(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	user, err := svc.EnsureUser(context.Background(), "someone@example.com", "superuser")
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if user.Role != RoleSeller {
		t.Fatalf("expected unknown role to collapse to seller, got %q", user.Role)
	}
}

func TestEnsureUserRejectsEmptyEmail(t *testing.T) {
	svc := NewService(NewMemoryRepository())

	if _, err := svc.EnsureUser(context.Background(), "   ", RoleSeller); err == nil {
		t.Fatal("expected error for empty email")
	}
}
