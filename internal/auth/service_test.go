package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tenderdesk/tenderdesk/internal/identity"
	"github.com/tenderdesk/tenderdesk/internal/logging"
	"github.com/tenderdesk/tenderdesk/internal/notification"
)

func newTestService(otpTTL time.Duration) *Service {
	users := identity.NewService(identity.NewMemoryRepository())
	notifier := notification.NewLoggerNotifier(logging.Discard())
	return NewService(users, NewMemoryCodeRepository(), NewMemorySessionStore(), notifier, otpTTL, time.Hour)
}

func TestRequestCodeAndLogin(t *testing.T) {
	svc := newTestService(10 * time.Minute)
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, "Buyer@Example.com", identity.RoleBuyer)
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	user, token, err := svc.Login(ctx, "buyer@example.com", code)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "buyer@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Role != identity.RoleBuyer {
		t.Fatalf("expected buyer role, got %q", user.Role)
	}
	if token == "" {
		t.Fatal("expected a session token")
	}

	resolved, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve session: %v", err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, resolved.ID)
	}
}

func TestLoginRejectsWrongCode(t *testing.T) {
	svc := newTestService(10 * time.Minute)
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, _, err := svc.Login(ctx, "seller@example.com", wrong); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestLoginConsumesCode(t *testing.T) {
	svc := newTestService(10 * time.Minute)
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}

	if _, _, err := svc.Login(ctx, "seller@example.com", code); err != nil {
		t.Fatalf("first login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "seller@example.com", code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected consumed code to be rejected, got %v", err)
	}
}

func TestLoginConcurrentRedeemsWinOnce(t *testing.T) {
	svc := newTestService(10 * time.Minute)
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Login(ctx, "seller@example.com", code)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	successes := 0
	for err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, ErrInvalidOrExpiredCode) {
			t.Fatalf("unexpected login error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful redemption, got %d", successes)
	}
}

func TestLoginRejectsExpiredCode(t *testing.T) {
	svc := newTestService(-time.Minute)
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}

	if _, _, err := svc.Login(ctx, "seller@example.com", code); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected expired code to be rejected, got %v", err)
	}
}

func TestLoginAcceptsLatestOfSeveralCodes(t *testing.T) {
	svc := newTestService(10 * time.Minute)
	ctx := context.Background()

	first, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	second, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("second request: %v", err)
	}

	if _, _, err := svc.Login(ctx, "seller@example.com", second); err != nil {
		t.Fatalf("login with second code: %v", err)
	}
	if first != second {
		if _, _, err := svc.Login(ctx, "seller@example.com", first); err != nil {
			t.Fatalf("login with still-active first code: %v", err)
		}
	}
}

func TestDestroyEndsSession(t *testing.T) {
	svc := newTestService(10 * time.Minute)
	ctx := context.Background()

	code, err := svc.RequestCode(ctx, "seller@example.com", "")
	if err != nil {
		t.Fatalf("request code: %v", err)
	}
	_, token, err := svc.Login(ctx, "seller@example.com", code)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Destroy(ctx, token); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after destroy, got %v", err)
	}
	if err := svc.Destroy(ctx, "missing"); err != nil {
		t.Fatalf("destroying absent token: %v", err)
	}
}
