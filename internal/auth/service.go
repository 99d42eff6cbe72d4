package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tenderdesk/tenderdesk/internal/identity"
	"github.com/tenderdesk/tenderdesk/internal/notification"
)

// ErrInvalidOrExpiredCode is returned for every failed login attempt. The
// message never varies, so callers cannot probe which e-mails exist.
var ErrInvalidOrExpiredCode = errors.New("invalid or expired code")

// Service issues one-time login codes and manages sessions.
type Service struct {
	users      *identity.Service
	codes      CodeRepository
	sessions   SessionStore
	notifier   notification.Notifier
	otpTTL     time.Duration
	sessionTTL time.Duration
}

// NewService builds the auth service.
func NewService(users *identity.Service, codes CodeRepository, sessions SessionStore, notifier notification.Notifier, otpTTL, sessionTTL time.Duration) *Service {
	return &Service{
		users:      users,
		codes:      codes,
		sessions:   sessions,
		notifier:   notifier,
		otpTTL:     otpTTL,
		sessionTTL: sessionTTL,
	}
}

// RequestCode upserts the user, mints a 6-digit code, stores only its
// bcrypt hash with an expiry, and hands the plaintext to the notifier.
// Each call mints an independent code; stale ones just expire.
func (s *Service) RequestCode(ctx context.Context, email, role string) (string, error) {
	user, err := s.users.EnsureUser(ctx, email, role)
	if err != nil {
		return "", err
	}

	code, err := mintCode()
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	record := OneTimeCode{
		ID:        uuid.New().String(),
		Email:     user.Email,
		CodeHash:  hash,
		ExpiresAt: time.Now().UTC().Add(s.otpTTL),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.codes.Create(ctx, record); err != nil {
		return "", err
	}

	if err := s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindLoginCode,
		Destination: user.Email,
		Body:        code,
	}); err != nil {
		return "", err
	}

	return code, nil
}

// Login validates a code against the e-mail's outstanding codes and, on
// success, consumes the code and opens a session. Consumption is the
// serialization point: a concurrent redeem of the same code loses the
// conditional write and fails like any other bad attempt. Every failure
// is ErrInvalidOrExpiredCode.
func (s *Service) Login(ctx context.Context, email, code string) (identity.User, string, error) {
	email = identity.NormalizeEmail(email)

	active, err := s.codes.ActiveByEmail(ctx, email, time.Now().UTC())
	if err != nil {
		return identity.User{}, "", err
	}

	var matched *OneTimeCode
	for i := range active {
		if bcrypt.CompareHashAndPassword(active[i].CodeHash, []byte(code)) == nil {
			matched = &active[i]
			break
		}
	}
	if matched == nil {
		return identity.User{}, "", ErrInvalidOrExpiredCode
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return identity.User{}, "", ErrInvalidOrExpiredCode
	}

	consumed, err := s.codes.Consume(ctx, matched.ID)
	if err != nil {
		return identity.User{}, "", err
	}
	if !consumed {
		return identity.User{}, "", ErrInvalidOrExpiredCode
	}

	token, err := s.CreateSession(ctx, user.ID)
	if err != nil {
		return identity.User{}, "", err
	}
	return user, token, nil
}

// CreateSession opens a session for the user and returns its token.
func (s *Service) CreateSession(ctx context.Context, userID string) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := s.sessions.Put(ctx, token, userID, s.sessionTTL); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the user bound to the token, or ErrNoSession. Garbage
// tokens are anonymous, never an error worth surfacing.
func (s *Service) Resolve(ctx context.Context, token string) (identity.User, error) {
	if token == "" {
		return identity.User{}, ErrNoSession
	}
	userID, err := s.sessions.Get(ctx, token)
	if err != nil {
		return identity.User{}, err
	}
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return identity.User{}, ErrNoSession
	}
	return user, nil
}

// Destroy removes the session; destroying an absent token is a no-op.
func (s *Service) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// SessionTTL exposes the configured session lifetime for cookie Max-Age.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

func mintCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
