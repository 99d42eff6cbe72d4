package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxEmailLen = 160

// Service manages user lifecycle.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// NormalizeEmail lower-cases, trims and caps an e-mail address. Users,
// codes and exports all key on this normal form.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > maxEmailLen {
		email = email[:maxEmailLen]
	}
	return email
}

// EnsureUser returns the user for the e-mail, creating one with the
// declared role on first contact. Unknown roles collapse to seller.
func (s *Service) EnsureUser(ctx context.Context, email, role string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return User{}, errors.New("email is required")
	}

	if user, err := s.repo.FindByEmail(ctx, email); err == nil {
		return user, nil
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	switch role {
	case RoleBuyer, RoleSeller, RoleAdmin:
	default:
		role = RoleSeller
	}

	user := User{
		ID:        uuid.New().String(),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		// A concurrent first contact for the same e-mail got there
		// first; the winner's row is the user.
		if errors.Is(err, ErrDuplicate) {
			return s.repo.FindByEmail(ctx, email)
		}
		return User{}, err
	}
	return user, nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByEmail fetches a user by e-mail after normalizing it.
func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}
