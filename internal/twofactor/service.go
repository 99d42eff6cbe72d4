package twofactor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/tenderdesk/tenderdesk/internal/identity"
)

var (
	// ErrNotProvisioned is returned when Enable runs before Setup.
	ErrNotProvisioned = errors.New("two-factor not provisioned")
	// ErrNotEnabled is returned when Verify runs before Enable.
	ErrNotEnabled = errors.New("two-factor not enabled")
	// ErrInvalidCode is returned for a code outside the accepted window.
	ErrInvalidCode = errors.New("invalid code")
)

// period and skew follow the standard authenticator-app contract:
// 30-second steps, one step of clock drift accepted either side.
const (
	period = 30
	skew   = 1
)

// SetupResult carries the shared secret and its provisioning URI.
type SetupResult struct {
	Secret string
	URI    string
}

// Service drives the per-user TOTP state machine:
// unprovisioned -> provisioned-disabled -> enabled.
type Service struct {
	users  identity.Repository
	issuer string
}

// NewService builds the two-factor service.
func NewService(users identity.Repository, issuer string) *Service {
	return &Service{users: users, issuer: issuer}
}

// Setup provisions a secret for the user, disabled until Enable. Calling
// Setup again returns the existing secret's URI; it never regenerates,
// because that would silently invalidate an already-configured
// authenticator.
func (s *Service) Setup(ctx context.Context, userID string) (SetupResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return SetupResult{}, err
	}

	if user.TwoFactor.Secret != "" {
		return SetupResult{
			Secret: user.TwoFactor.Secret,
			URI:    s.provisioningURI(user.Email, user.TwoFactor.Secret),
		}, nil
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		SecretSize:  20,
		Period:      period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return SetupResult{}, err
	}

	if err := s.users.UpdateTwoFactor(ctx, userID, identity.TwoFactor{Secret: key.Secret()}); err != nil {
		return SetupResult{}, err
	}

	return SetupResult{Secret: key.Secret(), URI: key.URL()}, nil
}

// Enable verifies the code against the provisioned secret and flips the
// enabled flag. A bad code leaves state untouched.
func (s *Service) Enable(ctx context.Context, userID, code string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactor.Secret == "" {
		return ErrNotProvisioned
	}
	if !s.validate(code, user.TwoFactor.Secret, time.Now().UTC()) {
		return ErrInvalidCode
	}
	return s.users.UpdateTwoFactor(ctx, userID, identity.TwoFactor{Secret: user.TwoFactor.Secret, Enabled: true})
}

// Verify checks a code for an enabled user. Pure read, no state change.
func (s *Service) Verify(ctx context.Context, userID, code string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactor.Enabled {
		return ErrNotEnabled
	}
	if !s.validate(code, user.TwoFactor.Secret, time.Now().UTC()) {
		return ErrInvalidCode
	}
	return nil
}

func (s *Service) validate(code, secret string, at time.Time) bool {
	ok, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

func (s *Service) provisioningURI(account, secret string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", s.issuer)
	v.Set("algorithm", "SHA1")
	v.Set("digits", "6")
	v.Set("period", fmt.Sprintf("%d", period))
	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + s.issuer + ":" + account,
		RawQuery: v.Encode(),
	}
	return u.String()
}
