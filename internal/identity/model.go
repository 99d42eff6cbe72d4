package identity

import "time"

// Roles a user may declare at first contact. Anything else collapses to seller.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// TwoFactor holds the TOTP enrollment state for a user. A user with an
// empty Secret has never been provisioned; Enabled only ever becomes true
// after a successful code check.
type TwoFactor struct {
	Secret  string
	Enabled bool
}

// User represents a marketplace participant keyed by normalized e-mail.
// Users are never hard-deleted; erasure requests are queued separately.
type User struct {
	ID        string
	Email     string
	Role      string
	TwoFactor TwoFactor
	CreatedAt time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
