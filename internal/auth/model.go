package auth

import "time"

// OneTimeCode is a single-use login code issued for an e-mail address.
// Only the bcrypt hash of the code is ever stored; the plaintext goes to
// the notifier and is gone. Multiple outstanding codes per e-mail are
// allowed, each with an independent expiry.
type OneTimeCode struct {
	ID        string
	Email     string
	CodeHash  []byte
	ExpiresAt time.Time
	Consumed  bool
	CreatedAt time.Time
}
