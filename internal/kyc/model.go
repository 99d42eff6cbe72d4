package kyc

import "time"

// Record statuses.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Record is an identity-verification intake. The document id is stored
// only as a one-way hash. One active record per user: a new submission
// replaces the previous one.
type Record struct {
	UserID      string
	Email       string
	FullName    string
	Country     string
	DocType     string
	DocIDHash   string
	Status      string
	SubmittedAt time.Time
}
