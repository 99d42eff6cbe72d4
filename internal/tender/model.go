package tender

import "time"

// Status is the tender lifecycle state. Transitions only move forward.
type Status string

const (
	StatusOpen        Status = "open"
	StatusUnderReview Status = "under_review"
	StatusAwarded     Status = "awarded"
	StatusClosed      Status = "closed"
)

// statusRank orders the lifecycle; a transition is legal only when the
// target ranks strictly after the current state. Skipping forward is fine.
var statusRank = map[Status]int{
	StatusOpen:        0,
	StatusUnderReview: 1,
	StatusAwarded:     2,
	StatusClosed:      3,
}

// MilestoneStatus is the per-milestone workflow state, forward-only like
// the tender status.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in_progress"
	MilestoneSubmitted  MilestoneStatus = "submitted"
	MilestoneAccepted   MilestoneStatus = "accepted"
	MilestonePaid       MilestoneStatus = "paid"
)

var milestoneRank = map[MilestoneStatus]int{
	MilestonePending:    0,
	MilestoneInProgress: 1,
	MilestoneSubmitted:  2,
	MilestoneAccepted:   3,
	MilestonePaid:       4,
}

// Tender is a published request for work. OwnerEmail is the only PII kept.
type Tender struct {
	ID          string
	Title       string
	Description string
	Profession  string
	Budget      float64
	Deadline    string
	OwnerEmail  string
	Status      Status
	AwardedTo   string
	CreatedAt   time.Time
}

// Bid is an offer against a tender. Bids are append-only: never mutated
// or deleted after creation.
type Bid struct {
	ID         string
	TenderID   string
	BidderName string
	Amount     float64
	Message    string
	CreatedAt  time.Time
}

// Milestone is a deliverable chunk of an awarded tender.
type Milestone struct {
	ID       string
	TenderID string
	Title    string
	Amount   float64
	DueDate  string
	Status   MilestoneStatus
}
