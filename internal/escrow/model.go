package escrow

import "time"

// State is the escrow lifecycle state.
type State string

const (
	StateCreated  State = "created"
	StateFunded   State = "funded"
	StateReleased State = "released"
	StateRefunded State = "refunded"
)

// transitions is the only legal move set: created->funded, then funded to
// one of the terminal states. Terminal states accept nothing.
var transitions = map[State][]State{
	StateCreated: {StateFunded},
	StateFunded:  {StateReleased, StateRefunded},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// HistoryEntry is one immutable line of an escrow's trail.
type HistoryEntry struct {
	Timestamp time.Time
	Event     string
}

// Escrow is a custodial holding record tied to a tender. History grows by
// exactly one entry per transition, creation included, and entries are
// never rewritten.
type Escrow struct {
	ID         string
	TenderID   string
	PayerEmail string
	PayeeName  string
	Amount     float64
	State      State
	History    []HistoryEntry
}
