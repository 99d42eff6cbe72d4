package compliance

import "time"

// ErasureStatusReceived marks a queued, not yet actioned, erasure intent.
const ErasureStatusReceived = "received"

// ErasureRequest is a queued data-subject deletion intent, keyed by the
// hashed e-mail so the queue itself holds no plaintext identifier.
// Nothing is deleted when it is filed: destroying tender or audit history
// automatically would break the append-only trail, so actioning the
// request stays a manual step.
type ErasureRequest struct {
	ID          string
	EmailHash   string
	RequestedAt time.Time
	Status      string
}
