package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Entry is one immutable compliance log record. The caller IP is stored
// only as a one-way hash; the raw address never reaches persistence.
type Entry struct {
	ID        string
	Timestamp time.Time
	Event     string
	IPHash    string
	Metadata  map[string]string
}

// HashValue pseudonymizes a value (IP, e-mail, document id) with sha256.
// The hash must stay deterministic so exports can match on it.
func HashValue(v string) string {
	if v == "" {
		v = "unknown"
	}
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
