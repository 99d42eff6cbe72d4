package audit

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemoryRepository builds an in-memory audit log for dev mode and testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Append(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryRepository) List(_ context.Context) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}
