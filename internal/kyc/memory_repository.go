package kyc

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by user id
}

// NewMemoryRepository builds an in-memory KYC store for dev mode and testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{records: make(map[string]Record)}
}

func (r *memoryRepository) Replace(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.UserID] = record
	return nil
}

func (r *memoryRepository) Approve(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.records {
		if rec.Email == email {
			rec.Status = StatusApproved
			r.records[id] = rec
		}
	}
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Record
	for _, rec := range r.records {
		if rec.Email == email {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryRepository) List(_ context.Context) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}
