package auth

import (
	"context"
	"sync"
	"time"
)

type memoryCodeRepository struct {
	mu    sync.RWMutex
	codes map[string]OneTimeCode
}

// NewMemoryCodeRepository builds an in-memory code store for dev mode and testing.
func NewMemoryCodeRepository() CodeRepository {
	return &memoryCodeRepository{codes: make(map[string]OneTimeCode)}
}

func (r *memoryCodeRepository) Create(_ context.Context, code OneTimeCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[code.ID] = code
	return nil
}

func (r *memoryCodeRepository) ActiveByEmail(_ context.Context, email string, now time.Time) ([]OneTimeCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []OneTimeCode
	for _, code := range r.codes {
		if code.Email == email && !code.Consumed && !code.ExpiresAt.Before(now) {
			active = append(active, code)
		}
	}
	return active, nil
}

func (r *memoryCodeRepository) Consume(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	code, ok := r.codes[id]
	if !ok || code.Consumed {
		return false, nil
	}
	code.Consumed = true
	r.codes[id] = code
	return true, nil
}
