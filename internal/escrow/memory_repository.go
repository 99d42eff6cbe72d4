package escrow

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu      sync.RWMutex
	escrows map[string]Escrow
}

// NewMemoryRepository builds a concurrency-safe in-memory escrow store for
// dev mode and testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{escrows: make(map[string]Escrow)}
}

func (r *memoryRepository) Create(_ context.Context, e Escrow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.escrows[e.ID] = e
	return nil
}

func (r *memoryRepository) Get(_ context.Context, id string) (Escrow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.escrows[id]
	if !ok {
		return Escrow{}, ErrUnknownEscrow
	}
	return cloneEscrow(e), nil
}

func (r *memoryRepository) Transition(_ context.Context, id string, to State) (Escrow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.escrows[id]
	if !ok {
		return Escrow{}, ErrUnknownEscrow
	}
	if !CanTransition(e.State, to) {
		return Escrow{}, ErrInvalidTransition
	}
	e.State = to
	e.History = append(e.History, HistoryEntry{Timestamp: time.Now().UTC(), Event: string(to)})
	r.escrows[id] = e
	return cloneEscrow(e), nil
}

func (r *memoryRepository) List(_ context.Context) ([]Escrow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	escrows := make([]Escrow, 0, len(r.escrows))
	for _, e := range r.escrows {
		escrows = append(escrows, cloneEscrow(e))
	}
	sort.Slice(escrows, func(i, j int) bool { return escrows[i].ID < escrows[j].ID })
	return escrows, nil
}

// cloneEscrow copies the history slice so callers can never mutate stored
// entries through a returned value.
func cloneEscrow(e Escrow) Escrow {
	history := make([]HistoryEntry, len(e.History))
	copy(history, e.History)
	e.History = history
	return e
}
