package tender

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	tenders    map[string]Tender
	bids       []Bid
	milestones map[string]Milestone
}

// NewMemoryRepository builds an in-memory tender store for dev mode and testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		tenders:    make(map[string]Tender),
		milestones: make(map[string]Milestone),
	}
}

func (r *memoryRepository) CreateTender(_ context.Context, t Tender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tenders[t.ID] = t
	return nil
}

func (r *memoryRepository) GetTender(_ context.Context, id string) (Tender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tenders[id]
	if !ok {
		return Tender{}, ErrUnknownTender
	}
	return t, nil
}

func (r *memoryRepository) UpdateTender(_ context.Context, t Tender) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenders[t.ID]; !ok {
		return ErrUnknownTender
	}
	r.tenders[t.ID] = t
	return nil
}

func (r *memoryRepository) ListTenders(_ context.Context) ([]Tender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenders := make([]Tender, 0, len(r.tenders))
	for _, t := range r.tenders {
		tenders = append(tenders, t)
	}
	sort.Slice(tenders, func(i, j int) bool { return tenders[i].CreatedAt.Before(tenders[j].CreatedAt) })
	return tenders, nil
}

func (r *memoryRepository) CreateBid(_ context.Context, b Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bids = append(r.bids, b)
	return nil
}

func (r *memoryRepository) ListBids(_ context.Context) ([]Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bids := make([]Bid, len(r.bids))
	copy(bids, r.bids)
	return bids, nil
}

func (r *memoryRepository) CreateMilestone(_ context.Context, m Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.milestones[m.ID] = m
	return nil
}

func (r *memoryRepository) GetMilestone(_ context.Context, id string) (Milestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.milestones[id]
	if !ok {
		return Milestone{}, ErrUnknownMilestone
	}
	return m, nil
}

func (r *memoryRepository) UpdateMilestone(_ context.Context, m Milestone) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.milestones[m.ID]; !ok {
		return ErrUnknownMilestone
	}
	r.milestones[m.ID] = m
	return nil
}

func (r *memoryRepository) ListMilestones(_ context.Context, tenderID string) ([]Milestone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Milestone
	for _, m := range r.milestones {
		if m.TenderID == tenderID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
