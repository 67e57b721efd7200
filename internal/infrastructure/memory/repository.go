// Package memory keeps bond terms and schedules in process memory. It backs
// the service and handler tests and satisfies the same ports as the
// Postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

type Repository struct {
	mu        sync.RWMutex
	terms     map[uuid.UUID]bonds.Terms
	schedules map[uuid.UUID]bonds.Schedule

	// Err, when set, is returned by every call.
	Err error
}

func NewRepository() *Repository {
	return &Repository{
		terms:     make(map[uuid.UUID]bonds.Terms),
		schedules: make(map[uuid.UUID]bonds.Schedule),
	}
}

func (r *Repository) CreateBond(_ context.Context, terms *bonds.Terms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.terms[terms.ID] = *terms
	return nil
}

func (r *Repository) GetBond(_ context.Context, uid uuid.UUID) (*bonds.Terms, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	t, ok := r.terms[uid]
	if !ok {
		return nil, bonds.ErrBondNotFound
	}
	return &t, nil
}

func (r *Repository) UpdateBond(_ context.Context, terms *bonds.Terms) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	old, ok := r.terms[terms.ID]
	if !ok {
		return bonds.ErrBondNotFound
	}
	updated := *terms
	updated.CreatedAt = old.CreatedAt
	r.terms[terms.ID] = updated
	return nil
}

func (r *Repository) DeleteBond(_ context.Context, uid uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.terms[uid]; !ok {
		return bonds.ErrBondNotFound
	}
	delete(r.terms, uid)
	return nil
}

func (r *Repository) ListBonds(_ context.Context, limit, offset int) ([]bonds.Terms, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]bonds.Terms, 0, len(r.terms))
	for _, t := range r.terms {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if offset >= len(out) {
		return []bonds.Terms{}, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *Repository) SaveSchedule(_ context.Context, schedule *bonds.Schedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.schedules[schedule.BondID] = *schedule
	return nil
}

func (r *Repository) GetSchedule(_ context.Context, bondUID uuid.UUID) (*bonds.Schedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	s, ok := r.schedules[bondUID]
	if !ok {
		return nil, bonds.ErrScheduleNotFound
	}
	return &s, nil
}

func (r *Repository) DeleteSchedule(_ context.Context, bondUID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if _, ok := r.schedules[bondUID]; !ok {
		return bonds.ErrScheduleNotFound
	}
	delete(r.schedules, bondUID)
	return nil
}

func (r *Repository) Close() {}

// Publisher records published events.
type Publisher struct {
	mu       sync.Mutex
	Changed  []uuid.UUID
	Computed []uuid.UUID
	Err      error
}

func (p *Publisher) PublishBondChanged(_ context.Context, bondUID uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Changed = append(p.Changed, bondUID)
	return p.Err
}

func (p *Publisher) PublishScheduleComputed(_ context.Context, schedule *bonds.Schedule) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Computed = append(p.Computed, schedule.BondID)
	return p.Err
}

func (p *Publisher) ChangedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Changed)
}

func (p *Publisher) ComputedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Computed)
}
