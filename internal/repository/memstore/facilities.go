package memstore

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-service/internal/domain"
)

type facilityRepo struct {
	s *Store
}

func (r *facilityRepo) Create(_ context.Context, facility *domain.Facility) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.facilities {
		if existing.Name == facility.Name {
			return uniqueViolation("facilities_name_key")
		}
	}
	now := r.s.now()
	facility.ID = newID()
	facility.CreatedAt = now
	facility.UpdatedAt = now
	r.s.facilities[facility.ID] = *facility
	return nil
}

func (r *facilityRepo) GetByID(_ context.Context, id string) (*domain.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	f, ok := r.s.facilities[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &f, nil
}

func (r *facilityRepo) List(_ context.Context, includeInactive bool) ([]domain.Facility, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Facility, 0, len(r.s.facilities))
	for _, f := range r.s.facilities {
		if !includeInactive && !f.IsActive {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
