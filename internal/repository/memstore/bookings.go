package memstore

import (
	"context"
	"slices"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/repository"
)

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) CreateExclusive(_ context.Context, booking *domain.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.facilities[booking.FacilityID]; !ok {
		return pgx.ErrNoRows
	}
	for _, existing := range r.s.bookings {
		if existing.FacilityID != booking.FacilityID || !existing.Status.Holds() {
			continue
		}
		if existing.Overlaps(booking.StartsAt, booking.EndsAt) {
			return repository.ErrSlotTaken
		}
	}
	now := r.s.now()
	booking.ID = newID()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *bookingRepo) UpdateStatus(_ context.Context, booking *domain.Booking, from ...domain.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.bookings[booking.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if !slices.Contains(from, stored.Status) {
		return repository.ErrStatusChanged
	}
	stored.Status = booking.Status
	stored.UpdatedAt = r.s.now()
	booking.UpdatedAt = stored.UpdatedAt
	r.s.bookings[booking.ID] = stored
	return nil
}

func (r *bookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (r *bookingRepo) List(_ context.Context, filter repository.BookingFilter) ([]domain.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.Booking
	for _, b := range r.s.bookings {
		if filter.UserID != nil && b.UserID != *filter.UserID {
			continue
		}
		if filter.FacilityID != nil && b.FacilityID != *filter.FacilityID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.After(out[j].StartsAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}
