// Package memstore keeps repository data in process memory. Missing rows and
// unique violations surface as the same errors the postgres repositories
// return, so callers cannot tell the two apart.
package memstore

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/repository"
)

// Store holds every table.
type Store struct {
	mu sync.RWMutex

	users      map[string]domain.User
	facilities map[string]domain.Facility
	bookings   map[string]domain.Booking
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:      make(map[string]domain.User),
		facilities: make(map[string]domain.Facility),
		bookings:   make(map[string]domain.Booking),
		now:        time.Now,
	}
}

// Users returns the account repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{s: s} }

// Facilities returns the facility repository view.
func (s *Store) Facilities() repository.FacilityRepository { return &facilityRepo{s: s} }

// Bookings returns the booking repository view.
func (s *Store) Bookings() repository.BookingRepository { return &bookingRepo{s: s} }

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{
		Code:           "23505",
		Message:        "duplicate key value violates unique constraint",
		ConstraintName: constraint,
	}
}

func newID() string { return uuid.NewString() }

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func sortByCreatedDesc(users []domain.User) {
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
}

func equalFold(a, b string) bool { return strings.EqualFold(a, b) }
