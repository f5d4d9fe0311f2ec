package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-service/internal/domain"
)

var (
	// ErrSlotTaken is returned when a booking window collides with a held booking.
	ErrSlotTaken = errors.New("facility already booked for this window")
	// ErrStatusChanged is returned when a conditional status update finds the
	// booking no longer in one of the expected statuses.
	ErrStatusChanged = errors.New("booking status changed")
)

// BookingFilter captures listing parameters.
type BookingFilter struct {
	UserID     *string
	FacilityID *string
	Status     *domain.BookingStatus
	Limit      int
	Offset     int
}

// BookingRepository encapsulates booking persistence.
type BookingRepository interface {
	// CreateExclusive inserts the booking unless a PENDING or CONFIRMED booking
	// of the same facility overlaps it, in which case it returns ErrSlotTaken.
	CreateExclusive(ctx context.Context, booking *domain.Booking) error
	// UpdateStatus writes booking.Status only while the stored status is one of
	// from, otherwise it returns ErrStatusChanged.
	UpdateStatus(ctx context.Context, booking *domain.Booking, from ...domain.BookingStatus) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository instantiates repository.
func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingColumns = `id, facility_id, user_id, starts_at, ends_at, status, note, created_at, updated_at`

func (r *bookingRepository) CreateExclusive(ctx context.Context, booking *domain.Booking) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialize bookings per facility on the facility row.
	var facilityID string
	if err := tx.QueryRow(ctx, `SELECT id FROM facilities WHERE id=$1 FOR UPDATE`, booking.FacilityID).Scan(&facilityID); err != nil {
		return err
	}

	const overlap = `
        SELECT EXISTS (
            SELECT 1 FROM bookings
            WHERE facility_id=$1 AND status IN ($2,$3) AND starts_at < $5 AND $4 < ends_at
        )`
	var taken bool
	if err := tx.QueryRow(ctx, overlap,
		booking.FacilityID,
		domain.BookingStatusPending,
		domain.BookingStatusConfirmed,
		booking.StartsAt,
		booking.EndsAt,
	).Scan(&taken); err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	const insert = `
        INSERT INTO bookings (facility_id, user_id, starts_at, ends_at, status, note)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insert,
		booking.FacilityID,
		booking.UserID,
		booking.StartsAt,
		booking.EndsAt,
		booking.Status,
		booking.Note,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, booking *domain.Booking, from ...domain.BookingStatus) error {
	const query = `
        UPDATE bookings SET status=$1, updated_at=NOW()
        WHERE id=$2 AND status = ANY($3)
        RETURNING updated_at`
	allowed := make([]string, 0, len(from))
	for _, status := range from {
		allowed = append(allowed, string(status))
	}
	err := r.pool.QueryRow(ctx, query, booking.Status, booking.ID, allowed).Scan(&booking.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Bookings are never deleted, so a missing row means the status guard failed.
		return ErrStatusChanged
	}
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	booking, err := pgx.CollectExactlyOneRow(rows, scanBooking)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]domain.Booking, error) {
	qb := newQueryBuilder(`SELECT ` + bookingColumns + ` FROM bookings`)
	if filter.UserID != nil {
		qb.where("user_id = ?", *filter.UserID)
	}
	if filter.FacilityID != nil {
		qb.where("facility_id = ?", *filter.FacilityID)
	}
	if filter.Status != nil {
		qb.where("status = ?", *filter.Status)
	}
	query, args := qb.build("starts_at DESC", filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanBooking)
}

func scanBooking(row pgx.CollectableRow) (domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID,
		&b.FacilityID,
		&b.UserID,
		&b.StartsAt,
		&b.EndsAt,
		&b.Status,
		&b.Note,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	return b, err
}
