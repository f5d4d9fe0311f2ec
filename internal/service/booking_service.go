package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/repository"
	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

// MaxBookingDuration caps a single reservation.
const MaxBookingDuration = 12 * time.Hour

const (
	msgNotCancellable = "booking cannot be cancelled"
	msgNotReviewable  = "only pending bookings can be reviewed"
)

// FacilityInput describes facility creation payload.
type FacilityInput struct {
	Name        string
	Description string
	Capacity    int
}

// BookingCreateInput describes booking creation payload.
type BookingCreateInput struct {
	FacilityID string
	StartsAt   time.Time
	EndsAt     time.Time
	Note       string
}

// BookingListFilters describes staff listing filters.
type BookingListFilters struct {
	FacilityID *string
	Status     *domain.BookingStatus
	Limit      int
	Offset     int
}

// BookingService coordinates facility reservations.
type BookingService struct {
	facilities repository.FacilityRepository
	bookings   repository.BookingRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// BookingDependencies bundles repositories for the booking service.
type BookingDependencies struct {
	FacilityRepo repository.FacilityRepository
	BookingRepo  repository.BookingRepository
	Dispatcher   events.Dispatcher
	Now          func() time.Time
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		facilities: deps.FacilityRepo,
		bookings:   deps.BookingRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// CreateFacility registers a new bookable facility.
func (s *BookingService) CreateFacility(ctx context.Context, in FacilityInput) (*domain.Facility, error) {
	facility := &domain.Facility{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Capacity:    in.Capacity,
		IsActive:    true,
	}
	if err := s.facilities.Create(ctx, facility); err != nil {
		return nil, apperrors.MapError(err)
	}
	return facility, nil
}

// ListFacilities returns facilities, optionally including inactive ones.
func (s *BookingService) ListFacilities(ctx context.Context, includeInactive bool) ([]domain.Facility, error) {
	facilities, err := s.facilities.List(ctx, includeInactive)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return facilities, nil
}

// CreateBooking reserves a facility window for the actor.
func (s *BookingService) CreateBooking(ctx context.Context, actor auth.Principal, in BookingCreateInput) (*domain.Booking, error) {
	if err := s.validateWindow(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}

	facility, err := s.facilities.GetByID(ctx, in.FacilityID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("facility")
		}
		return nil, apperrors.MapError(err)
	}
	if !facility.IsActive {
		return nil, apperrors.NewConflict("facility is not accepting bookings", map[string]any{"facility_id": facility.ID})
	}

	booking := &domain.Booking{
		FacilityID: facility.ID,
		UserID:     actor.UserID,
		StartsAt:   in.StartsAt.UTC(),
		EndsAt:     in.EndsAt.UTC(),
		Status:     domain.BookingStatusPending,
		Note:       strings.TrimSpace(in.Note),
	}
	if err := s.bookings.CreateExclusive(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, apperrors.NewConflict("facility already booked for this window", map[string]any{
				"facility_id": facility.ID,
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventBookingCreated, booking.ID, actorOf(actor), events.BookingCreatedPayload{
		BookingID:    booking.ID,
		FacilityID:   facility.ID,
		FacilityName: facility.Name,
		OwnerID:      booking.UserID,
		StartsAt:     booking.StartsAt,
		EndsAt:       booking.EndsAt,
	}))
	return booking, nil
}

// ListUserBookings returns the actor's own bookings.
func (s *BookingService) ListUserBookings(ctx context.Context, actor auth.Principal, limit, offset int) ([]domain.Booking, error) {
	userID := actor.UserID
	bookings, err := s.bookings.List(ctx, repository.BookingFilter{UserID: &userID, Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return bookings, nil
}

// ListBookings returns bookings across all residents.
func (s *BookingService) ListBookings(ctx context.Context, filters BookingListFilters) ([]domain.Booking, error) {
	bookings, err := s.bookings.List(ctx, repository.BookingFilter{
		FacilityID: filters.FacilityID,
		Status:     filters.Status,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return bookings, nil
}

// CancelBooking cancels a held booking. Residents may cancel only their own;
// staff may cancel any.
func (s *BookingService) CancelBooking(ctx context.Context, actor auth.Principal, bookingID string) (*domain.Booking, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.UserID != actor.UserID && !actor.Role.IsStaff() {
		return nil, apperrors.NewForbidden("")
	}
	if !booking.Status.Holds() {
		return nil, apperrors.NewConflict(msgNotCancellable, map[string]any{"status": booking.Status})
	}
	return s.transition(ctx, actor, booking, domain.BookingStatusCancelled, msgNotCancellable,
		domain.BookingStatusPending, domain.BookingStatusConfirmed)
}

// SetBookingStatus confirms or rejects a pending booking.
func (s *BookingService) SetBookingStatus(ctx context.Context, actor auth.Principal, bookingID string, status domain.BookingStatus) (*domain.Booking, error) {
	if status != domain.BookingStatusConfirmed && status != domain.BookingStatusRejected {
		return nil, apperrors.NewValidationError("status must be CONFIRMED or REJECTED", map[string]any{"status": status})
	}
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusPending {
		return nil, apperrors.NewConflict(msgNotReviewable, map[string]any{"status": booking.Status})
	}
	return s.transition(ctx, actor, booking, status, msgNotReviewable, domain.BookingStatusPending)
}

// transition moves booking to status provided the stored status is still one
// of from. A concurrent change in between surfaces as a conflict with message.
func (s *BookingService) transition(ctx context.Context, actor auth.Principal, booking *domain.Booking, status domain.BookingStatus, message string, from ...domain.BookingStatus) (*domain.Booking, error) {
	old := booking.Status
	booking.Status = status
	if err := s.bookings.UpdateStatus(ctx, booking, from...); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.NewConflict(message, nil)
		}
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.NewEvent(events.EventBookingStatusChanged, booking.ID, actorOf(actor), events.BookingStatusChangedPayload{
		BookingID: booking.ID,
		OwnerID:   booking.UserID,
		OldStatus: old,
		NewStatus: status,
	}))
	return booking, nil
}

func (s *BookingService) validateWindow(start, end time.Time) error {
	details := map[string]any{}
	switch {
	case start.IsZero() || end.IsZero():
		details["starts_at"] = "required"
	case !end.After(start):
		details["ends_at"] = "must be after starts_at"
	case end.Sub(start) > MaxBookingDuration:
		details["ends_at"] = "booking exceeds " + MaxBookingDuration.String()
	case !start.After(s.now()):
		details["starts_at"] = "must be in the future"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid booking window", details)
	}
	return nil
}

func (s *BookingService) getBooking(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking")
		}
		return nil, apperrors.MapError(err)
	}
	return booking, nil
}

func (s *BookingService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
