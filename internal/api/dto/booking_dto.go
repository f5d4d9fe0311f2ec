package dto

import (
	"time"

	"github.com/spec-kit/community-service/internal/domain"
)

// CreateFacilityRequest payload.
type CreateFacilityRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Capacity    int    `json:"capacity" validate:"gte=0,lte=10000"`
}

// FacilityResponse view.
type FacilityResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Capacity    int       `json:"capacity"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateBookingRequest payload. Times are RFC 3339.
type CreateBookingRequest struct {
	FacilityID string    `json:"facility_id" validate:"required,uuid"`
	StartsAt   time.Time `json:"starts_at" validate:"required"`
	EndsAt     time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Note       string    `json:"note" validate:"max=500"`
}

// BookingStatusRequest reviews a pending booking.
type BookingStatusRequest struct {
	Status domain.BookingStatus `json:"status" validate:"required,oneof=CONFIRMED REJECTED"`
}

// BookingResponse view.
type BookingResponse struct {
	ID         string               `json:"id"`
	FacilityID string               `json:"facility_id"`
	UserID     string               `json:"user_id"`
	StartsAt   time.Time            `json:"starts_at"`
	EndsAt     time.Time            `json:"ends_at"`
	Status     domain.BookingStatus `json:"status"`
	Note       string               `json:"note,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// NewFacilityResponse maps a domain facility.
func NewFacilityResponse(f *domain.Facility) FacilityResponse {
	return FacilityResponse{
		ID:          f.ID,
		Name:        f.Name,
		Description: f.Description,
		Capacity:    f.Capacity,
		IsActive:    f.IsActive,
		CreatedAt:   f.CreatedAt,
	}
}

// NewBookingResponse maps a domain booking.
func NewBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		ID:         b.ID,
		FacilityID: b.FacilityID,
		UserID:     b.UserID,
		StartsAt:   b.StartsAt,
		EndsAt:     b.EndsAt,
		Status:     b.Status,
		Note:       b.Note,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}
