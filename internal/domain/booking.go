package domain

import "time"

// BookingStatus enumerates lifecycle states for facility bookings.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusRejected, BookingStatusCancelled:
		return true
	}
	return false
}

// Holds reports whether a booking in this status blocks its time slot.
func (s BookingStatus) Holds() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// Booking reserves a facility for a time window.
type Booking struct {
	ID         string
	FacilityID string
	UserID     string
	StartsAt   time.Time
	EndsAt     time.Time
	Status     BookingStatus
	Note       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Overlaps reports whether the booking window intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartsAt.Before(end) && start.Before(b.EndsAt)
}
