package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/community-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserStatusChanged    EventType = "user_status_changed"
	EventBookingCreated       EventType = "booking_created"
	EventBookingStatusChanged EventType = "booking_status_changed"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	SubjectID string    `json:"subject_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent stamps an event with an id and time.
func NewEvent(eventType EventType, subjectID string, actor Actor, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserStatusChangedPayload payload.
type UserStatusChangedPayload struct {
	UserID    string            `json:"user_id"`
	OldStatus domain.UserStatus `json:"old_status"`
	NewStatus domain.UserStatus `json:"new_status"`
}

// BookingCreatedPayload payload.
type BookingCreatedPayload struct {
	BookingID    string    `json:"booking_id"`
	FacilityID   string    `json:"facility_id"`
	FacilityName string    `json:"facility_name"`
	OwnerID      string    `json:"owner_id"`
	StartsAt     time.Time `json:"starts_at"`
	EndsAt       time.Time `json:"ends_at"`
}

// BookingStatusChangedPayload payload.
type BookingStatusChangedPayload struct {
	BookingID string               `json:"booking_id"`
	OwnerID   string               `json:"owner_id"`
	OldStatus domain.BookingStatus `json:"old_status"`
	NewStatus domain.BookingStatus `json:"new_status"`
}
