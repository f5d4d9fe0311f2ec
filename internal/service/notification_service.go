package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/persistence"
)

// PushQueue accepts messages for the external push deliverer.
type PushQueue interface {
	Enqueue(ctx context.Context, msg persistence.PushMessage) error
}

// NotificationService turns domain events into push messages.
type NotificationService struct {
	dispatcher events.Dispatcher
	queue      PushQueue
	logger     *zap.Logger
	cfg        config.NotificationConfig
	now        func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, queue PushQueue, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventUserStatusChanged, n.handleUserStatusChanged)
	n.dispatcher.Subscribe(events.EventBookingCreated, n.handleBookingCreated)
	n.dispatcher.Subscribe(events.EventBookingStatusChanged, n.handleBookingStatusChanged)
}

func (n *NotificationService) handleUserStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	var title, body string
	switch payload.NewStatus {
	case domain.UserStatusApproved:
		title, body = "Account approved", "Your residence account is active. You can now sign in."
	case domain.UserStatusRejected:
		title, body = "Account rejected", "Your registration was not approved. Contact the management office."
	default:
		return nil
	}
	return n.push(ctx, event, payload.UserID, title, body)
}

func (n *NotificationService) handleBookingCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	body := fmt.Sprintf("Your request for %s on %s is awaiting approval.",
		payload.FacilityName, payload.StartsAt.Format("2006-01-02 15:04"))
	return n.push(ctx, event, payload.OwnerID, "Booking received", body)
}

func (n *NotificationService) handleBookingStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.BookingStatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	// Owners are not notified about their own cancellations.
	if event.Actor.UserID == payload.OwnerID {
		return nil
	}
	var title string
	switch payload.NewStatus {
	case domain.BookingStatusConfirmed:
		title = "Booking confirmed"
	case domain.BookingStatusRejected:
		title = "Booking rejected"
	case domain.BookingStatusCancelled:
		title = "Booking cancelled"
	default:
		return nil
	}
	return n.push(ctx, event, payload.OwnerID, title, "Booking "+payload.BookingID+" is now "+string(payload.NewStatus)+".")
}

func (n *NotificationService) push(ctx context.Context, event events.Event, userID, title, body string) error {
	if n.queue == nil {
		n.logger.Debug("push queue disabled", zap.String("event_type", string(event.Type)))
		return nil
	}
	msg := persistence.PushMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Event:     string(event.Type),
		CreatedAt: n.now().UTC(),
	}
	if err := n.queue.Enqueue(ctx, msg); err != nil {
		return fmt.Errorf("enqueue push for %s: %w", userID, err)
	}
	n.logger.Info("push queued",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", userID),
		zap.String("queue", n.cfg.PushQueueKey))
	return nil
}
