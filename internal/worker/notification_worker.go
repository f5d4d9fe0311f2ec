package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/community-service/internal/service"
)

// QueueDepth reports how many push messages await the external deliverer.
type QueueDepth interface {
	Len(ctx context.Context) (int64, error)
}

// NotificationWorker subscribes the notification service to domain events
// and watches the push backlog.
type NotificationWorker struct {
	notifications *service.NotificationService
	queue         QueueDepth
	logger        *zap.Logger
	interval      time.Duration
	warnAbove     int64
}

// NewNotificationWorker builds the worker. A zero interval disables backlog checks.
func NewNotificationWorker(notifications *service.NotificationService, queue QueueDepth, logger *zap.Logger, interval time.Duration) *NotificationWorker {
	return &NotificationWorker{
		notifications: notifications,
		queue:         queue,
		logger:        logger,
		interval:      interval,
		warnAbove:     1000,
	}
}

// Start registers notification handlers and, when configured, polls the
// backlog until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	if w == nil || w.notifications == nil {
		return
	}
	w.notifications.RegisterHandlers()
	if w.queue == nil || w.interval <= 0 {
		return
	}
	go w.watch(ctx)
}

func (w *NotificationWorker) watch(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkBacklog(ctx)
		}
	}
}

func (w *NotificationWorker) checkBacklog(ctx context.Context) int64 {
	n, err := w.queue.Len(ctx)
	if err != nil {
		w.logger.Warn("push backlog check failed", zap.Error(err))
		return -1
	}
	if n > w.warnAbove {
		w.logger.Warn("push backlog growing", zap.Int64("pending", n))
	} else {
		w.logger.Debug("push backlog", zap.Int64("pending", n))
	}
	return n
}
