package worker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/persistence"
	"github.com/spec-kit/community-service/internal/service"
)

func TestWorkerRegistersHandlersAndReportsBacklog(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	queue := persistence.NewRedisPushQueue(&persistence.Redis{Client: client}, "notifications:push")

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	dispatcher := events.NewInMemoryDispatcher(logger)
	notifications := service.NewNotificationService(dispatcher, queue, logger, config.NotificationConfig{PushQueueKey: "notifications:push"})

	w := NewNotificationWorker(notifications, queue, logger, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventUserStatusChanged, "u1", events.Actor{UserID: "admin"},
		events.UserStatusChangedPayload{UserID: "u1", OldStatus: domain.UserStatusPending, NewStatus: domain.UserStatusApproved})))

	assert.Equal(t, int64(1), w.checkBacklog(ctx))
	assert.Equal(t, 1, logs.FilterMessage("push backlog").Len())

	w.warnAbove = 0
	w.checkBacklog(ctx)
	assert.Equal(t, 1, logs.FilterMessage("push backlog growing").Len())
}

func TestWorkerBacklogFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	w := NewNotificationWorker(nil, persistence.NewRedisPushQueue(nil, "k"), zap.New(core), 0)
	assert.Equal(t, int64(-1), w.checkBacklog(context.Background()))
	assert.Equal(t, 1, logs.FilterMessage("push backlog check failed").Len())
}
