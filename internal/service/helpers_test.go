package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"

	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/config"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/persistence"
	"github.com/spec-kit/community-service/internal/repository"
	"github.com/spec-kit/community-service/internal/repository/memstore"
)

type recordingQueue struct {
	mu       sync.Mutex
	messages []persistence.PushMessage
	err      error
}

func (q *recordingQueue) Enqueue(_ context.Context, msg persistence.PushMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, msg)
	return nil
}

func (q *recordingQueue) Sent() []persistence.PushMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]persistence.PushMessage(nil), q.messages...)
}

type harness struct {
	store    *memstore.Store
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenCodec
	queue    *recordingQueue
	auth     *AuthService
	users    *UserService
	bookings *BookingService
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	tokens, err := auth.NewTokenCodec(config.AuthConfig{
		JWTSecret:             "service-test-secret",
		Issuer:                "community-service",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLHours:  24,
	})
	require.NoError(t, err)

	store := memstore.NewStore()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	queue := &recordingQueue{}
	NewNotificationService(dispatcher, queue, zap.NewNop(), config.NotificationConfig{PushQueueKey: "test"}).RegisterHandlers()

	return &harness{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		queue:  queue,
		now:    now,
		auth:   NewAuthService(AuthDependencies{UserRepo: store.Users(), Hasher: hasher, Tokens: tokens}),
		users:  NewUserService(UserDependencies{UserRepo: store.Users(), Hasher: hasher, Dispatcher: dispatcher}),
		bookings: NewBookingService(BookingDependencies{
			FacilityRepo: store.Facilities(),
			BookingRepo:  store.Bookings(),
			Dispatcher:   dispatcher,
			Now:          func() time.Time { return now },
		}),
	}
}

// seedUser stores an account with the given role and status and returns its principal.
func (h *harness) seedUser(t *testing.T, email string, role domain.Role, status domain.UserStatus) auth.Principal {
	t.Helper()
	hash, err := h.hasher.Hash("correct-horse")
	require.NoError(t, err)
	user := &domain.User{
		Name:         "User " + email,
		Email:        email,
		Phone:        "+" + email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
	require.NoError(t, h.store.Users().Create(context.Background(), user))
	return auth.Principal{UserID: user.ID, Role: role}
}

func principalFor(userID string, role domain.Role) auth.Principal {
	return auth.Principal{UserID: userID, Role: role}
}

// hookedUsers runs beforeWrite once, after the service has read the row and
// before its write lands.
type hookedUsers struct {
	repository.UserRepository
	beforeWrite func()
}

func (r *hookedUsers) fire() {
	if hook := r.beforeWrite; hook != nil {
		r.beforeWrite = nil
		hook()
	}
}

func (r *hookedUsers) UpdateStatus(ctx context.Context, user *domain.User) error {
	r.fire()
	return r.UserRepository.UpdateStatus(ctx, user)
}

// hookedBookings is the booking counterpart of hookedUsers.
type hookedBookings struct {
	repository.BookingRepository
	beforeWrite func()
}

func (r *hookedBookings) UpdateStatus(ctx context.Context, booking *domain.Booking, from ...domain.BookingStatus) error {
	if hook := r.beforeWrite; hook != nil {
		r.beforeWrite = nil
		hook()
	}
	return r.BookingRepository.UpdateStatus(ctx, booking, from...)
}
