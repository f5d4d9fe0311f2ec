package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-service/internal/auth"
	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/events"
	"github.com/spec-kit/community-service/internal/repository"
	apperrors "github.com/spec-kit/community-service/pkg/util/errorutil"
)

// UserListFilters define listing parameters.
type UserListFilters struct {
	Status *domain.UserStatus
	Role   *domain.Role
	Limit  int
	Offset int
}

// SuperAdminSeed describes the account created on first start.
type SuperAdminSeed struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// UserService manages account moderation.
type UserService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
}

// UserDependencies encapsulates requirements for user administration.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     *auth.PasswordHasher
	Dispatcher events.Dispatcher
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
	}
}

// ListUsers returns accounts matching the filters.
func (s *UserService) ListUsers(ctx context.Context, filters UserListFilters) ([]domain.User, error) {
	users, err := s.users.List(ctx, repository.UserFilter{
		Status: filters.Status,
		Role:   filters.Role,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SetStatus approves or rejects an account. Staff accounts can only be
// moderated by a super admin.
func (s *UserService) SetStatus(ctx context.Context, actor auth.Principal, userID string, status domain.UserStatus) (*domain.User, error) {
	if status != domain.UserStatusApproved && status != domain.UserStatusRejected {
		return nil, apperrors.NewValidationError("status must be APPROVED or REJECTED", map[string]any{"status": status})
	}
	if actor.UserID == userID {
		return nil, apperrors.NewForbidden("cannot change your own status")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role.IsStaff() && actor.Role != domain.RoleSuperAdmin {
		return nil, apperrors.NewForbidden("only a super admin can moderate staff accounts")
	}
	old := user.Status
	if old == status {
		return user, nil
	}
	user.Status = status
	if err := s.users.UpdateStatus(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventUserStatusChanged, user.ID, actorOf(actor), events.UserStatusChangedPayload{
		UserID:    user.ID,
		OldStatus: old,
		NewStatus: status,
	}))
	return user, nil
}

// SetRole changes an account's role. Callers cannot change their own role.
func (s *UserService) SetRole(ctx context.Context, actor auth.Principal, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if actor.UserID == userID {
		return nil, apperrors.NewForbidden("cannot change your own role")
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	user.Role = role
	if err := s.users.UpdateRole(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// EnsureSuperAdmin creates the seed account when no account uses its email.
func (s *UserService) EnsureSuperAdmin(ctx context.Context, seed SuperAdminSeed) (bool, error) {
	if seed.Email == "" || seed.Password == "" {
		return false, nil
	}
	_, err := s.users.GetByEmail(ctx, normalizeEmail(seed.Email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("look up seed account: %w", err)
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return false, fmt.Errorf("hash seed password: %w", err)
	}
	name := seed.Name
	if name == "" {
		name = "Administrator"
	}
	user := &domain.User{
		Name:         name,
		Email:        normalizeEmail(seed.Email),
		Phone:        seed.Phone,
		PasswordHash: hash,
		Role:         domain.RoleSuperAdmin,
		Status:       domain.UserStatusApproved,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create seed account: %w", err)
	}
	return true, nil
}

func (s *UserService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user")
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func actorOf(p auth.Principal) events.Actor {
	return events.Actor{UserID: p.UserID, Role: p.Role}
}
