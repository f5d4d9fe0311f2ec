package memstore

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/community-service/internal/domain"
	"github.com/spec-kit/community-service/internal/repository"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkUnique(user); err != nil {
		return err
	}
	now := r.s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) UpdateStatus(_ context.Context, user *domain.User) error {
	return r.patch(user, func(stored *domain.User) { stored.Status = user.Status })
}

func (r *userRepo) UpdateRole(_ context.Context, user *domain.User) error {
	return r.patch(user, func(stored *domain.User) { stored.Role = user.Role })
}

func (r *userRepo) UpdatePasswordHash(_ context.Context, user *domain.User) error {
	return r.patch(user, func(stored *domain.User) { stored.PasswordHash = user.PasswordHash })
}

// patch applies set to the stored row so untouched columns keep their current values.
func (r *userRepo) patch(user *domain.User, set func(stored *domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	set(&stored)
	stored.UpdatedAt = r.s.now()
	user.UpdatedAt = stored.UpdatedAt
	r.s.users[user.ID] = stored
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, user := range r.s.users {
		if equalFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []domain.User
	for _, user := range r.s.users {
		if filter.Status != nil && user.Status != *filter.Status {
			continue
		}
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		out = append(out, user)
	}
	sortByCreatedDesc(out)
	return page(out, filter.Limit, filter.Offset), nil
}

// checkUnique mirrors the users_email_key and users_phone_key constraints.
func (r *userRepo) checkUnique(user *domain.User) error {
	for id, existing := range r.s.users {
		if id == user.ID {
			continue
		}
		if equalFold(existing.Email, user.Email) {
			return uniqueViolation("users_email_key")
		}
		if user.Phone != "" && existing.Phone == user.Phone {
			return uniqueViolation("users_phone_key")
		}
	}
	return nil
}
