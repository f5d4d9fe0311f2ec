package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-service/internal/domain"
)

// UserFilter narrows user listings.
type UserFilter struct {
	Status *domain.UserStatus
	Role   *domain.Role
	Limit  int
	Offset int
}

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// UpdateStatus, UpdateRole and UpdatePasswordHash each write one column
	// so concurrent edits of different fields do not overwrite each other.
	UpdateStatus(ctx context.Context, user *domain.User) error
	UpdateRole(ctx context.Context, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, phone, unit_number, password_hash, role, status, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, unit_number, password_hash, role, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.UnitNumber,
		user.PasswordHash,
		user.Role,
		user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) UpdateStatus(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users SET status=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, user.Status, user.ID).Scan(&user.UpdatedAt)
}

func (r *userRepository) UpdateRole(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users SET role=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, user.Role, user.ID).Scan(&user.UpdatedAt)
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, user *domain.User) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2 RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, user.PasswordHash, user.ID).Scan(&user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	qb := newQueryBuilder(`SELECT ` + userColumns + ` FROM users`)
	if filter.Status != nil {
		qb.where("status = ?", *filter.Status)
	}
	if filter.Role != nil {
		qb.where("role = ?", *filter.Role)
	}
	query, args := qb.build("created_at DESC", filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.UnitNumber,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
