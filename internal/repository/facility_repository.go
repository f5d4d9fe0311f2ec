package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/community-service/internal/domain"
)

// FacilityRepository manages facility persistence.
type FacilityRepository interface {
	Create(ctx context.Context, facility *domain.Facility) error
	GetByID(ctx context.Context, id string) (*domain.Facility, error)
	List(ctx context.Context, includeInactive bool) ([]domain.Facility, error)
}

type facilityRepository struct {
	pool *pgxpool.Pool
}

// NewFacilityRepository builds the repository.
func NewFacilityRepository(pool *pgxpool.Pool) FacilityRepository {
	return &facilityRepository{pool: pool}
}

func (r *facilityRepository) Create(ctx context.Context, facility *domain.Facility) error {
	const query = `
        INSERT INTO facilities (name, description, capacity, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		facility.Name,
		facility.Description,
		facility.Capacity,
		facility.IsActive,
	).Scan(&facility.ID, &facility.CreatedAt, &facility.UpdatedAt)
}

func (r *facilityRepository) GetByID(ctx context.Context, id string) (*domain.Facility, error) {
	const query = `
        SELECT id, name, description, capacity, is_active, created_at, updated_at
        FROM facilities WHERE id=$1`
	var f domain.Facility
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Description, &f.Capacity, &f.IsActive, &f.CreatedAt, &f.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *facilityRepository) List(ctx context.Context, includeInactive bool) ([]domain.Facility, error) {
	query := `
        SELECT id, name, description, capacity, is_active, created_at, updated_at
        FROM facilities`
	if !includeInactive {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Facility, error) {
		var f domain.Facility
		err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Capacity, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
		return f, err
	})
}
