package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repository needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides read access to the service catalog.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("catalog: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// FindActiveForClinician loads an active service scoped to its clinician.
func (r *Repository) FindActiveForClinician(ctx context.Context, serviceID, clinicianID string) (*Service, error) {
	query := `SELECT id, clinician_id, name, default_price_cents, duration_minutes, is_active, created_at
		FROM services WHERE id = $1 AND clinician_id = $2 AND is_active`

	var s Service
	err := r.db.QueryRow(ctx, query, serviceID, clinicianID).Scan(
		&s.ID,
		&s.ClinicianID,
		&s.Name,
		&s.DefaultPrice,
		&s.DurationMinutes,
		&s.IsActive,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("catalog: load service: %w", err)
	}
	return &s, nil
}
