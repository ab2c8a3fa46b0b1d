package patients

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository provides persistence helpers for patients.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

const patientColumns = `id, clinician_id, name, email, phone, birth_date, clinical_summary, is_active, created_at`

// FindForClinician loads a patient scoped to its clinician.
func (r *Repository) FindForClinician(ctx context.Context, patientID, clinicianID string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND clinician_id = $2`
	return r.scanOne(ctx, query, patientID, clinicianID)
}

// FindActiveForClinician loads a patient scoped to its clinician, requiring
// the record to be active.
func (r *Repository) FindActiveForClinician(ctx context.Context, patientID, clinicianID string) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1 AND clinician_id = $2 AND is_active`
	return r.scanOne(ctx, query, patientID, clinicianID)
}

// UpdateClinicalSummaryTx rewrites the patient's rolling clinical summary
// inside the caller's transaction, so the appointment completion and the
// summary land atomically.
func (r *Repository) UpdateClinicalSummaryTx(ctx context.Context, tx pgx.Tx, patientID, summary string) error {
	tag, err := tx.Exec(ctx, `UPDATE patients SET clinical_summary = $2 WHERE id = $1`, patientID, summary)
	if err != nil {
		return fmt.Errorf("patients: update clinical summary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) scanOne(ctx context.Context, query string, args ...any) (*Patient, error) {
	var p Patient
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.ClinicianID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.BirthDate,
		&p.ClinicalSummary,
		&p.IsActive,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: load: %w", err)
	}
	return &p, nil
}
