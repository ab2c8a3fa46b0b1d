package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides persistence for appointments. Mutations that carry
// business invariants (overlap check, single active session, folded patient
// update) run inside one transaction; the schema's exclusion constraint
// backstops concurrent writers.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

const appointmentColumns = `id, clinician_id, patient_id, service_id, scheduled_at, duration_minutes, status, notes, ai_suggestions, created_at, updated_at`

// FindForClinician loads an appointment scoped to its clinician.
func (r *Repository) FindForClinician(ctx context.Context, appointmentID, clinicianID string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND clinician_id = $2`
	var a Appointment
	err := scanAppointment(r.db.QueryRow(ctx, query, appointmentID, clinicianID), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	return &a, nil
}

// List returns a clinician's appointments, filtered, earliest first.
func (r *Repository) List(ctx context.Context, clinicianID string, filter ListFilter) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE clinician_id = $1`
	args := []any{clinicianID}
	argIdx := 2

	if filter.From != nil {
		query += fmt.Sprintf(" AND scheduled_at >= $%d", argIdx)
		args = append(args, *filter.From)
		argIdx++
	}
	if filter.To != nil {
		query += fmt.Sprintf(" AND scheduled_at <= $%d", argIdx)
		args = append(args, *filter.To)
		argIdx++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*filter.Status))
		argIdx++
	}
	if filter.PatientID != nil {
		query += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, *filter.PatientID)
		argIdx++
	}
	query += " ORDER BY scheduled_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		var a Appointment
		if err := scanAppointment(rows, &a); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		appointments = append(appointments, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	return appointments, nil
}

const overlapQuery = `SELECT COUNT(*) FROM appointments
	WHERE clinician_id = $1
	  AND status IN ('SCHEDULED', 'IN_PROGRESS')
	  AND scheduled_at < $3
	  AND scheduled_at + make_interval(mins => duration_minutes) > $2`

// CreateScheduled checks the window against existing SCHEDULED/IN_PROGRESS
// appointments and inserts the row, all in one transaction.
func (r *Repository) CreateScheduled(ctx context.Context, appt *Appointment, windowStart, windowEnd time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var overlapping int64
	if err := tx.QueryRow(ctx, overlapQuery, appt.ClinicianID, windowStart, windowEnd).Scan(&overlapping); err != nil {
		return fmt.Errorf("appointments: overlap check: %w", err)
	}
	if overlapping > 0 {
		return ErrScheduleConflict
	}

	_, err = tx.Exec(ctx, `INSERT INTO appointments
		(id, clinician_id, patient_id, service_id, scheduled_at, duration_minutes, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		appt.ID, appt.ClinicianID, appt.PatientID, appt.ServiceID,
		appt.ScheduledAt, appt.DurationMinutes, string(appt.Status), appt.Notes,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit create: %w", err)
	}
	return nil
}

// TransitionParams drives PerformTransition.
type TransitionParams struct {
	NewStatus     Status
	Notes         *string
	AISuggestions json.RawMessage

	// GuardSingleActive rejects the transition when another appointment
	// for the clinician is already IN_PROGRESS.
	GuardSingleActive bool
}

// PerformTransition persists a status change. The optional extra step runs
// inside the same transaction, which is how a refreshed patient summary is
// folded into a completion atomically.
func (r *Repository) PerformTransition(ctx context.Context, appt *Appointment, params TransitionParams, extra func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin transition: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if params.GuardSingleActive {
		var active int64
		err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM appointments
			WHERE clinician_id = $1 AND status = 'IN_PROGRESS' AND id <> $2`,
			appt.ClinicianID, appt.ID).Scan(&active)
		if err != nil {
			return fmt.Errorf("appointments: active session check: %w", err)
		}
		if active > 0 {
			return ErrActiveSessionExists
		}
	}

	_, err = tx.Exec(ctx, `UPDATE appointments
		SET status = $2,
		    notes = COALESCE($3, notes),
		    ai_suggestions = COALESCE($4, ai_suggestions),
		    updated_at = now()
		WHERE id = $1`,
		appt.ID, string(params.NewStatus), params.Notes, params.AISuggestions,
	)
	if err != nil {
		return fmt.Errorf("appointments: update status: %w", err)
	}

	if extra != nil {
		if err := extra(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit transition: %w", err)
	}
	return nil
}

// ActiveSession returns the clinician's IN_PROGRESS appointment, most
// recently scheduled first, or nil when there is none.
func (r *Repository) ActiveSession(ctx context.Context, clinicianID string) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE clinician_id = $1 AND status = 'IN_PROGRESS'
		ORDER BY scheduled_at DESC LIMIT 1`

	var a Appointment
	err := scanAppointment(r.db.QueryRow(ctx, query, clinicianID), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("appointments: active session: %w", err)
	}
	return &a, nil
}

// CountInWindow counts appointments in [from, to) with any of the given
// statuses.
func (r *Repository) CountInWindow(ctx context.Context, clinicianID string, from, to time.Time, statuses []Status) (int64, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments
		WHERE clinician_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3 AND status = ANY($4)`,
		clinicianID, from, to, names).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appointments: count window: %w", err)
	}
	return count, nil
}

// CountUpcoming counts SCHEDULED appointments from the given instant on.
func (r *Repository) CountUpcoming(ctx context.Context, clinicianID string, from time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM appointments
		WHERE clinician_id = $1 AND scheduled_at >= $2 AND status = 'SCHEDULED'`,
		clinicianID, from).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("appointments: count upcoming: %w", err)
	}
	return count, nil
}

func scanAppointment(row pgx.Row, a *Appointment) error {
	var status string
	var suggestions []byte
	err := row.Scan(
		&a.ID,
		&a.ClinicianID,
		&a.PatientID,
		&a.ServiceID,
		&a.ScheduledAt,
		&a.DurationMinutes,
		&status,
		&a.Notes,
		&suggestions,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return err
	}
	a.Status = Status(status)
	a.AISuggestions = suggestions
	return nil
}
