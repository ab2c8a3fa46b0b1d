package appointments

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wellmind/practice-platform/internal/catalog"
	"github.com/wellmind/practice-platform/internal/metrics"
	"github.com/wellmind/practice-platform/internal/patients"
	"github.com/wellmind/practice-platform/pkg/logging"
)

var appointmentsTracer = otel.Tracer("practice.internal.appointments")

// Store is the persistence port the engine drives.
type Store interface {
	FindForClinician(ctx context.Context, appointmentID, clinicianID string) (*Appointment, error)
	List(ctx context.Context, clinicianID string, filter ListFilter) ([]*Appointment, error)
	CreateScheduled(ctx context.Context, appt *Appointment, windowStart, windowEnd time.Time) error
	PerformTransition(ctx context.Context, appt *Appointment, params TransitionParams, extra func(ctx context.Context, tx pgx.Tx) error) error
	ActiveSession(ctx context.Context, clinicianID string) (*Appointment, error)
	CountInWindow(ctx context.Context, clinicianID string, from, to time.Time, statuses []Status) (int64, error)
	CountUpcoming(ctx context.Context, clinicianID string, from time.Time) (int64, error)
}

// PatientDirectory verifies ownership and carries the clinical summary.
type PatientDirectory interface {
	FindForClinician(ctx context.Context, patientID, clinicianID string) (*patients.Patient, error)
	FindActiveForClinician(ctx context.Context, patientID, clinicianID string) (*patients.Patient, error)
	UpdateClinicalSummaryTx(ctx context.Context, tx pgx.Tx, patientID, summary string) error
}

// ServiceCatalog verifies ownership of linked services.
type ServiceCatalog interface {
	FindActiveForClinician(ctx context.Context, serviceID, clinicianID string) (*catalog.Service, error)
}

// SummaryDrafter is the optional text-generation port. Its failures must
// never affect the outcome of a transition.
type SummaryDrafter interface {
	IsConfigured() bool
	Draft(ctx context.Context, sessionNotes, patientName string, priorSummary *string) (string, error)
}

// Service owns the appointment state machine.
type Service struct {
	store    Store
	patients PatientDirectory
	catalog  ServiceCatalog
	drafter  SummaryDrafter
	buffer   time.Duration
	logger   *logging.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService constructs an appointments service. The drafter may be nil.
// The buffer widens the conflict window on both sides of a candidate
// session.
func NewService(store Store, patientDir PatientDirectory, serviceCatalog ServiceCatalog, drafter SummaryDrafter, buffer time.Duration, logger *logging.Logger, m *metrics.Metrics) *Service {
	if store == nil {
		panic("appointments: store required")
	}
	if patientDir == nil {
		panic("appointments: patient directory required")
	}
	if serviceCatalog == nil {
		panic("appointments: service catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Service{
		store:    store,
		patients: patientDir,
		catalog:  serviceCatalog,
		drafter:  drafter,
		buffer:   buffer,
		logger:   logger.WithComponent("appointments"),
		metrics:  m,
		now:      time.Now,
	}
}

// Create validates ownership, runs the overlap check, and persists a new
// SCHEDULED appointment. The conflict window covers the session's actual
// interval (start, start+duration) plus the configured buffer on each side.
func (s *Service) Create(ctx context.Context, clinicianID string, req CreateRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()
	span.SetAttributes(attribute.String("practice.patient_id", req.PatientID))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.patients.FindActiveForClinician(ctx, req.PatientID, clinicianID); err != nil {
		if err == patients.ErrNotFound {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	if req.ServiceID != nil {
		if _, err := s.catalog.FindActiveForClinician(ctx, *req.ServiceID, clinicianID); err != nil {
			if err == catalog.ErrNotFound {
				return nil, ErrServiceNotFound
			}
			return nil, err
		}
	}

	appt := &Appointment{
		ID:              uuid.NewString(),
		ClinicianID:     clinicianID,
		PatientID:       req.PatientID,
		ServiceID:       req.ServiceID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Status:          StatusScheduled,
		Notes:           req.Notes,
		CreatedAt:       s.now().UTC(),
		UpdatedAt:       s.now().UTC(),
	}

	windowStart := req.ScheduledAt.Add(-s.buffer)
	windowEnd := appt.End().Add(s.buffer)
	if err := s.store.CreateScheduled(ctx, appt, windowStart, windowEnd); err != nil {
		if err == ErrScheduleConflict {
			s.metrics.AppointmentConflicts.Inc()
			return nil, err
		}
		span.RecordError(err)
		return nil, err
	}

	s.metrics.AppointmentsCreated.Inc()
	s.logger.Info("appointment created",
		"appointment_id", appt.ID,
		"patient_id", appt.PatientID,
		"scheduled_at", appt.ScheduledAt,
		"duration_minutes", appt.DurationMinutes,
	)
	return appt, nil
}

// Transition moves an appointment through the state machine. Completing an
// in-progress session with notes additionally drafts an updated clinical
// summary; that step is best-effort and its failure never reaches the
// caller.
func (s *Service) Transition(ctx context.Context, clinicianID, appointmentID string, req TransitionRequest) (*Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.transition")
	defer span.End()
	span.SetAttributes(
		attribute.String("practice.appointment_id", appointmentID),
		attribute.String("practice.target_status", string(req.Status)),
	)

	if !req.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	appt, err := s.store.FindForClinician(ctx, appointmentID, clinicianID)
	if err != nil {
		return nil, err
	}
	if appt.Status.Terminal() {
		return nil, ErrTerminalState
	}
	if !appt.CanTransitionTo(req.Status) {
		return nil, ErrInvalidTransition
	}

	var extra func(ctx context.Context, tx pgx.Tx) error
	if req.Status == StatusCompleted {
		extra = s.prepareSummaryFold(ctx, clinicianID, appt, req.Notes)
	}

	params := TransitionParams{
		NewStatus:         req.Status,
		Notes:             req.Notes,
		AISuggestions:     req.AISuggestions,
		GuardSingleActive: req.Status == StatusInProgress,
	}
	if err := s.store.PerformTransition(ctx, appt, params, extra); err != nil {
		if err != ErrActiveSessionExists {
			span.RecordError(err)
		}
		return nil, err
	}

	appt.Status = req.Status
	if req.Notes != nil {
		appt.Notes = req.Notes
	}
	if req.AISuggestions != nil {
		appt.AISuggestions = req.AISuggestions
	}
	appt.UpdatedAt = s.now().UTC()

	s.metrics.AppointmentTransitions.WithLabelValues(string(req.Status)).Inc()
	s.logger.Info("appointment transitioned",
		"appointment_id", appt.ID,
		"status", appt.Status,
	)
	return appt, nil
}

// prepareSummaryFold drafts the updated clinical summary ahead of the
// transition write and returns the in-transaction patient update, or nil
// when drafting is unavailable or fails.
func (s *Service) prepareSummaryFold(ctx context.Context, clinicianID string, appt *Appointment, newNotes *string) func(ctx context.Context, tx pgx.Tx) error {
	notes := effectiveNotes(newNotes, appt.Notes)
	if strings.TrimSpace(notes) == "" {
		return nil
	}
	if s.drafter == nil || !s.drafter.IsConfigured() {
		return nil
	}

	patient, err := s.patients.FindForClinician(ctx, appt.PatientID, clinicianID)
	if err != nil {
		s.metrics.SummaryDraftFailures.Inc()
		s.logger.Warn("summary draft skipped: patient load failed",
			"appointment_id", appt.ID, "error", err)
		return nil
	}

	summary, err := s.drafter.Draft(ctx, notes, patient.Name, patient.ClinicalSummary)
	if err != nil {
		s.metrics.SummaryDraftFailures.Inc()
		s.logger.Warn("clinical summary draft failed",
			"appointment_id", appt.ID, "error", err)
		return nil
	}

	patientID := appt.PatientID
	return func(ctx context.Context, tx pgx.Tx) error {
		return s.patients.UpdateClinicalSummaryTx(ctx, tx, patientID, summary)
	}
}

// ActiveSession returns the clinician's IN_PROGRESS appointment, or nil
// when there is none. Absence is not an error.
func (s *Service) ActiveSession(ctx context.Context, clinicianID string) (*Appointment, error) {
	return s.store.ActiveSession(ctx, clinicianID)
}

// Get loads one appointment scoped to the clinician.
func (s *Service) Get(ctx context.Context, clinicianID, appointmentID string) (*Appointment, error) {
	return s.store.FindForClinician(ctx, appointmentID, clinicianID)
}

// List returns the clinician's appointments under the given filter.
func (s *Service) List(ctx context.Context, clinicianID string, filter ListFilter) ([]*Appointment, error) {
	return s.store.List(ctx, clinicianID, filter)
}

// ByDate returns the clinician's appointments on the given local calendar
// day.
func (s *Service) ByDate(ctx context.Context, clinicianID string, date time.Time) ([]*Appointment, error) {
	from := dayStart(date)
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return s.store.List(ctx, clinicianID, ListFilter{From: &from, To: &to})
}

// Stats counts today's and this week's active schedule plus all upcoming
// sessions against local calendar boundaries. The week starts on Sunday.
func (s *Service) Stats(ctx context.Context, clinicianID string) (*Stats, error) {
	now := s.now()
	today := dayStart(now)
	tomorrow := today.AddDate(0, 0, 1)
	week := weekStart(now)
	weekEnd := week.AddDate(0, 0, 7)

	todayCount, err := s.store.CountInWindow(ctx, clinicianID, today, tomorrow,
		[]Status{StatusScheduled, StatusInProgress})
	if err != nil {
		return nil, err
	}
	weekCount, err := s.store.CountInWindow(ctx, clinicianID, week, weekEnd,
		[]Status{StatusScheduled, StatusInProgress, StatusCompleted})
	if err != nil {
		return nil, err
	}
	upcoming, err := s.store.CountUpcoming(ctx, clinicianID, today)
	if err != nil {
		return nil, err
	}

	return &Stats{Today: todayCount, ThisWeek: weekCount, Upcoming: upcoming}, nil
}

func effectiveNotes(newNotes, existing *string) string {
	if newNotes != nil && strings.TrimSpace(*newNotes) != "" {
		return *newNotes
	}
	if existing != nil {
		return *existing
	}
	return ""
}

func dayStart(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func weekStart(t time.Time) time.Time {
	ds := dayStart(t)
	return ds.AddDate(0, 0, -int(ds.Weekday()))
}
