package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/wellmind/practice-platform/internal/catalog"
	"github.com/wellmind/practice-platform/internal/patients"
)

// fakeStore mirrors the repository's transactional semantics in memory so
// the engine's rules can be exercised without a database.
type fakeStore struct {
	appts map[string]*Appointment
}

func newFakeStore() *fakeStore {
	return &fakeStore{appts: make(map[string]*Appointment)}
}

func (f *fakeStore) FindForClinician(ctx context.Context, appointmentID, clinicianID string) (*Appointment, error) {
	appt, ok := f.appts[appointmentID]
	if !ok || appt.ClinicianID != clinicianID {
		return nil, ErrNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeStore) List(ctx context.Context, clinicianID string, filter ListFilter) ([]*Appointment, error) {
	var out []*Appointment
	for _, appt := range f.appts {
		if appt.ClinicianID != clinicianID {
			continue
		}
		if filter.From != nil && appt.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && appt.ScheduledAt.After(*filter.To) {
			continue
		}
		if filter.Status != nil && appt.Status != *filter.Status {
			continue
		}
		if filter.PatientID != nil && appt.PatientID != *filter.PatientID {
			continue
		}
		copied := *appt
		out = append(out, &copied)
	}
	return out, nil
}

func (f *fakeStore) CreateScheduled(ctx context.Context, appt *Appointment, windowStart, windowEnd time.Time) error {
	for _, existing := range f.appts {
		if existing.ClinicianID != appt.ClinicianID {
			continue
		}
		if existing.Status != StatusScheduled && existing.Status != StatusInProgress {
			continue
		}
		if existing.ScheduledAt.Before(windowEnd) && existing.End().After(windowStart) {
			return ErrScheduleConflict
		}
	}
	copied := *appt
	f.appts[appt.ID] = &copied
	return nil
}

func (f *fakeStore) PerformTransition(ctx context.Context, appt *Appointment, params TransitionParams, extra func(ctx context.Context, tx pgx.Tx) error) error {
	if params.GuardSingleActive {
		for id, existing := range f.appts {
			if id != appt.ID && existing.ClinicianID == appt.ClinicianID && existing.Status == StatusInProgress {
				return ErrActiveSessionExists
			}
		}
	}
	stored := f.appts[appt.ID]
	stored.Status = params.NewStatus
	if params.Notes != nil {
		stored.Notes = params.Notes
	}
	if params.AISuggestions != nil {
		stored.AISuggestions = params.AISuggestions
	}
	if extra != nil {
		return extra(ctx, nil)
	}
	return nil
}

func (f *fakeStore) ActiveSession(ctx context.Context, clinicianID string) (*Appointment, error) {
	var active *Appointment
	for _, appt := range f.appts {
		if appt.ClinicianID != clinicianID || appt.Status != StatusInProgress {
			continue
		}
		if active == nil || appt.ScheduledAt.After(active.ScheduledAt) {
			active = appt
		}
	}
	if active == nil {
		return nil, nil
	}
	copied := *active
	return &copied, nil
}

func (f *fakeStore) CountInWindow(ctx context.Context, clinicianID string, from, to time.Time, statuses []Status) (int64, error) {
	allowed := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	var count int64
	for _, appt := range f.appts {
		if appt.ClinicianID != clinicianID || !allowed[appt.Status] {
			continue
		}
		if !appt.ScheduledAt.Before(from) && appt.ScheduledAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountUpcoming(ctx context.Context, clinicianID string, from time.Time) (int64, error) {
	var count int64
	for _, appt := range f.appts {
		if appt.ClinicianID == clinicianID && appt.Status == StatusScheduled && !appt.ScheduledAt.Before(from) {
			count++
		}
	}
	return count, nil
}

type fakePatientDir struct {
	patients  map[string]*patients.Patient // id -> patient
	summaries map[string]string            // updates applied through the fold
	updateErr error
}

func newFakePatientDir() *fakePatientDir {
	return &fakePatientDir{
		patients:  make(map[string]*patients.Patient),
		summaries: make(map[string]string),
	}
}

func (f *fakePatientDir) add(id, clinicianID, name string, active bool) {
	f.patients[id] = &patients.Patient{ID: id, ClinicianID: clinicianID, Name: name, IsActive: active}
}

func (f *fakePatientDir) FindForClinician(ctx context.Context, patientID, clinicianID string) (*patients.Patient, error) {
	p, ok := f.patients[patientID]
	if !ok || p.ClinicianID != clinicianID {
		return nil, patients.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientDir) FindActiveForClinician(ctx context.Context, patientID, clinicianID string) (*patients.Patient, error) {
	p, err := f.FindForClinician(ctx, patientID, clinicianID)
	if err != nil || !p.IsActive {
		return nil, patients.ErrNotFound
	}
	return p, nil
}

func (f *fakePatientDir) UpdateClinicalSummaryTx(ctx context.Context, tx pgx.Tx, patientID, summary string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.summaries[patientID] = summary
	return nil
}

type fakeCatalog struct {
	services map[string]string // serviceID -> clinicianID
}

func (f *fakeCatalog) FindActiveForClinician(ctx context.Context, serviceID, clinicianID string) (*catalog.Service, error) {
	if f.services[serviceID] != clinicianID {
		return nil, catalog.ErrNotFound
	}
	return &catalog.Service{ID: serviceID, ClinicianID: clinicianID, IsActive: true}, nil
}

type fakeDrafter struct {
	configured bool
	summary    string
	err        error
	calls      int
}

func (f *fakeDrafter) IsConfigured() bool { return f.configured }

func (f *fakeDrafter) Draft(ctx context.Context, sessionNotes, patientName string, priorSummary *string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

type engineFixture struct {
	svc      *Service
	store    *fakeStore
	patients *fakePatientDir
	drafter  *fakeDrafter
}

func newFixture(t *testing.T, drafter *fakeDrafter) *engineFixture {
	t.Helper()
	store := newFakeStore()
	dir := newFakePatientDir()
	dir.add("pat-1", "clin-1", "Ana Souza", true)
	dir.add("pat-2", "clin-2", "Bruno Lima", true)
	cat := &fakeCatalog{services: map[string]string{"svc-1": "clin-1"}}

	var port SummaryDrafter
	if drafter != nil {
		port = drafter
	}
	svc := NewService(store, dir, cat, port, 0, nil, nil)
	return &engineFixture{svc: svc, store: store, patients: dir, drafter: drafter}
}

func mustCreate(t *testing.T, fx *engineFixture, clinicianID string, at time.Time, minutes int) *Appointment {
	t.Helper()
	appt, err := fx.svc.Create(context.Background(), clinicianID, CreateRequest{
		PatientID:       patientFor(clinicianID),
		ScheduledAt:     at,
		DurationMinutes: minutes,
	})
	require.NoError(t, err)
	return appt
}

func patientFor(clinicianID string) string {
	if clinicianID == "clin-2" {
		return "pat-2"
	}
	return "pat-1"
}

var nineAM = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestCreateOverlapScenario(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	first := mustCreate(t, fx, "clin-1", nineAM, 50)
	require.Equal(t, StatusScheduled, first.Status)

	// 09:30 falls inside the 09:00-09:50 window.
	_, err := fx.svc.Create(ctx, "clin-1", CreateRequest{
		PatientID:   "pat-1",
		ScheduledAt: nineAM.Add(30 * time.Minute),
	})
	require.ErrorIs(t, err, ErrScheduleConflict)

	// 10:30 is clear.
	third, err := fx.svc.Create(ctx, "clin-1", CreateRequest{
		PatientID:   "pat-1",
		ScheduledAt: nineAM.Add(90 * time.Minute),
	})
	require.NoError(t, err)
	require.Equal(t, StatusScheduled, third.Status)
}

func TestCreateDifferentCliniciansNeverConflict(t *testing.T) {
	fx := newFixture(t, nil)

	mustCreate(t, fx, "clin-1", nineAM, 50)
	appt := mustCreate(t, fx, "clin-2", nineAM, 50)
	require.Equal(t, "clin-2", appt.ClinicianID)
}

func TestCreateValidation(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, "clin-1", CreateRequest{ScheduledAt: nineAM})
	require.ErrorIs(t, err, ErrMissingPatient)

	_, err = fx.svc.Create(ctx, "clin-1", CreateRequest{PatientID: "pat-1"})
	require.ErrorIs(t, err, ErrMissingSchedule)

	_, err = fx.svc.Create(ctx, "clin-1", CreateRequest{
		PatientID: "pat-1", ScheduledAt: nineAM, DurationMinutes: 10,
	})
	require.ErrorIs(t, err, ErrInvalidDuration)

	_, err = fx.svc.Create(ctx, "clin-1", CreateRequest{
		PatientID: "pat-1", ScheduledAt: nineAM, DurationMinutes: 300,
	})
	require.ErrorIs(t, err, ErrInvalidDuration)
}

func TestCreateDefaultsToStandardSession(t *testing.T) {
	fx := newFixture(t, nil)
	appt := mustCreate(t, fx, "clin-1", nineAM, 0)
	require.Equal(t, DefaultDurationMinutes, appt.DurationMinutes)
}

func TestCreateUnownedPatient(t *testing.T) {
	fx := newFixture(t, nil)
	_, err := fx.svc.Create(context.Background(), "clin-1", CreateRequest{
		PatientID:   "pat-2", // owned by clin-2
		ScheduledAt: nineAM,
	})
	require.ErrorIs(t, err, ErrPatientNotFound)
}

func TestCreateUnownedService(t *testing.T) {
	fx := newFixture(t, nil)
	serviceID := "svc-1"
	_, err := fx.svc.Create(context.Background(), "clin-2", CreateRequest{
		PatientID:   "pat-2",
		ServiceID:   &serviceID, // owned by clin-1
		ScheduledAt: nineAM,
	})
	require.ErrorIs(t, err, ErrServiceNotFound)
}

func TestSingleActiveSessionGuard(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	first := mustCreate(t, fx, "clin-1", nineAM, 50)
	second := mustCreate(t, fx, "clin-1", nineAM.Add(2*time.Hour), 50)

	_, err := fx.svc.Transition(ctx, "clin-1", first.ID, TransitionRequest{Status: StatusInProgress})
	require.NoError(t, err)

	_, err = fx.svc.Transition(ctx, "clin-1", second.ID, TransitionRequest{Status: StatusInProgress})
	require.ErrorIs(t, err, ErrActiveSessionExists)

	// Completing the first frees the slot.
	_, err = fx.svc.Transition(ctx, "clin-1", first.ID, TransitionRequest{Status: StatusCompleted})
	require.NoError(t, err)
	_, err = fx.svc.Transition(ctx, "clin-1", second.ID, TransitionRequest{Status: StatusInProgress})
	require.NoError(t, err)
}

func TestTerminalStatesRejectAllTransitions(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	appt := mustCreate(t, fx, "clin-1", nineAM, 50)
	_, err := fx.svc.Transition(ctx, "clin-1", appt.ID, TransitionRequest{Status: StatusCancelled})
	require.NoError(t, err)

	for _, target := range []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled} {
		_, err := fx.svc.Transition(ctx, "clin-1", appt.ID, TransitionRequest{Status: target})
		require.ErrorIs(t, err, ErrTerminalState, "target %s", target)
	}
}

func TestScheduledCannotSkipToCompleted(t *testing.T) {
	fx := newFixture(t, nil)
	appt := mustCreate(t, fx, "clin-1", nineAM, 50)

	_, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{Status: StatusCompleted})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionUnknownStatus(t *testing.T) {
	fx := newFixture(t, nil)
	appt := mustCreate(t, fx, "clin-1", nineAM, 50)

	_, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{Status: Status("PAUSED")})
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTransitionOwnership(t *testing.T) {
	fx := newFixture(t, nil)
	appt := mustCreate(t, fx, "clin-1", nineAM, 50)

	_, err := fx.svc.Transition(context.Background(), "clin-2", appt.ID, TransitionRequest{Status: StatusInProgress})
	require.ErrorIs(t, err, ErrNotFound)
}

func startSession(t *testing.T, fx *engineFixture) *Appointment {
	t.Helper()
	appt := mustCreate(t, fx, "clin-1", nineAM, 50)
	_, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{Status: StatusInProgress})
	require.NoError(t, err)
	return appt
}

func TestCompletionWithoutDrafterStillSucceeds(t *testing.T) {
	fx := newFixture(t, nil)
	appt := startSession(t, fx)

	notes := "patient reported steady improvement"
	result, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{
		Status: StatusCompleted,
		Notes:  &notes,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Empty(t, fx.patients.summaries)
}

func TestCompletionFoldsDraftedSummary(t *testing.T) {
	drafter := &fakeDrafter{configured: true, summary: "updated clinical summary"}
	fx := newFixture(t, drafter)
	appt := startSession(t, fx)

	notes := "session notes"
	_, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{
		Status: StatusCompleted,
		Notes:  &notes,
	})
	require.NoError(t, err)
	require.Equal(t, 1, drafter.calls)
	require.Equal(t, "updated clinical summary", fx.patients.summaries["pat-1"])
}

func TestCompletionSurvivesDrafterFailure(t *testing.T) {
	drafter := &fakeDrafter{configured: true, err: errors.New("model unavailable")}
	fx := newFixture(t, drafter)
	appt := startSession(t, fx)

	notes := "session notes"
	result, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{
		Status: StatusCompleted,
		Notes:  &notes,
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	require.Empty(t, fx.patients.summaries)
}

func TestCompletionWithoutNotesSkipsDraft(t *testing.T) {
	drafter := &fakeDrafter{configured: true, summary: "should not appear"}
	fx := newFixture(t, drafter)
	appt := startSession(t, fx)

	_, err := fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{Status: StatusCompleted})
	require.NoError(t, err)
	require.Zero(t, drafter.calls)
}

func TestCompletionUsesExistingNotesWhenNoneProvided(t *testing.T) {
	drafter := &fakeDrafter{configured: true, summary: "from earlier notes"}
	fx := newFixture(t, drafter)

	notes := "intake notes"
	appt, err := fx.svc.Create(context.Background(), "clin-1", CreateRequest{
		PatientID:   "pat-1",
		ScheduledAt: nineAM,
		Notes:       &notes,
	})
	require.NoError(t, err)
	_, err = fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{Status: StatusInProgress})
	require.NoError(t, err)

	_, err = fx.svc.Transition(context.Background(), "clin-1", appt.ID, TransitionRequest{Status: StatusCompleted})
	require.NoError(t, err)
	require.Equal(t, 1, drafter.calls)
	require.Equal(t, "from earlier notes", fx.patients.summaries["pat-1"])
}

func TestActiveSessionReturnsNilWhenAbsent(t *testing.T) {
	fx := newFixture(t, nil)
	active, err := fx.svc.ActiveSession(context.Background(), "clin-1")
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestActiveSessionReturnsMostRecentlyScheduled(t *testing.T) {
	fx := newFixture(t, nil)
	appt := startSession(t, fx)

	active, err := fx.svc.ActiveSession(context.Background(), "clin-1")
	require.NoError(t, err)
	require.NotNil(t, active)
	require.Equal(t, appt.ID, active.ID)
}

func TestStatsCountsCalendarWindows(t *testing.T) {
	fx := newFixture(t, nil)
	// Monday 2026-03-02 10:00 UTC.
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	fx.svc.now = func() time.Time { return now }

	mustCreate(t, fx, "clin-1", now.Add(2*time.Hour), 50)                // today
	mustCreate(t, fx, "clin-1", now.AddDate(0, 0, 2), 50)               // this week
	mustCreate(t, fx, "clin-1", now.AddDate(0, 0, 10), 50)              // future only
	completed := mustCreate(t, fx, "clin-1", now.Add(-3*time.Hour), 50) // earlier today
	fx.store.appts[completed.ID].Status = StatusCompleted

	stats, err := fx.svc.Stats(context.Background(), "clin-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Today)    // completed ones drop out of today
	require.Equal(t, int64(3), stats.ThisWeek) // incl. the completed session
	require.Equal(t, int64(3), stats.Upcoming)
}

func TestWeekStartsOnSunday(t *testing.T) {
	// Wednesday.
	wednesday := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	start := weekStart(wednesday)
	require.Equal(t, time.Sunday, start.Weekday())
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), start)
}
