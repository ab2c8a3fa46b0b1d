package appointments

import (
	"encoding/json"
	"strings"
	"time"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled  Status = "SCHEDULED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Session duration bounds in minutes.
const (
	MinDurationMinutes     = 15
	MaxDurationMinutes     = 240
	DefaultDurationMinutes = 50
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Appointment represents one scheduled clinical session, exclusively owned
// by its clinician.
type Appointment struct {
	ID              string          `json:"id"`
	ClinicianID     string          `json:"clinician_id"`
	PatientID       string          `json:"patient_id"`
	ServiceID       *string         `json:"service_id,omitempty"`
	ScheduledAt     time.Time       `json:"scheduled_at"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          Status          `json:"status"`
	Notes           *string         `json:"notes,omitempty"`
	AISuggestions   json.RawMessage `json:"ai_suggestions,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// End returns the instant the session window closes.
func (a *Appointment) End() time.Time {
	return a.ScheduledAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// CanTransitionTo encodes the state machine:
// SCHEDULED -> IN_PROGRESS | CANCELLED, IN_PROGRESS -> COMPLETED | CANCELLED.
func (a *Appointment) CanTransitionTo(target Status) bool {
	if a.Status.Terminal() {
		return false
	}
	switch a.Status {
	case StatusScheduled:
		return target == StatusInProgress || target == StatusCancelled
	case StatusInProgress:
		return target == StatusCompleted || target == StatusCancelled
	}
	return false
}

// CreateRequest is the raw creation input.
type CreateRequest struct {
	PatientID       string    `json:"patient_id"`
	ServiceID       *string   `json:"service_id,omitempty"`
	ScheduledAt     time.Time `json:"scheduled_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Notes           *string   `json:"notes,omitempty"`
}

// Validate normalizes and checks the request. A zero duration takes the
// standard 50-minute session.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatient
	}
	if r.ScheduledAt.IsZero() {
		return ErrMissingSchedule
	}
	if r.DurationMinutes == 0 {
		r.DurationMinutes = DefaultDurationMinutes
	}
	if r.DurationMinutes < MinDurationMinutes || r.DurationMinutes > MaxDurationMinutes {
		return ErrInvalidDuration
	}
	return nil
}

// TransitionRequest is the raw status-change input.
type TransitionRequest struct {
	Status        Status          `json:"status"`
	Notes         *string         `json:"notes,omitempty"`
	AISuggestions json.RawMessage `json:"ai_suggestions,omitempty"`
}

// Stats aggregates a clinician's schedule against local calendar
// boundaries.
type Stats struct {
	Today    int64 `json:"today"`
	ThisWeek int64 `json:"this_week"`
	Upcoming int64 `json:"upcoming"`
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	From      *time.Time
	To        *time.Time
	Status    *Status
	PatientID *string
}
