package appointments

import "errors"

var (
	// ErrNotFound is returned when an appointment does not exist or is not
	// owned by the requesting clinician.
	ErrNotFound = errors.New("appointment not found")

	// ErrPatientNotFound is returned when the patient is missing, inactive,
	// or owned by another clinician.
	ErrPatientNotFound = errors.New("patient not found or inactive")

	// ErrServiceNotFound is returned when the linked service is missing,
	// inactive, or owned by another clinician.
	ErrServiceNotFound = errors.New("service not found or inactive")

	// ErrMissingPatient is returned when the creation names no patient.
	ErrMissingPatient = errors.New("patient id is required")

	// ErrMissingSchedule is returned when the creation has no start instant.
	ErrMissingSchedule = errors.New("scheduled time is required")

	// ErrInvalidDuration is returned when the duration falls outside the
	// 15-240 minute window.
	ErrInvalidDuration = errors.New("duration must be between 15 and 240 minutes")

	// ErrInvalidStatus is returned when a transition names an unknown
	// status.
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrScheduleConflict is returned when the session window overlaps an
	// existing SCHEDULED or IN_PROGRESS appointment for the clinician.
	ErrScheduleConflict = errors.New("an appointment already exists in this time slot")

	// ErrTerminalState is returned for any transition attempt on a
	// COMPLETED or CANCELLED appointment.
	ErrTerminalState = errors.New("appointment is in a terminal state")

	// ErrInvalidTransition is returned when the state machine forbids the
	// requested transition.
	ErrInvalidTransition = errors.New("transition not permitted from current status")

	// ErrActiveSessionExists is returned when starting a session while
	// another one is already in progress for the clinician.
	ErrActiveSessionExists = errors.New("another session is already in progress")
)

// IsNotFound reports whether err is an absence/ownership failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPatientNotFound) ||
		errors.Is(err, ErrServiceNotFound)
}

// IsConflict reports whether err is a business-rule violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrScheduleConflict) ||
		errors.Is(err, ErrTerminalState) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrActiveSessionExists)
}

// IsInvalidInput reports whether err is a caller error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrMissingPatient) ||
		errors.Is(err, ErrMissingSchedule) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidStatus)
}
