package patients

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a patient does not exist or does not belong
// to the requesting clinician. Ownership misses are indistinguishable from
// absence on purpose.
var ErrNotFound = errors.New("patient not found")

// Patient is the slice of the patient record the engines need: ownership,
// activity, and the rolling clinical summary the drafter folds into.
type Patient struct {
	ID              string     `json:"id"`
	ClinicianID     string     `json:"clinician_id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	BirthDate       *time.Time `json:"birth_date,omitempty"`
	ClinicalSummary *string    `json:"clinical_summary,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}
