package assessments

import "errors"

var (
	// ErrTestNotFound is returned when a test definition does not exist.
	ErrTestNotFound = errors.New("test not found")

	// ErrPatientNotFound is returned when the patient does not exist or is
	// not owned by the requesting clinician.
	ErrPatientNotFound = errors.New("patient not found or not authorized")

	// ErrMissingTestID is returned when the submission names no test.
	ErrMissingTestID = errors.New("test id is required")

	// ErrMissingPatientID is returned when the submission names no patient.
	ErrMissingPatientID = errors.New("patient id is required")

	// ErrIncompleteResponses is returned when the response set does not
	// cover every question exactly once.
	ErrIncompleteResponses = errors.New("all questions must be answered")

	// ErrUnknownQuestion is returned when a response references a question
	// that is not part of the test.
	ErrUnknownQuestion = errors.New("question not found in test")

	// ErrZeroTotalWeight is returned by the weighted-average strategy when
	// the question weights sum to zero.
	ErrZeroTotalWeight = errors.New("total question weight is zero")

	// ErrUnknownSeverity is returned when a severity band has no
	// interpretation entry. The enum is closed, so this indicates a broken
	// test definition.
	ErrUnknownSeverity = errors.New("unknown severity level")
)

// IsNotFound reports whether err is an absence/ownership failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTestNotFound) || errors.Is(err, ErrPatientNotFound)
}

// IsInvalidInput reports whether err is a caller error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrMissingTestID) ||
		errors.Is(err, ErrMissingPatientID) ||
		errors.Is(err, ErrIncompleteResponses) ||
		errors.Is(err, ErrUnknownQuestion) ||
		errors.Is(err, ErrZeroTotalWeight)
}
