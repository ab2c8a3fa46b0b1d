package assessments

import (
	"strings"
	"time"
)

// SeverityLevel is the clinical band a numeric score classifies into.
type SeverityLevel string

const (
	SeverityMinimal          SeverityLevel = "MINIMAL"
	SeverityMild             SeverityLevel = "MILD"
	SeverityModerate         SeverityLevel = "MODERATE"
	SeverityModeratelySevere SeverityLevel = "MODERATELY_SEVERE"
	SeveritySevere           SeverityLevel = "SEVERE"
)

// ScoreRange maps an inclusive score interval to a severity band.
type ScoreRange struct {
	Min   float64       `json:"min"`
	Max   float64       `json:"max"`
	Level SeverityLevel `json:"level"`
}

// ScoringRules is the ordered rule set stored with each test definition.
// Ranges are caller-supplied and assumed non-overlapping.
type ScoringRules struct {
	Ranges []ScoreRange `json:"ranges"`
}

// AnswerOption is one selectable answer with its numeric value.
type AnswerOption struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Question belongs to an immutable test definition.
type Question struct {
	ID         string         `json:"id"`
	TestID     string         `json:"test_id"`
	Text       string         `json:"text"`
	OrderIndex int            `json:"order_index"`
	Weight     float64        `json:"weight"`
	Options    []AnswerOption `json:"options"`
}

// Test is an immutable questionnaire definition.
type Test struct {
	ID           string       `json:"id"`
	Code         string       `json:"code"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	MinScore     float64      `json:"min_score"`
	MaxScore     float64      `json:"max_score"`
	ScoringRules ScoringRules `json:"scoring_rules"`
	Questions    []Question   `json:"questions,omitempty"`
}

// Response is one answered question in a submission.
type Response struct {
	QuestionID    string  `json:"question_id"`
	SelectedValue float64 `json:"selected_value"`
	ResponseTime  *int    `json:"response_time_ms,omitempty"`
}

// TestResult is the immutable outcome of one administration, created
// atomically with its responses and never mutated afterward.
type TestResult struct {
	ID             string        `json:"id"`
	TestID         string        `json:"test_id"`
	PatientID      string        `json:"patient_id"`
	TotalScore     float64       `json:"total_score"`
	SeverityLevel  SeverityLevel `json:"severity_level"`
	Interpretation string        `json:"interpretation"`
	AppliedAt      time.Time     `json:"applied_at"`
	Responses      []Response    `json:"responses,omitempty"`
}

// SubmitRequest is the raw submission the engine validates.
type SubmitRequest struct {
	TestID    string     `json:"test_id"`
	PatientID string     `json:"patient_id"`
	Responses []Response `json:"responses"`
}

// Validate checks structural completeness before any lookup.
func (r *SubmitRequest) Validate() error {
	if strings.TrimSpace(r.TestID) == "" {
		return ErrMissingTestID
	}
	if strings.TrimSpace(r.PatientID) == "" {
		return ErrMissingPatientID
	}
	if len(r.Responses) == 0 {
		return ErrIncompleteResponses
	}
	return nil
}
