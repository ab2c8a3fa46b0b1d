package assessments

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wellmind/practice-platform/internal/metrics"
	"github.com/wellmind/practice-platform/internal/patients"
	"github.com/wellmind/practice-platform/pkg/logging"
)

var assessmentsTracer = otel.Tracer("practice.internal.assessments")

// Store is the persistence port the engine drives.
type Store interface {
	GetTest(ctx context.Context, testID string) (*Test, error)
	ListTests(ctx context.Context) ([]*Test, error)
	InsertResult(ctx context.Context, result *TestResult) error
	ListResultsForPatient(ctx context.Context, patientID string) ([]*TestResult, error)
}

// PatientDirectory verifies clinician ownership of patients.
type PatientDirectory interface {
	FindForClinician(ctx context.Context, patientID, clinicianID string) (*patients.Patient, error)
}

var interpretationByLevel = map[SeverityLevel]string{
	SeverityMinimal:          "Symptoms are minimal or absent.",
	SeverityMild:             "Symptoms are mild and may not interfere significantly with daily activities.",
	SeverityModerate:         "Symptoms are moderate and may begin to impact daily functioning.",
	SeverityModeratelySevere: "Symptoms are moderately severe and interfere considerably with daily activities.",
	SeveritySevere:           "Symptoms are severe and require immediate clinical attention.",
}

// Service is the test-scoring engine: it validates a submission against the
// test definition, scores it through the configured strategy, and persists
// the immutable result.
type Service struct {
	store    Store
	patients PatientDirectory
	cache    *DefinitionCache
	strategy Strategy
	logger   *logging.Logger
	metrics  *metrics.Metrics
}

// NewService constructs an assessments service. The cache may be nil.
func NewService(store Store, patientDir PatientDirectory, cache *DefinitionCache, strategy Strategy, logger *logging.Logger, m *metrics.Metrics) *Service {
	if store == nil {
		panic("assessments: store required")
	}
	if patientDir == nil {
		panic("assessments: patient directory required")
	}
	if strategy == nil {
		strategy = LinearSum{}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		store:    store,
		patients: patientDir,
		cache:    cache,
		strategy: strategy,
		logger:   logger.WithComponent("assessments"),
		metrics:  m,
	}
}

// SubmitResponses scores a full response set and persists the result with
// its responses atomically.
func (s *Service) SubmitResponses(ctx context.Context, clinicianID string, req SubmitRequest) (*TestResult, error) {
	ctx, span := assessmentsTracer.Start(ctx, "assessments.submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("practice.test_id", req.TestID),
		attribute.String("practice.patient_id", req.PatientID),
	)

	if err := req.Validate(); err != nil {
		s.metrics.AssessmentScoreFailures.Inc()
		return nil, err
	}

	if _, err := s.patients.FindForClinician(ctx, req.PatientID, clinicianID); err != nil {
		if err == patients.ErrNotFound {
			s.metrics.AssessmentScoreFailures.Inc()
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	test, err := s.loadTest(ctx, req.TestID)
	if err != nil {
		return nil, err
	}

	if len(req.Responses) != len(test.Questions) {
		s.metrics.AssessmentScoreFailures.Inc()
		return nil, ErrIncompleteResponses
	}

	weighted, err := joinResponses(test, req.Responses)
	if err != nil {
		s.metrics.AssessmentScoreFailures.Inc()
		return nil, err
	}

	score, err := s.strategy.Score(weighted)
	if err != nil {
		s.metrics.AssessmentScoreFailures.Inc()
		return nil, err
	}
	severity := s.strategy.Severity(score, test.ScoringRules)

	interpretation, err := buildInterpretation(test.Name, severity, score)
	if err != nil {
		return nil, err
	}

	result := &TestResult{
		ID:             uuid.NewString(),
		TestID:         test.ID,
		PatientID:      req.PatientID,
		TotalScore:     score,
		SeverityLevel:  severity,
		Interpretation: interpretation,
		AppliedAt:      time.Now().UTC(),
		Responses:      req.Responses,
	}
	if err := s.store.InsertResult(ctx, result); err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.AssessmentsSubmitted.Inc()
	s.logger.Info("assessment scored",
		"test_code", test.Code,
		"patient_id", req.PatientID,
		"score", score,
		"severity", severity,
		"strategy", s.strategy.Name(),
	)
	return result, nil
}

// GetTest returns a test definition with its questions.
func (s *Service) GetTest(ctx context.Context, testID string) (*Test, error) {
	return s.loadTest(ctx, testID)
}

// ListTests returns all available test definitions.
func (s *Service) ListTests(ctx context.Context) ([]*Test, error) {
	return s.store.ListTests(ctx)
}

// PatientHistory returns the patient's past results, newest first, after an
// ownership check.
func (s *Service) PatientHistory(ctx context.Context, clinicianID, patientID string) ([]*TestResult, error) {
	if _, err := s.patients.FindForClinician(ctx, patientID, clinicianID); err != nil {
		if err == patients.ErrNotFound {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return s.store.ListResultsForPatient(ctx, patientID)
}

func (s *Service) loadTest(ctx context.Context, testID string) (*Test, error) {
	if cached := s.cache.Get(ctx, testID); cached != nil {
		return cached, nil
	}
	test, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return nil, err
	}
	s.cache.Put(ctx, test)
	return test, nil
}

// joinResponses matches each response to its question by id and pairs the
// selected value with the question weight.
func joinResponses(test *Test, responses []Response) ([]WeightedResponse, error) {
	byID := make(map[string]*Question, len(test.Questions))
	for i := range test.Questions {
		byID[test.Questions[i].ID] = &test.Questions[i]
	}

	weighted := make([]WeightedResponse, 0, len(responses))
	for _, resp := range responses {
		question, ok := byID[resp.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, resp.QuestionID)
		}
		weighted = append(weighted, WeightedResponse{
			SelectedValue: resp.SelectedValue,
			Weight:        question.Weight,
		})
	}
	return weighted, nil
}

func buildInterpretation(testName string, level SeverityLevel, score float64) (string, error) {
	description, ok := interpretationByLevel[level]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownSeverity, level)
	}
	formatted := strconv.FormatFloat(score, 'f', -1, 64)
	band := strings.ToLower(strings.ReplaceAll(string(level), "_", " "))
	return fmt.Sprintf("%s result: total score of %s points, indicating a %s level. %s",
		testName, formatted, band, description), nil
}
