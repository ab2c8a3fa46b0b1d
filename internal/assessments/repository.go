package assessments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

// Repository provides persistence for test definitions and results.
type Repository struct {
	db DB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("assessments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db DB) *Repository {
	return &Repository{db: db}
}

// GetTest loads a test definition with its questions in order.
func (r *Repository) GetTest(ctx context.Context, testID string) (*Test, error) {
	query := `SELECT id, code, name, description, category, min_score, max_score, scoring_rules
		FROM tests WHERE id = $1`

	var t Test
	var rulesJSON []byte
	err := r.db.QueryRow(ctx, query, testID).Scan(
		&t.ID, &t.Code, &t.Name, &t.Description, &t.Category,
		&t.MinScore, &t.MaxScore, &rulesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("assessments: load test: %w", err)
	}
	if len(rulesJSON) > 0 {
		if err := json.Unmarshal(rulesJSON, &t.ScoringRules); err != nil {
			return nil, fmt.Errorf("assessments: decode scoring rules: %w", err)
		}
	}

	questions, err := r.loadQuestions(ctx, testID)
	if err != nil {
		return nil, err
	}
	t.Questions = questions
	return &t, nil
}

// ListTests returns all test definitions without their questions.
func (r *Repository) ListTests(ctx context.Context) ([]*Test, error) {
	query := `SELECT id, code, name, description, category, min_score, max_score, scoring_rules
		FROM tests ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("assessments: list tests: %w", err)
	}
	defer rows.Close()

	var tests []*Test
	for rows.Next() {
		var t Test
		var rulesJSON []byte
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.Category,
			&t.MinScore, &t.MaxScore, &rulesJSON); err != nil {
			return nil, fmt.Errorf("assessments: scan test: %w", err)
		}
		if len(rulesJSON) > 0 {
			if err := json.Unmarshal(rulesJSON, &t.ScoringRules); err != nil {
				return nil, fmt.Errorf("assessments: decode scoring rules: %w", err)
			}
		}
		tests = append(tests, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assessments: list tests: %w", err)
	}
	return tests, nil
}

// InsertResult persists a result and its responses in one transaction.
// Either everything lands or nothing does.
func (r *Repository) InsertResult(ctx context.Context, result *TestResult) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("assessments: begin insert result: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `INSERT INTO test_results
		(id, test_id, patient_id, total_score, severity_level, interpretation, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.ID, result.TestID, result.PatientID, result.TotalScore,
		string(result.SeverityLevel), result.Interpretation, result.AppliedAt,
	)
	if err != nil {
		return fmt.Errorf("assessments: insert result: %w", err)
	}

	for _, resp := range result.Responses {
		_, err = tx.Exec(ctx, `INSERT INTO test_responses
			(result_id, question_id, selected_value, response_time_ms)
			VALUES ($1, $2, $3, $4)`,
			result.ID, resp.QuestionID, resp.SelectedValue, resp.ResponseTime,
		)
		if err != nil {
			return fmt.Errorf("assessments: insert response: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("assessments: commit result: %w", err)
	}
	return nil
}

// ListResultsForPatient returns a patient's result history, newest first.
func (r *Repository) ListResultsForPatient(ctx context.Context, patientID string) ([]*TestResult, error) {
	query := `SELECT id, test_id, patient_id, total_score, severity_level, interpretation, applied_at
		FROM test_results WHERE patient_id = $1 ORDER BY applied_at DESC`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("assessments: list results: %w", err)
	}
	defer rows.Close()

	var results []*TestResult
	for rows.Next() {
		var res TestResult
		var level string
		if err := rows.Scan(&res.ID, &res.TestID, &res.PatientID, &res.TotalScore,
			&level, &res.Interpretation, &res.AppliedAt); err != nil {
			return nil, fmt.Errorf("assessments: scan result: %w", err)
		}
		res.SeverityLevel = SeverityLevel(level)
		results = append(results, &res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assessments: list results: %w", err)
	}
	return results, nil
}

func (r *Repository) loadQuestions(ctx context.Context, testID string) ([]Question, error) {
	query := `SELECT id, test_id, question_text, order_index, weight, options
		FROM questions WHERE test_id = $1 ORDER BY order_index ASC`

	rows, err := r.db.Query(ctx, query, testID)
	if err != nil {
		return nil, fmt.Errorf("assessments: load questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		var optionsJSON []byte
		if err := rows.Scan(&q.ID, &q.TestID, &q.Text, &q.OrderIndex, &q.Weight, &optionsJSON); err != nil {
			return nil, fmt.Errorf("assessments: scan question: %w", err)
		}
		if len(optionsJSON) > 0 {
			if err := json.Unmarshal(optionsJSON, &q.Options); err != nil {
				return nil, fmt.Errorf("assessments: decode options: %w", err)
			}
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("assessments: load questions: %w", err)
	}
	return questions, nil
}
