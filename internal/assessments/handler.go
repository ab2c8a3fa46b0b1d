package assessments

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wellmind/practice-platform/internal/auth"
	"github.com/wellmind/practice-platform/pkg/logging"
)

// Handler handles HTTP requests for assessments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new assessments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the assessment endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.ListTests)
	r.Get("/{testID}", h.GetTest)
	r.Post("/{testID}/responses", h.SubmitResponses)
}

// ListTestsResponse is the response for listing test definitions.
type ListTestsResponse struct {
	Tests []*Test `json:"tests"`
	Count int     `json:"count"`
}

// ListTests handles GET /api/assessments requests.
func (h *Handler) ListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.service.ListTests(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tests == nil {
		tests = []*Test{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListTestsResponse{Tests: tests, Count: len(tests)})
}

// GetTest handles GET /api/assessments/{testID} requests.
func (h *Handler) GetTest(w http.ResponseWriter, r *http.Request) {
	test, err := h.service.GetTest(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(test)
}

// SubmitResponses handles POST /api/assessments/{testID}/responses requests.
func (h *Handler) SubmitResponses(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	req.TestID = chi.URLParam(r, "testID")

	result, err := h.service.SubmitResponses(r.Context(), clinicianID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// HistoryResponse is the response for a patient's past results.
type HistoryResponse struct {
	Results []*TestResult `json:"results"`
	Count   int           `json:"count"`
}

// PatientHistory handles GET /api/patients/{patientID}/assessment-history
// requests.
func (h *Handler) PatientHistory(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	results, err := h.service.PatientHistory(r.Context(), clinicianID, chi.URLParam(r, "patientID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if results == nil {
		results = []*TestResult{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HistoryResponse{Results: results, Count: len(results)})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case IsInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error("assessment request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
