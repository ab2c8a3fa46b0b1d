package appointments

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wellmind/practice-platform/internal/auth"
	"github.com/wellmind/practice-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new appointments handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the appointment endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/stats", h.Stats)
	r.Get("/active-session", h.ActiveSession)
	r.Get("/{appointmentID}", h.Get)
	r.Patch("/{appointmentID}", h.Transition)
	r.Post("/{appointmentID}/cancel", h.Cancel)
}

// Create handles POST /api/appointments requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Create(r.Context(), clinicianID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

// List handles GET /api/appointments requests. A date param selects one
// calendar day; otherwise from/to/status/patient_id narrow the listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	query := r.URL.Query()
	if dateStr := query.Get("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		appts, err := h.service.ByDate(r.Context(), clinicianID, date)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeListing(w, appts)
		return
	}

	var filter ListFilter
	if fromStr := query.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		filter.From = &from
	}
	if toStr := query.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		filter.To = &to
	}
	if statusStr := query.Get("status"); statusStr != "" {
		status := Status(statusStr)
		if !status.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = &status
	}
	if patientID := query.Get("patient_id"); patientID != "" {
		filter.PatientID = &patientID
	}

	appts, err := h.service.List(r.Context(), clinicianID, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeListing(w, appts)
}

// ListResponse is the response for listing appointments.
type ListResponse struct {
	Appointments []*Appointment `json:"appointments"`
	Count        int            `json:"count"`
}

func (h *Handler) writeListing(w http.ResponseWriter, appts []*Appointment) {
	if appts == nil {
		appts = []*Appointment{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Appointments: appts, Count: len(appts)})
}

// Get handles GET /api/appointments/{appointmentID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.Get(r.Context(), clinicianID, chi.URLParam(r, "appointmentID"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// Transition handles PATCH /api/appointments/{appointmentID} requests.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.service.Transition(r.Context(), clinicianID, chi.URLParam(r, "appointmentID"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// Cancel handles POST /api/appointments/{appointmentID}/cancel requests. It
// is a convenience for the CANCELLED transition.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.Transition(r.Context(), clinicianID, chi.URLParam(r, "appointmentID"),
		TransitionRequest{Status: StatusCancelled})
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

// ActiveSession handles GET /api/appointments/active-session requests.
// Absence of an active session is a 200 with a null appointment.
func (h *Handler) ActiveSession(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	appt, err := h.service.ActiveSession(r.Context(), clinicianID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]*Appointment{"appointment": appt})
}

// Stats handles GET /api/appointments/stats requests.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	clinicianID, ok := auth.ClinicianIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing clinician context", http.StatusUnauthorized)
		return
	}

	stats, err := h.service.Stats(r.Context(), clinicianID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case IsInvalidInput(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("appointment request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
