package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wellmind/practice-platform/internal/appointments"
	"github.com/wellmind/practice-platform/internal/assessments"
	"github.com/wellmind/practice-platform/internal/auth"
	"github.com/wellmind/practice-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AppointmentsHandler *appointments.Handler
	AssessmentsHandler  *assessments.Handler
	MetricsHandler      http.Handler

	// ClinicianJWTSecret enables bearer-token auth on /api routes.
	ClinicianJWTSecret string
}

// New creates a new Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Clinician-scoped API
	r.Route("/api", func(api chi.Router) {
		api.Use(auth.ClinicianJWT(cfg.ClinicianJWTSecret))
		if cfg.AppointmentsHandler != nil {
			api.Route("/appointments", cfg.AppointmentsHandler.Routes)
		}
		if cfg.AssessmentsHandler != nil {
			api.Route("/assessments", cfg.AssessmentsHandler.Routes)
			api.Get("/patients/{patientID}/assessment-history", cfg.AssessmentsHandler.PatientHistory)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
