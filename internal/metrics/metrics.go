package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the counters the engines increment. A fresh registry per
// instance keeps tests independent.
type Metrics struct {
	registry *prometheus.Registry

	AppointmentsCreated     prometheus.Counter
	AppointmentTransitions  *prometheus.CounterVec
	AppointmentConflicts    prometheus.Counter
	SummaryDraftFailures    prometheus.Counter
	AssessmentsSubmitted    prometheus.Counter
	AssessmentScoreFailures prometheus.Counter
}

// New creates a metrics bundle backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		AppointmentsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "practice_appointments_created_total",
			Help: "Appointments successfully created.",
		}),
		AppointmentTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "practice_appointment_transitions_total",
			Help: "Appointment status transitions by target status.",
		}, []string{"status"}),
		AppointmentConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "practice_appointment_conflicts_total",
			Help: "Appointment creations rejected by the overlap check.",
		}),
		SummaryDraftFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "practice_summary_draft_failures_total",
			Help: "Best-effort clinical summary drafts that failed.",
		}),
		AssessmentsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "practice_assessments_submitted_total",
			Help: "Assessment response sets scored and persisted.",
		}),
		AssessmentScoreFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "practice_assessment_score_failures_total",
			Help: "Assessment submissions rejected before persistence.",
		}),
	}
}

// Handler exposes the registry for the /metrics route.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
