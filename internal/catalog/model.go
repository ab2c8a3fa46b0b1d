package catalog

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a service does not exist, is inactive, or
// does not belong to the requesting clinician.
var ErrNotFound = errors.New("service not found")

// Service is a clinical offering (session type) a clinician can attach to
// an appointment.
type Service struct {
	ID              string    `json:"id"`
	ClinicianID     string    `json:"clinician_id"`
	Name            string    `json:"name"`
	DefaultPrice    int64     `json:"default_price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}
