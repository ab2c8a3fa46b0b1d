package auth

import "context"

type ctxKey string

const clinicianKey ctxKey = "practice.clinician_id"

// WithClinicianID stores the authenticated clinician id in context.
func WithClinicianID(ctx context.Context, clinicianID string) context.Context {
	return context.WithValue(ctx, clinicianKey, clinicianID)
}

// ClinicianIDFromContext extracts the clinician id if present.
func ClinicianIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(clinicianKey)
	if val == nil {
		return "", false
	}
	clinicianID, ok := val.(string)
	return clinicianID, ok && clinicianID != ""
}
