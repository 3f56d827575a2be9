// Package dto provides Data Transfer Objects for API requests/responses.
package dto

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// HealthResponse is returned by the health probes.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
