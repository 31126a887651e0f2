package handler

import (
	"time"

	"job-applier-go/internal/service"
)

// ReportResponse represents the outcome of an application run
type ReportResponse struct {
	RunID     string    `json:"run_id"`
	Found     int       `json:"found"`
	Deduped   int       `json:"deduped"`
	Applied   int       `json:"applied"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
}

func newReportResponse(r *service.Report) *ReportResponse {
	if r == nil {
		return nil
	}
	return &ReportResponse{
		RunID:     r.RunID,
		Found:     r.Found,
		Deduped:   r.Deduped,
		Applied:   r.Applied,
		Skipped:   r.Skipped,
		Failed:    r.Failed,
		StartedAt: r.StartedAt,
		Duration:  r.Duration.String(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Database  string            `json:"database"`
	Scheduler map[string]string `json:"scheduler,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
