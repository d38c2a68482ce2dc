// Package dto holds the JSON shapes of the dispatch HTTP surface.
package dto

import (
	"time"

	"github.com/erp/reportdispatch/internal/domain/report"
)

// Response wraps data of the system endpoints
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse is the failure shape of every endpoint
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponse creates an error response
func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: message}
}

// DispatchSummary is the coarse operational result of one dispatch run.
// Per-schedule error detail is only logged.
type DispatchSummary struct {
	Success     bool     `json:"success"`
	Timestamp   string   `json:"timestamp"`
	TotalActive int      `json:"totalActive"`
	Sent        []string `json:"sent"`
	Skipped     []string `json:"skipped"`
	SentCount   int      `json:"sentCount"`
}

// NewDispatchSummary converts a run summary to its wire shape
func NewDispatchSummary(s *report.Summary) DispatchSummary {
	sent := s.Sent
	if sent == nil {
		sent = []string{}
	}
	skipped := s.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return DispatchSummary{
		Success:     s.Success,
		Timestamp:   s.Timestamp.UTC().Format(time.RFC3339Nano),
		TotalActive: s.TotalActive,
		Sent:        sent,
		Skipped:     skipped,
		SentCount:   s.SentCount,
	}
}

// PingResponse answers the liveness ping
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthResponse reports dependency checks
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Uptime  string            `json:"uptime"`
	Checks  map[string]string `json:"checks"`
}
