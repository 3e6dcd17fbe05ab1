package dispatch

import "aura/internal/tool"

// ErrorCode is the closed set of failure classifications. Callers can
// branch on these without a default case swallowing detail: every
// backend outcome maps to exactly one code, and unclassified failures
// get CodeBackendError.
type ErrorCode string

const (
	// Detected before any backend call.
	CodeLowConfidence     ErrorCode = "LOW_CONFIDENCE"
	CodeMissingParameters ErrorCode = "MISSING_PARAMETERS"
	CodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"

	// Detected from the backend response.
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	CodeRejected      ErrorCode = "REJECTED"
	CodeUnreachable   ErrorCode = "UNREACHABLE"
	CodeBackendError  ErrorCode = "BACKEND_ERROR"
)

// Suggestion is one actionable remediation hint attached to a failed
// result.
type Suggestion struct {
	Type    string `json:"type"` // rephrase | clarify | check | example | alternative
	Message string `json:"message"`
	Example string `json:"example,omitempty"`
}

// Metadata carries routing evidence through to the caller.
type Metadata struct {
	Confidence   float64     `json:"confidence"`
	Evidence     []string    `json:"evidence,omitempty"`
	Alternatives []tool.Name `json:"alternatives,omitempty"`
	RequestID    string      `json:"requestId,omitempty"`
	SessionID    string      `json:"sessionId,omitempty"`
}

// Result is the normalized outcome of one request, returned to both the
// desktop caller and the protocol surfaces.
type Result struct {
	Success         bool           `json:"success"`
	Tool            tool.Name      `json:"tool"`
	Message         string         `json:"message"`
	Data            map[string]any `json:"data,omitempty"`
	Error           string         `json:"error,omitempty"`
	ErrorCode       ErrorCode      `json:"errorCode,omitempty"`
	ExecutionTimeMs int64          `json:"executionTimeMs"`
	Metadata        Metadata       `json:"metadata"`
	Suggestions     []Suggestion   `json:"suggestions,omitempty"`
}
