package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// ErrorResponse follows the design doc format
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// SuccessResponse is a generic success wrapper
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// NewTraceID returns an opaque id correlating an error response with the logs.
func NewTraceID() string {
	return uuid.NewString()
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, code, message, traceID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		TraceID: traceID,
	})
}

// WriteSuccess writes a standardized JSON success response
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
