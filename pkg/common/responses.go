// Package common holds the JSON response envelope shared by the HTTP
// handlers.
package common

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// APIVersion is reported in every response's meta block.
const APIVersion = "v1"

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta,omitempty"`
}

// ErrorInfo contains error details
type ErrorInfo struct {
	Type    string                 `json:"type"`
	Code    string                 `json:"code,omitempty"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MetaInfo contains metadata about the response
type MetaInfo struct {
	RequestID string `json:"request_id,omitempty"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// NewMeta builds the meta block for r.
func NewMeta(r *http.Request) *MetaInfo {
	return &MetaInfo{
		RequestID: ExtractRequestID(r),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   APIVersion,
	}
}

// RespondJSON sends a success envelope
func RespondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, status, APIResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
		Meta:    NewMeta(r),
	})
}

// RespondError sends an error envelope
func RespondError(w http.ResponseWriter, r *http.Request, status int, info ErrorInfo) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   &info,
		Meta:    NewMeta(r),
	})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// ExtractRequestID returns the id chi assigned to the request, falling back
// to the inbound headers.
func ExtractRequestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return r.Header.Get("X-Amzn-Trace-Id")
}
