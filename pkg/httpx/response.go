package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

// Error codes carried in the error envelope.
const (
	CodeTokenExpired      = "AUTH_TOKEN_EXPIRED"
	CodeInvalidToken      = "AUTH_INVALID_TOKEN"
	CodeInsufficientScope = "AUTH_INSUFFICIENT_SCOPE"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeServiceUnavail    = "SERVICE_UNAVAILABLE"
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type SuccessEnvelope struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess wraps data in the success envelope.
func WriteSuccess(w http.ResponseWriter, code int, data any) {
	WriteJSON(w, code, SuccessEnvelope{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// WriteError writes the error envelope. The request id comes from the
// request-scoped logger context when present.
func WriteError(w http.ResponseWriter, r *http.Request, code int, errCode, message string, details map[string]any) {
	body := ErrorBody{Code: errCode, Message: message, Details: details}
	if r != nil {
		body.RequestID = slogx.RequestID(r.Context())
	}
	WriteJSON(w, code, ErrorEnvelope{
		Error:     body,
		Timestamp: time.Now().UTC(),
	})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// DecodeJSON reads a JSON body of at most maxBytes into v.
func DecodeJSON(r *http.Request, maxBytes int64, v any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes)).Decode(v)
}

// ParseSpaceDelimitedFields splits a space-delimited string into fields.
// Returns nil if the input string is empty or contains only whitespace.
func ParseSpaceDelimitedFields(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
