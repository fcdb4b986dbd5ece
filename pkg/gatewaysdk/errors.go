package gatewaysdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionEnded is returned by StartSession when the gateway answers with
// a session.ended event.
var ErrSessionEnded = errors.New("gatewaysdk: session ended")

// APIError is the error object of the gateway envelope.
type APIError struct {
	StatusCode int            `json:"-"`
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%d %s: %s (request %s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsCode reports whether err is an *APIError with the given code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// StatusCode returns the HTTP status behind err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// parseErrorResponse turns a non-2xx body into an *APIError. Bodies that are
// not an envelope still produce an error with the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var env Envelope[json.RawMessage]
	if err := json.Unmarshal(body, &env); err == nil && env.Error != nil {
		env.Error.StatusCode = resp.StatusCode
		return env.Error
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       "UNEXPECTED_RESPONSE",
		Message:    http.StatusText(resp.StatusCode),
	}
}
