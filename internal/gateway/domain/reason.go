package domain

import (
	"errors"
	"fmt"
)

// Reason is the stable code attached to every rejection. Collaborators
// switch on these, so the string values must not change.
type Reason string

const (
	ReasonMalformed         Reason = "malformed"
	ReasonBadIssuer         Reason = "bad_issuer"
	ReasonBadSignature      Reason = "bad_signature"
	ReasonBadAudience       Reason = "bad_audience"
	ReasonExpired           Reason = "expired"
	ReasonNotYetValid       Reason = "not_yet_valid"
	ReasonWindowExceeded    Reason = "window_exceeded"
	ReasonReplayedNonce     Reason = "replayed_nonce"
	ReasonInsufficientScope Reason = "insufficient_scope"

	// ReasonRegistryUnavailable means the nonce registry could not record the
	// nonce. The token is rejected (fail closed).
	ReasonRegistryUnavailable Reason = "registry_unavailable"
)

func (r Reason) String() string { return string(r) }

// ValidationError pairs a Reason with the underlying cause. Err is for logs
// only and must never be rendered to a partner.
type ValidationError struct {
	Reason Reason
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "validation failed: " + string(e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %v", e.Reason, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Reject builds a *ValidationError.
func Reject(reason Reason, err error) *ValidationError {
	return &ValidationError{Reason: reason, Err: err}
}

// ReasonOf extracts the Reason from err, or "" if err carries none.
func ReasonOf(err error) Reason {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}
