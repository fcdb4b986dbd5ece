package domain

import "github.com/persona-ai/partner-gateway/pkg/jwtx"

// ValidationResult is either Valid (Claims and Partner set, Err nil) or
// Invalid (Err set with its Reason).
type ValidationResult struct {
	Flow    Flow
	Claims  *jwtx.Claims
	Partner *Partner
	Err     *ValidationError
}

// Valid builds a successful result.
func Valid(flow Flow, claims *jwtx.Claims, partner *Partner) ValidationResult {
	return ValidationResult{Flow: flow, Claims: claims, Partner: partner}
}

// Invalid builds a failed result.
func Invalid(flow Flow, reason Reason, err error) ValidationResult {
	return ValidationResult{Flow: flow, Err: Reject(reason, err)}
}

// OK reports whether the token was accepted.
func (r ValidationResult) OK() bool { return r.Err == nil && r.Claims != nil && r.Partner != nil }

// Reason returns the rejection reason, or "" for a valid result.
func (r ValidationResult) Reason() Reason {
	if r.Err == nil {
		return ""
	}
	return r.Err.Reason
}
