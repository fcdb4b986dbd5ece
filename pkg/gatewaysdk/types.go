package gatewaysdk

import (
	"time"

	"github.com/persona-ai/partner-gateway/pkg/jwtx"
)

// ============================================================================
// Envelope
// ============================================================================

// Envelope is the wrapper every API route (but not the session gate) returns.
type Envelope[T any] struct {
	Success   bool      `json:"success"`
	Data      T         `json:"data,omitempty"`
	Error     *APIError `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ============================================================================
// Session gate
// ============================================================================

// StartSessionRequest is the body of POST /v1/embed/sessions.
type StartSessionRequest struct {
	Token string `json:"token"`
}

// SessionEvent is the session gate's answer: session.started on success,
// session.ended with reason auth_failed otherwise.
type SessionEvent struct {
	Type      string     `json:"type"`
	SessionID string     `json:"session_id,omitempty"`
	PartnerID string     `json:"partner_id,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Meta      *jwtx.Meta `json:"meta,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ============================================================================
// Partner API
// ============================================================================

// TokenInfo describes the API token used for the request.
type TokenInfo struct {
	PartnerID string    `json:"partner_id"`
	Subject   string    `json:"subject"`
	Audience  []string  `json:"audience"`
	Scopes    []string  `json:"scopes"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ScopeCheck is returned by GET /v1/scopes/{scope} when the scope is granted.
type ScopeCheck struct {
	Scope   string `json:"scope"`
	Granted bool   `json:"granted"`
}

// ============================================================================
// Admin
// ============================================================================

// PartnerInfo is a partner as the admin API exposes it. The secret itself is
// only ever returned by create and rotate.
type PartnerInfo struct {
	ID                string    `json:"id"`
	Name              string    `json:"name,omitempty"`
	Audiences         []string  `json:"audiences"`
	Scopes            []string  `json:"scopes"`
	Active            bool      `json:"active"`
	SecretFingerprint string    `json:"secret_fingerprint"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ListPartnersResponse struct {
	Partners []PartnerInfo `json:"partners"`
}

// CreatePartnerRequest provisions a partner. Audiences default to both
// gateway audiences when empty.
type CreatePartnerRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name,omitempty"`
	Audiences []string `json:"audiences,omitempty"`
	Scopes    []string `json:"scopes,omitempty"`
}

// CreatePartnerResponse carries the plaintext secret exactly once.
type CreatePartnerResponse struct {
	Partner PartnerInfo `json:"partner"`
	Secret  string      `json:"secret"`
}

type UpdatePartnerAccessRequest struct {
	Audiences []string `json:"audiences"`
	Scopes    []string `json:"scopes"`
}

type RotateSecretResponse struct {
	PartnerID         string `json:"partner_id"`
	Secret            string `json:"secret"`
	SecretFingerprint string `json:"secret_fingerprint"`
}

// ============================================================================
// Health
// ============================================================================

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Partners string `json:"partners"`
	Nonces   string `json:"nonces"`
	Database string `json:"database,omitempty"`
}
