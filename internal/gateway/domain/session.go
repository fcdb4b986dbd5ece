package domain

import (
	"time"

	"github.com/persona-ai/partner-gateway/pkg/jwtx"
)

// Session event types surfaced to the embedding page.
const (
	EventSessionStarted = "session.started"
	EventSessionEnded   = "session.ended"
)

// SessionEndReasonAuthFailed is the only end reason the gate emits; the
// concrete validation reason stays internal.
const SessionEndReasonAuthFailed = "auth_failed"

// SessionEvent is what the session gate hands back to the embed client.
type SessionEvent struct {
	Type      string     `json:"type"`
	SessionID string     `json:"session_id,omitempty"`
	PartnerID string     `json:"partner_id,omitempty"`
	Subject   string     `json:"subject,omitempty"`
	Meta      *jwtx.Meta `json:"meta,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
