package service

import (
	"context"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/pkg/idx"
	"github.com/persona-ai/partner-gateway/pkg/metricsx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

// SessionService is the embed-side gate: it admits a session only for a
// valid embed token and otherwise reports a generic auth failure.
type SessionService struct {
	Validator *TokenValidator
	Metrics   metricsx.BusinessMetrics
	Now       func() time.Time
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Start validates raw as an embed token. On success it returns a
// session.started event carrying the partner, subject and the token's meta
// untouched. On failure it returns a session.ended event with reason
// auth_failed and the *domain.ValidationError; the concrete reason never
// leaves the process.
func (s *SessionService) Start(ctx context.Context, raw string) (domain.SessionEvent, error) {
	now := s.now()
	res := s.Validator.Validate(ctx, raw, domain.FlowEmbed, now)

	if !res.OK() {
		slogx.Annotate(ctx, "auth_reason", string(res.Reason()))
		s.record(ctx, "start", string(res.Reason()))
		return domain.SessionEvent{
			Type:      domain.EventSessionEnded,
			Reason:    domain.SessionEndReasonAuthFailed,
			Timestamp: now.UTC(),
		}, res.Err
	}

	ev := domain.SessionEvent{
		Type:      domain.EventSessionStarted,
		SessionID: idx.NewAt(now).String(),
		PartnerID: res.Partner.ID,
		Subject:   res.Claims.Subject,
		Meta:      res.Claims.Meta,
		Timestamp: now.UTC(),
	}

	slogx.Annotate(ctx, "partner_id", ev.PartnerID, "session_id", ev.SessionID)
	slogx.FromContext(ctx).Info("session started",
		"session_id", ev.SessionID,
		"partner_id", ev.PartnerID,
		"subject", ev.Subject,
	)
	s.record(ctx, "start", metricsx.StatusSuccess)
	return ev, nil
}

func (s *SessionService) record(ctx context.Context, op, status string) {
	if s.Metrics != nil {
		s.Metrics.RecordOperation(ctx, "session", op, status)
	}
}
