package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/persona-ai/partner-gateway/pkg/jwtx"
	"github.com/persona-ai/partner-gateway/pkg/metricsx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

// DefaultMaxTokenAge bounds now - iat independently of exp.
const DefaultMaxTokenAge = 24 * time.Hour

// PartnerLookup resolves an issuer to its partner record. The directory
// snapshot implements it.
type PartnerLookup interface {
	Lookup(id string) (*domain.Partner, bool)
}

// ValidatorConfig tunes the time checks and the per-flow audiences.
type ValidatorConfig struct {
	// ClockSkew widens both the expiry and the not-before check. Zero means
	// exact comparisons.
	ClockSkew time.Duration

	// MaxTokenAge is the largest accepted now - iat. Exactly MaxTokenAge
	// passes.
	MaxTokenAge time.Duration

	EmbedAudience string
	APIAudience   string
}

func (c ValidatorConfig) withDefaults() ValidatorConfig {
	if c.MaxTokenAge <= 0 {
		c.MaxTokenAge = DefaultMaxTokenAge
	}
	if c.ClockSkew < 0 {
		c.ClockSkew = 0
	}
	if c.EmbedAudience == "" {
		c.EmbedAudience = domain.AudienceEmbed
	}
	if c.APIAudience == "" {
		c.APIAudience = domain.AudienceAPI
	}
	return c
}

// TokenValidator turns a raw partner token into a ValidationResult. It is
// safe for concurrent use; the nonce registry is the only shared mutable
// state it touches.
type TokenValidator struct {
	partners PartnerLookup
	nonces   nonce.Registry
	metrics  metricsx.BusinessMetrics
	cfg      ValidatorConfig
}

// NewTokenValidator wires the validator. metrics may be nil.
func NewTokenValidator(
	partners PartnerLookup,
	nonces nonce.Registry,
	cfg ValidatorConfig,
	metrics metricsx.BusinessMetrics,
) *TokenValidator {
	if metrics == nil {
		metrics = metricsx.NoOp{}
	}
	return &TokenValidator{
		partners: partners,
		nonces:   nonces,
		metrics:  metrics,
		cfg:      cfg.withDefaults(),
	}
}

// Audience returns the audience a token for flow must carry.
func (v *TokenValidator) Audience(flow domain.Flow) string {
	switch flow {
	case domain.FlowEmbed:
		return v.cfg.EmbedAudience
	case domain.FlowAPI:
		return v.cfg.APIAudience
	default:
		return ""
	}
}

// Validate runs every check in order and stops at the first failure:
//
//  1. decode and required claims          -> malformed
//  2. partner lookup (unknown/inactive)   -> bad_issuer
//  3. alg == HS256 and HMAC signature     -> bad_signature
//  4. flow audience in aud and partner    -> bad_audience
//  5. exp / iat against now (+skew)       -> expired, not_yet_valid
//  6. now - iat <= MaxTokenAge            -> window_exceeded
//  7. embed only: consume the nonce       -> replayed_nonce
//
// The nonce is consumed last so a token that fails any other check never
// burns it.
func (v *TokenValidator) Validate(ctx context.Context, raw string, flow domain.Flow, now time.Time) domain.ValidationResult {
	start := time.Now()
	res := v.validate(ctx, raw, flow, now)

	status := metricsx.StatusSuccess
	if !res.OK() {
		status = string(res.Reason())
		l := slogx.FromContext(ctx)
		attrs := []any{"flow", flow.String(), "reason", status, "error", res.Err.Err}
		if res.Claims != nil {
			attrs = append(attrs, "iss", res.Claims.Issuer)
		}
		l.Warn("token rejected", attrs...)
	}

	v.metrics.RecordOperation(ctx, "validator", flow.String(), status)
	v.metrics.RecordDuration(ctx, "validator", flow.String(), time.Since(start), status)
	return res
}

func (v *TokenValidator) validate(ctx context.Context, raw string, flow domain.Flow, now time.Time) domain.ValidationResult {
	required := flow.RequiredClaims()
	if required == nil {
		return domain.Invalid(flow, domain.ReasonMalformed, fmt.Errorf("unknown flow %d", int(flow)))
	}

	// 1. structure
	tok, err := jwtx.Decode(raw)
	if err != nil {
		return domain.Invalid(flow, domain.ReasonMalformed, err)
	}
	claims := &tok.Claims
	if missing := claims.Missing(required...); len(missing) > 0 {
		return invalidWith(flow, claims, domain.ReasonMalformed,
			fmt.Errorf("%w: missing %v", jwtx.ErrMalformed, missing))
	}
	if flow.ConsumesNonce() && claims.Nonce == "" {
		return invalidWith(flow, claims, domain.ReasonMalformed, fmt.Errorf("%w: empty nonce", jwtx.ErrMalformed))
	}
	if claims.IssuedAtTime().After(claims.ExpiresAtTime()) {
		return invalidWith(flow, claims, domain.ReasonMalformed, fmt.Errorf("%w: iat after exp", jwtx.ErrInvalidClaim))
	}

	// 2. issuer
	partner, ok := v.partners.Lookup(claims.Issuer)
	if !ok {
		return invalidWith(flow, claims, domain.ReasonBadIssuer, fmt.Errorf("unknown issuer %q", claims.Issuer))
	}
	if !partner.Active {
		return invalidWith(flow, claims, domain.ReasonBadIssuer, fmt.Errorf("issuer %q is deactivated", claims.Issuer))
	}

	// 3. algorithm, then signature. The secret is not read unless alg is HS256.
	if err := jwtx.VerifyToken(tok, partner.Secret); err != nil {
		return invalidWith(flow, claims, domain.ReasonBadSignature, err)
	}

	// 4. audience
	aud := v.Audience(flow)
	if !claims.HasAudience(aud) {
		return invalidWith(flow, claims, domain.ReasonBadAudience, fmt.Errorf("token aud %v lacks %q", claims.Audience, aud))
	}
	if !partner.AllowsAudience(aud) {
		return invalidWith(flow, claims, domain.ReasonBadAudience, fmt.Errorf("partner not allowed audience %q", aud))
	}

	// 5. time
	iat, exp := claims.IssuedAtTime(), claims.ExpiresAtTime()
	if !now.Before(exp.Add(v.cfg.ClockSkew)) {
		return invalidWith(flow, claims, domain.ReasonExpired, fmt.Errorf("exp %d, now %d", exp.Unix(), now.Unix()))
	}
	if now.Before(iat.Add(-v.cfg.ClockSkew)) {
		return invalidWith(flow, claims, domain.ReasonNotYetValid, fmt.Errorf("iat %d, now %d", iat.Unix(), now.Unix()))
	}

	// 6. age window
	if now.Sub(iat) > v.cfg.MaxTokenAge {
		return invalidWith(flow, claims, domain.ReasonWindowExceeded,
			fmt.Errorf("token age %s exceeds %s", now.Sub(iat), v.cfg.MaxTokenAge))
	}

	// 7. replay
	if flow.ConsumesNonce() {
		// Keep the record for as long as the token could still be accepted.
		err := v.nonces.CheckAndConsume(ctx, partner.ID, claims.Nonce, exp.Add(v.cfg.ClockSkew), now)
		switch {
		case err == nil:
		case errors.Is(err, nonce.ErrReplayed):
			return invalidWith(flow, claims, domain.ReasonReplayedNonce, err)
		case errors.Is(err, nonce.ErrInvalid):
			return invalidWith(flow, claims, domain.ReasonMalformed, err)
		default:
			return invalidWith(flow, claims, domain.ReasonRegistryUnavailable, err)
		}
	}

	return domain.Valid(flow, claims, partner)
}

// invalidWith keeps the decoded claims on the result for logging.
func invalidWith(flow domain.Flow, claims *jwtx.Claims, reason domain.Reason, err error) domain.ValidationResult {
	res := domain.Invalid(flow, reason, err)
	res.Claims = claims
	return res
}
