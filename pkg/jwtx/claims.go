package jwtx

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the partner token claims. Registered claims cover iss, sub,
// aud, iat and exp; the rest is flow specific:
//
//	embed: nonce (+ optional meta)
//	api:   scope
type Claims struct {
	jwt.RegisteredClaims

	// Scope lists the permission scopes requested by an API token,
	// e.g. ["experiences:read", "users:read"].
	Scope ScopeList `json:"scope,omitempty"`

	// Nonce is the single-use value carried by embed tokens.
	Nonce string `json:"nonce,omitempty"`

	// Meta is passed through to the session layer untouched.
	Meta *Meta `json:"meta,omitempty"`

	// present records which top-level claim names appeared in the payload.
	present map[string]struct{}
}

// Claim names used by required-claim checks.
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimIssuedAt  = "iat"
	ClaimExpiresAt = "exp"
	ClaimScope     = "scope"
	ClaimNonce     = "nonce"
	ClaimMeta      = "meta"
)

// UnmarshalJSON decodes the payload and remembers which claims were present,
// so that an explicit empty value can be told apart from a missing one.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type alias Claims
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.present = make(map[string]struct{}, len(raw))
	for k, v := range raw {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		a.present[k] = struct{}{}
	}

	*c = Claims(a)
	return nil
}

// Has reports whether the named claim was present (and not null) in the
// decoded payload. Claims built in code report a claim present when its
// field is set.
func (c *Claims) Has(name string) bool {
	if c.present != nil {
		_, ok := c.present[name]
		return ok
	}

	switch name {
	case ClaimIssuer:
		return c.Issuer != ""
	case ClaimSubject:
		return c.Subject != ""
	case ClaimAudience:
		return len(c.Audience) > 0
	case ClaimIssuedAt:
		return c.IssuedAt != nil
	case ClaimExpiresAt:
		return c.ExpiresAt != nil
	case ClaimScope:
		return c.Scope != nil
	case ClaimNonce:
		return c.Nonce != ""
	case ClaimMeta:
		return c.Meta != nil
	default:
		return false
	}
}

// Missing returns the subset of required claim names not present.
func (c *Claims) Missing(required ...string) []string {
	var out []string
	for _, name := range required {
		if !c.Has(name) {
			out = append(out, name)
		}
	}
	return out
}

// HasAudience reports whether aud contains want.
func (c *Claims) HasAudience(want string) bool {
	return slices.Contains(c.Audience, want)
}

// IssuedAtTime returns iat, or the zero time when absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns exp, or the zero time when absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// NewEmbedClaims builds claims for the embed flow.
func NewEmbedClaims(
	issuer, subject, audience, nonce string,
	meta *Meta,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Nonce: nonce,
		Meta:  meta,
	}
}

// NewAPIClaims builds claims for the API flow.
func NewAPIClaims(
	issuer, subject, audience string,
	scope []string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: ScopeList(scope),
	}
}

// ScopeList is an ordered sequence of scope strings. On the wire it is a
// JSON array; a single space-delimited string is accepted as well since
// some partner tooling emits the OAuth2 form.
type ScopeList []string

// UnmarshalJSON accepts ["a","b"] or "a b".
func (s *ScopeList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return ErrInvalidClaim
	}

	fields := strings.Fields(single)
	if fields == nil {
		fields = []string{}
	}
	*s = fields
	return nil
}

// Contains reports whether the exact scope string is present.
func (s ScopeList) Contains(scope string) bool {
	return slices.Contains(s, scope)
}
