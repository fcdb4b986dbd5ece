package domain

import (
	"log/slog"
	"slices"
	"time"
)

// Partner is one registered partner organisation. ID matches the "iss"
// claim of every token the partner mints.
type Partner struct {
	ID               string
	Name             string
	Secret           []byte   // HMAC shared secret, never leaves the gateway
	AllowedAudiences []string // e.g. "pixels.persona-ai.ai", "api.persona-ai.ai"
	ScopeCatalog     []string // scopes the partner may ever be granted
	Active           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AllowsAudience reports whether aud is one of the partner's audiences.
func (p *Partner) AllowsAudience(aud string) bool {
	return slices.Contains(p.AllowedAudiences, aud)
}

// GrantsScope reports whether scope is in the partner's catalog.
func (p *Partner) GrantsScope(scope string) bool {
	return slices.Contains(p.ScopeCatalog, scope)
}

// Clone returns a deep copy so snapshots can be handed out without sharing
// slices with the directory.
func (p Partner) Clone() Partner {
	p.Secret = slices.Clone(p.Secret)
	p.AllowedAudiences = slices.Clone(p.AllowedAudiences)
	p.ScopeCatalog = slices.Clone(p.ScopeCatalog)
	return p
}

// LogValue keeps the secret out of every log line.
func (p Partner) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", p.ID),
		slog.Bool("active", p.Active),
		slog.Any("audiences", p.AllowedAudiences),
		slog.Int("scope_catalog_size", len(p.ScopeCatalog)),
	)
}
