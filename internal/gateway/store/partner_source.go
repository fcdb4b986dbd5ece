package store

import (
	"context"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
)

// PartnerSource adapts a Store to the partner directory's Source, so the
// directory can refresh from the database without importing the store.
type PartnerSource struct {
	store Store
}

// NewPartnerSource creates a Source that lists partners from s.
func NewPartnerSource(s Store) *PartnerSource {
	return &PartnerSource{store: s}
}

// Load returns every stored partner.
func (a *PartnerSource) Load(ctx context.Context) ([]domain.Partner, error) {
	return a.store.Partners().ListPartners(ctx)
}
