package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
	"github.com/persona-ai/partner-gateway/internal/gateway/store"
	"github.com/persona-ai/partner-gateway/pkg/cryptox"
	"github.com/persona-ai/partner-gateway/pkg/metricsx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

var (
	ErrPartnerNotFound = errors.New("partner not found")
	ErrPartnerExists   = errors.New("partner already exists")
	ErrInvalidPartner  = errors.New("invalid partner")
)

var partnerIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,62}$`)

// PartnerInput is what an operator supplies when provisioning a partner.
type PartnerInput struct {
	ID        string
	Name      string
	Audiences []string
	Scopes    []string
}

// PartnerService provisions partners in the database and pushes every
// change into the directory, so it applies to the next validation.
// In-flight validations keep the snapshot they started with.
type PartnerService struct {
	Store     store.Store
	Directory *partners.Directory
	Metrics   metricsx.BusinessMetrics
}

// CreatePartner stores a new active partner with a fresh 256-bit secret.
// The plaintext secret is returned once and never again.
func (s *PartnerService) CreatePartner(ctx context.Context, in PartnerInput) (domain.Partner, string, error) {
	l := slogx.FromContext(ctx)

	if !partnerIDPattern.MatchString(in.ID) {
		return domain.Partner{}, "", fmt.Errorf("%w: id must match %s", ErrInvalidPartner, partnerIDPattern)
	}
	audiences, err := normalizeAudiences(in.Audiences)
	if err != nil {
		return domain.Partner{}, "", err
	}

	secret, err := cryptox.GenerateSecret()
	if err != nil {
		l.Error("failed to generate partner secret", "error", err)
		return domain.Partner{}, "", err
	}

	p := domain.Partner{
		ID:               in.ID,
		Name:             in.Name,
		Secret:           []byte(secret),
		AllowedAudiences: audiences,
		ScopeCatalog:     compact(in.Scopes),
		Active:           true,
	}

	if err := s.Store.Partners().CreatePartner(ctx, p); err != nil {
		s.record(ctx, "create", metricsx.StatusError)
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Partner{}, "", ErrPartnerExists
		}
		l.Error("failed to create partner", "error", err, "partner_id", in.ID)
		return domain.Partner{}, "", err
	}

	s.record(ctx, "create", metricsx.StatusSuccess)
	l.Info("partner created", "partner", p, "secret_fingerprint", cryptox.Fingerprint(p.Secret))
	return p, secret, s.Refresh(ctx)
}

// GetPartner returns one stored partner.
func (s *PartnerService) GetPartner(ctx context.Context, id string) (domain.Partner, error) {
	p, err := s.Store.Partners().GetPartnerByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Partner{}, ErrPartnerNotFound
	}
	return p, err
}

// ListPartners returns every stored partner.
func (s *PartnerService) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	return s.Store.Partners().ListPartners(ctx)
}

// UpdateAccess replaces the partner's audiences and scope catalog as one
// record.
func (s *PartnerService) UpdateAccess(ctx context.Context, id string, audiences, scopes []string) (domain.Partner, error) {
	auds, err := normalizeAudiences(audiences)
	if err != nil {
		return domain.Partner{}, err
	}

	if err := s.mutate(ctx, "update_access", id, func(repo store.Partners) error {
		return repo.UpdatePartnerAccess(ctx, id, auds, compact(scopes))
	}); err != nil {
		return domain.Partner{}, err
	}
	return s.GetPartner(ctx, id)
}

// RotateSecret replaces the partner's secret and returns the new one.
// Tokens signed with the old secret fail from the next validation on.
func (s *PartnerService) RotateSecret(ctx context.Context, id string) (string, error) {
	secret, err := cryptox.GenerateSecret()
	if err != nil {
		return "", err
	}

	if err := s.mutate(ctx, "rotate_secret", id, func(repo store.Partners) error {
		return repo.UpdatePartnerSecret(ctx, id, []byte(secret))
	}); err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("partner secret rotated",
		"partner_id", id, "secret_fingerprint", cryptox.Fingerprint([]byte(secret)))
	return secret, nil
}

// SetActive activates or deactivates a partner.
func (s *PartnerService) SetActive(ctx context.Context, id string, active bool) error {
	op := "deactivate"
	if active {
		op = "activate"
	}
	return s.mutate(ctx, op, id, func(repo store.Partners) error {
		return repo.SetPartnerActive(ctx, id, active)
	})
}

// Refresh reloads the directory from the database.
func (s *PartnerService) Refresh(ctx context.Context) error {
	if s.Directory == nil {
		return nil
	}
	return s.Directory.Refresh(ctx, store.NewPartnerSource(s.Store))
}

func (s *PartnerService) mutate(ctx context.Context, op, id string, fn func(store.Partners) error) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		return fn(tx.Partners())
	})
	if err != nil {
		s.record(ctx, op, metricsx.StatusError)
		if errors.Is(err, store.ErrNotFound) {
			return ErrPartnerNotFound
		}
		slogx.FromContext(ctx).Error("partner update failed", "op", op, "partner_id", id, "error", err)
		return err
	}

	s.record(ctx, op, metricsx.StatusSuccess)
	slogx.FromContext(ctx).Info("partner updated", "op", op, "partner_id", id)
	return s.Refresh(ctx)
}

func (s *PartnerService) record(ctx context.Context, op, status string) {
	if s.Metrics != nil {
		s.Metrics.RecordOperation(ctx, "partners", op, status)
	}
}

// normalizeAudiences defaults to both gateway audiences and rejects blanks.
func normalizeAudiences(in []string) ([]string, error) {
	out := compact(in)
	if len(out) == 0 {
		return []string{domain.AudienceEmbed, domain.AudienceAPI}, nil
	}
	return out, nil
}

// compact drops blanks and duplicates, keeping first-seen order.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}
