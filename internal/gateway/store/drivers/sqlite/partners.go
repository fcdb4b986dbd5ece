package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/pkg/cryptox"
)

const partnerColumns = `id, name, secret_encrypted, audiences, scopes, active, created_at, updated_at`

type partnersRepo struct {
	db  dbtx
	box *cryptox.SecretBox
	now func() time.Time
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *partnersRepo) scan(row rowScanner) (domain.Partner, error) {
	var (
		p         domain.Partner
		sealed    []byte
		audiences string
		scopes    string
		created   int64
		updated   int64
	)
	if err := row.Scan(&p.ID, &p.Name, &sealed, &audiences, &scopes, &p.Active, &created, &updated); err != nil {
		return domain.Partner{}, err
	}

	secret, err := r.box.Open(sealed, []byte(p.ID))
	if err != nil {
		return domain.Partner{}, fmt.Errorf("partner %q: %w", p.ID, err)
	}

	p.Secret = secret
	p.AllowedAudiences = splitAndFilter(audiences)
	p.ScopeCatalog = splitAndFilter(scopes)
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, nil
}

func (r *partnersRepo) GetPartnerByID(ctx context.Context, id string) (domain.Partner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = ?`, id)
	p, err := r.scan(row)
	if err != nil {
		return domain.Partner{}, mapNotFound(err)
	}
	return p, nil
}

func (r *partnersRepo) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Partner
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *partnersRepo) CreatePartner(ctx context.Context, p domain.Partner) error {
	sealed, err := r.box.Seal(p.Secret, []byte(p.ID))
	if err != nil {
		return err
	}

	now := r.now().Unix()
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO partners (`+partnerColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, sealed,
		strings.Join(p.AllowedAudiences, " "),
		strings.Join(p.ScopeCatalog, " "),
		p.Active, now, now,
	)
	return mapAlreadyExists(err)
}

func (r *partnersRepo) UpdatePartnerAccess(ctx context.Context, id string, audiences, scopes []string) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE partners SET audiences = ?, scopes = ?, updated_at = ? WHERE id = ?`,
		strings.Join(audiences, " "), strings.Join(scopes, " "), r.now().Unix(), id,
	))
}

func (r *partnersRepo) UpdatePartnerSecret(ctx context.Context, id string, secret []byte) error {
	sealed, err := r.box.Seal(secret, []byte(id))
	if err != nil {
		return err
	}
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE partners SET secret_encrypted = ?, updated_at = ? WHERE id = ?`,
		sealed, r.now().Unix(), id,
	))
}

func (r *partnersRepo) SetPartnerActive(ctx context.Context, id string, active bool) error {
	return expectOne(r.db.ExecContext(ctx,
		`UPDATE partners SET active = ?, updated_at = ? WHERE id = ?`,
		active, r.now().Unix(), id,
	))
}

func (r *partnersRepo) DeletePartner(ctx context.Context, id string) error {
	return expectOne(r.db.ExecContext(ctx, `DELETE FROM partners WHERE id = ?`, id))
}

func (r *partnersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM partners`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}
