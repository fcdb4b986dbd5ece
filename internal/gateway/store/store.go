package store

import (
	"context"
	"errors"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for partner provisioning.
// Sub-repositories are exposed as methods so a Tx-scoped store hands out
// the same repos bound to the transaction.
type Store interface {
	Partners() Partners

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Partners interface {
	// GetPartnerByID returns a partner with its secret decrypted.
	GetPartnerByID(ctx context.Context, id string) (domain.Partner, error)

	// ListPartners returns every partner, active or not, ordered by id.
	ListPartners(ctx context.Context) ([]domain.Partner, error)

	// CreatePartner inserts a new partner; the secret is encrypted at rest.
	CreatePartner(ctx context.Context, p domain.Partner) error

	// UpdatePartnerAccess replaces the audience and scope lists.
	UpdatePartnerAccess(ctx context.Context, id string, audiences, scopes []string) error

	// UpdatePartnerSecret replaces the shared secret.
	UpdatePartnerSecret(ctx context.Context, id string, secret []byte) error

	// SetPartnerActive flips the active flag.
	SetPartnerActive(ctx context.Context, id string, active bool) error

	// DeletePartner removes the partner.
	DeletePartner(ctx context.Context, id string) error

	// IsEmpty returns true if there are no partners.
	IsEmpty(ctx context.Context) (bool, error)
}
