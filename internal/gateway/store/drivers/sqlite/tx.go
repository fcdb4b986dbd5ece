package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/store"
	"github.com/persona-ai/partner-gateway/pkg/cryptox"
)

type txStore struct {
	tx  *sql.Tx
	box *cryptox.SecretBox
	now func() time.Time
}

func newTx(tx *sql.Tx, box *cryptox.SecretBox, now func() time.Time) *txStore {
	return &txStore{tx: tx, box: box, now: now}
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Close() error { return nil } // caller commits or rolls back; outer DB stays open

// Ping is a no-op for transactions; the connection is already held.
func (t *txStore) Ping(ctx context.Context) error {
	return nil
}

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	// Nested tx not supported; could emulate with SAVEPOINT if needed
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Partners() store.Partners {
	return &partnersRepo{db: t.tx, box: t.box, now: t.now}
}

func (t *txStore) ApplyMigrations() error { return nil } // migrations run before any tx
