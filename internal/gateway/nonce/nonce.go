// Package nonce records consumed token nonces so an embed token can only
// start one session while it is live.
package nonce

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrReplayed means a live record already exists for (partner, nonce).
	ErrReplayed = errors.New("nonce: already consumed")

	// ErrUnavailable means the backing store could not be consulted. Callers
	// must reject the token.
	ErrUnavailable = errors.New("nonce: registry unavailable")

	// ErrInvalid rejects empty keys before they reach the store.
	ErrInvalid = errors.New("nonce: empty partner or nonce")
)

// Registry is the replay-protection contract shared by every backend.
type Registry interface {
	// CheckAndConsume atomically records (partnerID, nonce) until expiresAt.
	// It returns ErrReplayed if a record for the key is still live at now.
	// Of two concurrent calls with the same key exactly one succeeds.
	CheckAndConsume(ctx context.Context, partnerID, nonce string, expiresAt, now time.Time) error

	// Prune drops records that expired before now and returns how many were
	// removed. Backends with native expiry may return 0.
	Prune(ctx context.Context, now time.Time) (int, error)

	// Ping reports whether the registry can take writes.
	Ping(ctx context.Context) error
}
