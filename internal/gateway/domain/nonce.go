package domain

import "time"

// NonceRecord is one consumed (partner, nonce) pair. It blocks replays until
// ExpiresAt, which is copied from the token's exp.
type NonceRecord struct {
	PartnerID string
	Nonce     string
	ExpiresAt time.Time
}

// Live reports whether the record still blocks reuse at now.
func (r NonceRecord) Live(now time.Time) bool {
	return !now.After(r.ExpiresAt)
}
