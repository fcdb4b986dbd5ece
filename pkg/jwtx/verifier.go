package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// AlgHS256 is the only algorithm partner tokens may use.
const AlgHS256 = "HS256"

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// VerifyHS256 checks sig against HMAC-SHA256(secret, signingInput). The
// comparison is constant time (jwt's HMAC method uses hmac.Equal).
func VerifyHS256(signingInput string, sig, secret []byte) error {
	if len(secret) == 0 {
		return ErrInvalidSig
	}
	if err := jwt.SigningMethodHS256.Verify(signingInput, sig, secret); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	return nil
}

// VerifyToken enforces alg == HS256 before touching the secret, then checks
// the signature. Any other alg, including "none", is ErrAlgMismatch.
func VerifyToken(t *Token, secret []byte) error {
	if t == nil {
		return ErrMalformed
	}
	if t.Header.Alg != AlgHS256 {
		return ErrAlgMismatch
	}
	return VerifyHS256(t.SigningInput, t.Signature, secret)
}
