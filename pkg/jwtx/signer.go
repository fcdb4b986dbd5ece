package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign partner tokens.
type Signer interface {
	Alg() string
	KID() string
	Sign(Claims) (string, error)
	Validate() error
}

// HS256Signer signs tokens with a partner's shared secret. This is what the
// partner side runs; the gateway only uses it in tooling and tests.
type HS256Signer struct {
	kid    string
	secret []byte
}

// NewSignerHS256 creates an HS256 signer. kid is optional and only ends up
// in the header when non-empty.
func NewSignerHS256(kid string, secret []byte) (*HS256Signer, error) {
	s := &HS256Signer{kid: kid, secret: append([]byte(nil), secret...)}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HS256Signer) Alg() string { return AlgHS256 }
func (s *HS256Signer) KID() string { return s.kid }

// Sign produces header {"alg":"HS256","typ":"JWT"} + payload + signature.
func (s *HS256Signer) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if s.kid != "" {
		t.Header["kid"] = s.kid
	}
	return t.SignedString(s.secret)
}

// Validate makes sure we actually have a secret.
func (s *HS256Signer) Validate() error {
	if len(s.secret) == 0 {
		return errors.New("jwtx: empty HS256 secret")
	}
	return nil
}
