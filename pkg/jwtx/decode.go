package jwtx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Header is the subset of the JOSE header we look at.
type Header struct {
	Alg string
	Typ string
	Kid string
}

// Token is a structurally decoded, NOT yet trusted, partner token.
type Token struct {
	Raw          string
	Header       Header
	Claims       Claims
	SigningInput string // base64url(header) + "." + base64url(payload)
	Signature    []byte
}

// Decode splits and decodes a compact token without checking the signature
// or any time claim. Unknown or missing "alg" values are not a decode error;
// the signature step rejects them. Decoding has no side effects, so decoding
// the same string twice yields equal results.
func Decode(raw string) (*Token, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}

	parser := jwt.NewParser()

	claims := &Claims{}
	parsed, parts, err := parser.ParseUnverified(raw, claims)
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed == nil || len(parts) != 3 {
		return nil, ErrMalformed
	}

	sig, err := parser.DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: signature segment: %v", ErrMalformed, err)
	}

	return &Token{
		Raw:          raw,
		Header:       headerFrom(parsed.Header),
		Claims:       *claims,
		SigningInput: parts[0] + "." + parts[1],
		Signature:    sig,
	}, nil
}

func headerFrom(h map[string]any) Header {
	str := func(k string) string {
		s, _ := h[k].(string)
		return s
	}
	return Header{
		Alg: str("alg"),
		Typ: str("typ"),
		Kid: str("kid"),
	}
}
