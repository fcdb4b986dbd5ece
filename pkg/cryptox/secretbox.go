package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/hkdf"
)

// MasterKeyEnv is read when no master key file is configured.
const MasterKeyEnv = "GATEWAY_MASTER_KEY"

// hkdfInfo binds derived keys to their purpose so the same master key can
// never decrypt data sealed for another use.
const hkdfInfo = "partner-gateway/partner-secret/v1"

var ErrDecrypt = errors.New("cryptox: decryption failed")

// SecretBox seals partner secrets at rest with AES-256-GCM.
// Output format: [12-byte nonce][ciphertext][16-byte tag].
type SecretBox struct {
	aead cipher.AEAD

	// Ephemeral is true when no master key was configured and a random one
	// was generated; sealed data will not survive a restart.
	Ephemeral bool
}

// NewSecretBox derives a 32-byte key from material with HKDF-SHA256.
func NewSecretBox(material []byte) (*SecretBox, error) {
	if len(material) == 0 {
		return nil, errors.New("cryptox: empty master key material")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, material, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &SecretBox{aead: gcm}, nil
}

// LoadSecretBox loads the master key from:
//  1. the file at path (if set)
//  2. the GATEWAY_MASTER_KEY environment variable
//  3. a random key for development (NOT for production)
func LoadSecretBox(path string) (*SecretBox, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		return NewSecretBox(data)
	}

	if env := os.Getenv(MasterKeyEnv); env != "" {
		return NewSecretBox([]byte(env))
	}

	material := make([]byte, 32)
	if _, err := rand.Read(material); err != nil {
		return nil, fmt.Errorf("failed to generate ephemeral master key: %w", err)
	}
	box, err := NewSecretBox(material)
	if err != nil {
		return nil, err
	}
	box.Ephemeral = true
	return box, nil
}

// Seal encrypts plaintext. aad is authenticated but not encrypted; callers
// pass the owning record id so ciphertexts cannot be moved between rows.
func (b *SecretBox) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return b.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal. The same aad must be supplied.
func (b *SecretBox) Open(sealed, aad []byte) ([]byte, error) {
	n := b.aead.NonceSize()
	if len(sealed) < n+b.aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	plaintext, err := b.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}
