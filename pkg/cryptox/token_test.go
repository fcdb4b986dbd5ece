package cryptox

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantLen int
	}{
		{"128-bit token", TokenSize128, 22},
		{"256-bit token", TokenSize256, 43},
		{"custom size", 24, 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.Len(t, token, tt.wantLen)

			// Verify token is unique (generate another and compare)
			token2, err := GenerateToken(tt.size)
			require.NoError(t, err)
			require.NotEqual(t, token, token2, "tokens should be unique")
		})
	}
}

func TestGenerateToken_InvalidSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		token, err := GenerateToken(size)
		require.Error(t, err)
		require.Empty(t, token)
	}
}

func TestGenerateSecret(t *testing.T) {
	const count = 100
	seen := make(map[string]bool, count)

	for range count {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		require.Len(t, secret, 43)
		require.NotContains(t, seen, secret, "duplicate secret generated")
		seen[secret] = true
	}
}

func TestFingerprint(t *testing.T) {
	fp1a := Fingerprint([]byte("S-acme"))
	fp1b := Fingerprint([]byte("S-acme"))
	fp2 := Fingerprint([]byte("S-globex"))

	require.Equal(t, fp1a, fp1b, "fingerprint should be deterministic")
	require.NotEqual(t, fp1a, fp2)
	require.Len(t, fp1a, 12)
	require.NotContains(t, fp1a, "S-acme")
}

func TestEqual(t *testing.T) {
	require.True(t, Equal("admin-token", "admin-token"))
	require.False(t, Equal("admin-token", "admin-tokeN"))
	require.False(t, Equal("admin-token", "admin"))
	require.False(t, Equal("", "x"))
}
