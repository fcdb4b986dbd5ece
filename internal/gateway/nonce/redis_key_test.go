package nonce

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRedisKeyIsUnambiguous(t *testing.T) {
	r := &Redis{keyPrefix: "gateway:nonce:"}

	require.Equal(t, "gateway:nonce:4:acme:n1", r.key("acme", "n1"))
	require.NotEqual(t, r.key("acme", "x:y"), r.key("acme:x", "y"))
}
