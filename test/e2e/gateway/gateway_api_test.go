package gateway_test

import (
	"net/http"
	"testing"

	"github.com/persona-ai/partner-gateway/pkg/gatewaysdk"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/stretchr/testify/require"
)

// TestAPITokenInfo verifies the partner API accepts a scoped API token.
func TestAPITokenInfo(t *testing.T) {
	client := setupGatewayContainer(t)
	tok := apiToken(t, "experiences:read")

	info, err := client.TokenInfo(t.Context(), tok)
	require.NoError(t, err)
	require.Equal(t, partnerID, info.PartnerID)
	require.Equal(t, []string{"experiences:read"}, info.Scopes)

	// API tokens carry no nonce and may be reused.
	_, err = client.TokenInfo(t.Context(), tok)
	require.NoError(t, err)
}

// TestAPIScopes verifies granted and denied scopes.
func TestAPIScopes(t *testing.T) {
	client := setupGatewayContainer(t)
	tok := apiToken(t, "experiences:read")

	check, err := client.CheckScope(t.Context(), tok, "experiences:read")
	require.NoError(t, err)
	require.True(t, check.Granted)

	_, err = client.CheckScope(t.Context(), tok, "users:read")
	require.True(t, gatewaysdk.IsCode(err, httpx.CodeInsufficientScope), "got %v", err)
	require.Equal(t, http.StatusForbidden, gatewaysdk.StatusCode(err))
}

// TestAPIRejectsEmbedToken verifies embed tokens cannot call the partner API.
func TestAPIRejectsEmbedToken(t *testing.T) {
	client := setupGatewayContainer(t)

	_, err := client.TokenInfo(t.Context(), embedToken(t, "api-nonce"))
	require.True(t, gatewaysdk.IsCode(err, httpx.CodeInvalidToken), "got %v", err)
	require.Equal(t, http.StatusUnauthorized, gatewaysdk.StatusCode(err))

	_, err = client.TokenInfo(t.Context(), "")
	require.Equal(t, http.StatusUnauthorized, gatewaysdk.StatusCode(err))
}
