package gateway_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/pkg/gatewaysdk"
	"github.com/persona-ai/partner-gateway/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

// TestAdminPartnerProvisioning runs the gateway against its database and
// provisions a partner end to end.
func TestAdminPartnerProvisioning(t *testing.T) {
	client := setupGatewayContainer(t,
		withEnv("PARTNER_SOURCE", "database"),
		withEnv("DATABASE_FILE", "/tmp/gateway.db"),
		withEnv("GATEWAY_MASTER_KEY", "e2e-master-key"),
		withEnv("ADMIN_TOKEN", adminToken),
	)
	admin := client.Admin(adminToken)

	created, err := admin.CreatePartner(t.Context(), gatewaysdk.CreatePartnerRequest{
		ID:        "globex",
		Name:      "Globex",
		Audiences: []string{domain.AudienceEmbed},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.Secret)

	tok := sign(t, created.Secret,
		jwtx.NewEmbedClaims("globex", "u", domain.AudienceEmbed, "adm-1", nil, time.Minute, time.Now()))
	ev, err := client.StartSession(t.Context(), tok)
	require.NoError(t, err)
	require.Equal(t, "globex", ev.PartnerID)

	_, err = admin.DeactivatePartner(t.Context(), "globex")
	require.NoError(t, err)

	tok = sign(t, created.Secret,
		jwtx.NewEmbedClaims("globex", "u", domain.AudienceEmbed, "adm-2", nil, time.Minute, time.Now()))
	ev, err = client.StartSession(t.Context(), tok)
	assertSessionEnded(t, ev, err)

	_, err = client.Admin("wrong").ListPartners(t.Context())
	require.Equal(t, http.StatusUnauthorized, gatewaysdk.StatusCode(err))
}
