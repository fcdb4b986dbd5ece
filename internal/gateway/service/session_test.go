package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/pkg/idx"
	"github.com/persona-ai/partner-gateway/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestSessionServiceStart(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1704067500, 0)
	svc := &service.SessionService{
		Validator: newValidator(t, service.ValidatorConfig{}),
		Now:       func() time.Time { return now },
	}

	meta := jwtx.NewMeta()
	require.NoError(t, meta.Set("avatar", "aria"))
	require.NoError(t, meta.Set("locale", "en-AU"))
	tok := sign(t, secretS, jwtx.NewEmbedClaims("acme", "user-1", domain.AudienceEmbed, "sess-1", meta, time.Hour, iat))

	ev, err := svc.Start(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, domain.EventSessionStarted, ev.Type)
	require.Equal(t, "acme", ev.PartnerID)
	require.Equal(t, "user-1", ev.Subject)
	require.Equal(t, []string{"avatar", "locale"}, ev.Meta.Keys())
	require.True(t, ev.Timestamp.Equal(now))

	_, parseErr := idx.Parse(ev.SessionID)
	require.NoError(t, parseErr)

	t.Run("replay ends the session with a generic reason", func(t *testing.T) {
		ev, err := svc.Start(ctx, tok)
		require.Error(t, err)
		require.Equal(t, domain.ReasonReplayedNonce, domain.ReasonOf(err))

		require.Equal(t, domain.EventSessionEnded, ev.Type)
		require.Equal(t, domain.SessionEndReasonAuthFailed, ev.Reason)
		require.Empty(t, ev.SessionID)
		require.Empty(t, ev.PartnerID)
	})

	t.Run("api token is rejected", func(t *testing.T) {
		api := sign(t, secretS, jwtx.NewAPIClaims("acme", "svc", domain.AudienceAPI, []string{"users:read"}, time.Hour, iat))
		ev, err := svc.Start(ctx, api)
		require.Error(t, err)
		require.Equal(t, domain.EventSessionEnded, ev.Type)
	})
}
