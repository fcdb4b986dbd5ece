package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var (
	secretS = []byte("S")
	iat     = time.Unix(1704067200, 0)
	exp     = time.Unix(1704070800, 0)
)

func testDirectory(t *testing.T) *partners.Directory {
	t.Helper()
	dir := partners.NewDirectory()
	require.NoError(t, dir.Replace([]domain.Partner{
		{
			ID:               "acme",
			Secret:           secretS,
			AllowedAudiences: []string{domain.AudienceEmbed, domain.AudienceAPI},
			ScopeCatalog:     []string{"experiences:read", "users:read"},
			Active:           true,
		},
		{
			ID:               "globex",
			Secret:           []byte("G"),
			AllowedAudiences: []string{domain.AudienceAPI},
			ScopeCatalog:     []string{"experiences:read"},
			Active:           true,
		},
		{
			ID:               "dormant",
			Secret:           []byte("D"),
			AllowedAudiences: []string{domain.AudienceEmbed},
			Active:           false,
		},
	}))
	return dir
}

func newValidator(t *testing.T, cfg service.ValidatorConfig) *service.TokenValidator {
	t.Helper()
	return service.NewTokenValidator(testDirectory(t), nonce.NewMemory(), cfg, nil)
}

func sign(t *testing.T, secret []byte, claims jwtx.Claims) string {
	t.Helper()
	signer, err := jwtx.NewSignerHS256("", secret)
	require.NoError(t, err)
	tok, err := signer.Sign(claims)
	require.NoError(t, err)
	return tok
}

func embedToken(t *testing.T, issuer, aud, n string) string {
	t.Helper()
	c := jwtx.NewEmbedClaims(issuer, "user-1", aud, n, nil, exp.Sub(iat), iat)
	return sign(t, secretS, c)
}

// rawToken signs an arbitrary header and payload so tests can build tokens
// the signer refuses to produce.
func rawToken(header, payload string, secret []byte) string {
	enc := base64.RawURLEncoding
	input := enc.EncodeToString([]byte(header)) + "." + enc.EncodeToString([]byte(payload))
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(input))
	return input + "." + enc.EncodeToString(mac.Sum(nil))
}

func TestValidatorScenarios(t *testing.T) {
	ctx := context.Background()
	v := newValidator(t, service.ValidatorConfig{})
	tok := embedToken(t, "acme", domain.AudienceEmbed, "n1")

	t.Run("valid embed token", func(t *testing.T) {
		res := v.Validate(ctx, tok, domain.FlowEmbed, time.Unix(1704067500, 0))
		require.True(t, res.OK(), "reason: %s", res.Reason())
		require.Equal(t, "acme", res.Partner.ID)
		require.Equal(t, "user-1", res.Claims.Subject)
		require.Equal(t, "n1", res.Claims.Nonce)
	})

	t.Run("replay is rejected", func(t *testing.T) {
		res := v.Validate(ctx, tok, domain.FlowEmbed, time.Unix(1704067600, 0))
		require.Equal(t, domain.ReasonReplayedNonce, res.Reason())
	})

	t.Run("expired", func(t *testing.T) {
		fresh := embedToken(t, "acme", domain.AudienceEmbed, "n-expired")
		res := v.Validate(ctx, fresh, domain.FlowEmbed, time.Unix(1704070801, 0))
		require.Equal(t, domain.ReasonExpired, res.Reason())
	})

	t.Run("api audience on embed flow", func(t *testing.T) {
		wrong := embedToken(t, "acme", domain.AudienceAPI, "n-aud")
		res := v.Validate(ctx, wrong, domain.FlowEmbed, time.Unix(1704067500, 0))
		require.Equal(t, domain.ReasonBadAudience, res.Reason())
	})

	t.Run("scope not granted", func(t *testing.T) {
		api := sign(t, secretS, jwtx.NewAPIClaims("acme", "svc", domain.AudienceAPI,
			[]string{"experiences:read"}, time.Hour, iat))
		res := v.Validate(ctx, api, domain.FlowAPI, time.Unix(1704067500, 0))
		require.True(t, res.OK())

		err := service.ScopeAuthorizer{}.Authorize(res, "users:read")
		require.ErrorIs(t, err, service.ErrInsufficientScope)
		require.Equal(t, domain.ReasonInsufficientScope, domain.ReasonOf(err))

		require.NoError(t, service.ScopeAuthorizer{}.Authorize(res, "experiences:read"))
	})
}

func TestValidatorReasons(t *testing.T) {
	now := time.Unix(1704067500, 0)
	header := `{"alg":"HS256","typ":"JWT"}`

	tests := []struct {
		name  string
		token string
		flow  domain.Flow
		want  domain.Reason
	}{
		{"garbage", "not-a-token", domain.FlowEmbed, domain.ReasonMalformed},
		{"missing nonce", rawToken(header,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067200,"exp":1704070800}`, secretS),
			domain.FlowEmbed, domain.ReasonMalformed},
		{"empty nonce", rawToken(header,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067200,"exp":1704070800,"nonce":""}`, secretS),
			domain.FlowEmbed, domain.ReasonMalformed},
		{"missing scope on api", rawToken(header,
			`{"iss":"acme","sub":"u","aud":"api.persona-ai.ai","iat":1704067200,"exp":1704070800}`, secretS),
			domain.FlowAPI, domain.ReasonMalformed},
		{"unknown issuer", embedToken(t, "initech", domain.AudienceEmbed, "n"), domain.FlowEmbed, domain.ReasonBadIssuer},
		{"deactivated issuer", embedToken(t, "dormant", domain.AudienceEmbed, "n"), domain.FlowEmbed, domain.ReasonBadIssuer},
		{"wrong secret", rawToken(header,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067200,"exp":1704070800,"nonce":"n"}`, []byte("not-S")),
			domain.FlowEmbed, domain.ReasonBadSignature},
		{"alg none", rawToken(`{"alg":"none","typ":"JWT"}`,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067200,"exp":1704070800,"nonce":"n"}`, secretS),
			domain.FlowEmbed, domain.ReasonBadSignature},
		{"alg HS512 header", rawToken(`{"alg":"HS512","typ":"JWT"}`,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067200,"exp":1704070800,"nonce":"n"}`, secretS),
			domain.FlowEmbed, domain.ReasonBadSignature},
		{"partner lacks audience", sign(t, []byte("G"), jwtx.NewEmbedClaims("globex", "u", domain.AudienceEmbed, "n", nil, time.Hour, iat)),
			domain.FlowEmbed, domain.ReasonBadAudience},
		{"not yet valid", rawToken(header,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067600,"exp":1704070800,"nonce":"n"}`, secretS),
			domain.FlowEmbed, domain.ReasonNotYetValid},
		{"iat after exp", rawToken(header,
			`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067400,"exp":1704067300,"nonce":"n"}`, secretS),
			domain.FlowEmbed, domain.ReasonExpired},
		{"unknown flow", embedToken(t, "acme", domain.AudienceEmbed, "n"), domain.Flow(0), domain.ReasonMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newValidator(t, service.ValidatorConfig{})
			res := v.Validate(context.Background(), tt.token, tt.flow, now)
			require.False(t, res.OK())
			require.Equal(t, tt.want, res.Reason())
		})
	}
}

func TestValidatorIatAfterExpIsMalformed(t *testing.T) {
	tok := rawToken(`{"alg":"HS256","typ":"JWT"}`,
		`{"iss":"acme","sub":"u","aud":"pixels.persona-ai.ai","iat":1704067400,"exp":1704067300,"nonce":"n"}`, secretS)

	// The reason does not depend on the clock or the skew.
	for _, skew := range []time.Duration{0, time.Hour} {
		for _, at := range []int64{1704067200, 1704067350, 1704067500} {
			v := newValidator(t, service.ValidatorConfig{ClockSkew: skew})
			res := v.Validate(context.Background(), tok, domain.FlowEmbed, time.Unix(at, 0))
			require.Equal(t, domain.ReasonMalformed, res.Reason(), "skew %s at %d", skew, at)
		}
	}
}

func TestValidatorSignatureCheckedBeforeClaims(t *testing.T) {
	// Wrong secret AND wrong audience AND expired: the signature failure wins.
	v := newValidator(t, service.ValidatorConfig{})
	c := jwtx.NewEmbedClaims("acme", "u", domain.AudienceAPI, "n", nil, time.Minute, iat)
	tok := sign(t, []byte("wrong"), c)

	res := v.Validate(context.Background(), tok, domain.FlowEmbed, iat.Add(time.Hour))
	require.Equal(t, domain.ReasonBadSignature, res.Reason())
}

func TestValidatorFailedTokenDoesNotBurnNonce(t *testing.T) {
	ctx := context.Background()
	v := newValidator(t, service.ValidatorConfig{})
	tok := embedToken(t, "acme", domain.AudienceEmbed, "n-keep")

	// Too early: rejected before the nonce step.
	res := v.Validate(ctx, tok, domain.FlowEmbed, iat.Add(-time.Second))
	require.Equal(t, domain.ReasonNotYetValid, res.Reason())

	res = v.Validate(ctx, tok, domain.FlowEmbed, iat.Add(time.Second))
	require.True(t, res.OK())
}

func TestValidatorTimeBoundaries(t *testing.T) {
	ctx := context.Background()

	t.Run("exp == now is expired", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{})
		res := v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "b1"), domain.FlowEmbed, exp)
		require.Equal(t, domain.ReasonExpired, res.Reason())
	})

	t.Run("one second before exp is valid", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{})
		res := v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "b2"), domain.FlowEmbed, exp.Add(-time.Second))
		require.True(t, res.OK())
	})

	t.Run("iat == now is valid", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{})
		res := v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "b3"), domain.FlowEmbed, iat)
		require.True(t, res.OK())
	})

	long := func(t *testing.T, n string) string {
		c := jwtx.NewEmbedClaims("acme", "u", domain.AudienceEmbed, n, nil, 48*time.Hour, iat)
		return sign(t, secretS, c)
	}

	t.Run("age exactly 24h passes", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{})
		res := v.Validate(ctx, long(t, "w1"), domain.FlowEmbed, iat.Add(24*time.Hour))
		require.True(t, res.OK(), "reason: %s", res.Reason())
	})

	t.Run("age 24h+1s exceeds window", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{})
		res := v.Validate(ctx, long(t, "w2"), domain.FlowEmbed, iat.Add(24*time.Hour+time.Second))
		require.Equal(t, domain.ReasonWindowExceeded, res.Reason())
	})

	t.Run("custom max age", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{MaxTokenAge: time.Hour})
		res := v.Validate(ctx, long(t, "w3"), domain.FlowEmbed, iat.Add(time.Hour+time.Second))
		require.Equal(t, domain.ReasonWindowExceeded, res.Reason())
	})
}

func TestValidatorClockSkew(t *testing.T) {
	ctx := context.Background()
	skew := 30 * time.Second

	t.Run("zero skew", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{})
		res := v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "s1"), domain.FlowEmbed, iat.Add(-time.Second))
		require.Equal(t, domain.ReasonNotYetValid, res.Reason())

		res = v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "s2"), domain.FlowEmbed, exp.Add(time.Second))
		require.Equal(t, domain.ReasonExpired, res.Reason())
	})

	t.Run("nonzero skew", func(t *testing.T) {
		v := newValidator(t, service.ValidatorConfig{ClockSkew: skew})

		res := v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "s3"), domain.FlowEmbed, iat.Add(-skew))
		require.True(t, res.OK(), "iat - skew is accepted")

		res = v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "s4"), domain.FlowEmbed, iat.Add(-skew-time.Second))
		require.Equal(t, domain.ReasonNotYetValid, res.Reason())

		res = v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "s5"), domain.FlowEmbed, exp.Add(skew-time.Second))
		require.True(t, res.OK(), "inside the grace after exp")

		res = v.Validate(ctx, embedToken(t, "acme", domain.AudienceEmbed, "s6"), domain.FlowEmbed, exp.Add(skew))
		require.Equal(t, domain.ReasonExpired, res.Reason())
	})
}

func TestValidatorAPIFlowDoesNotConsumeNonce(t *testing.T) {
	ctx := context.Background()
	v := newValidator(t, service.ValidatorConfig{})
	tok := sign(t, secretS, jwtx.NewAPIClaims("acme", "svc", domain.AudienceAPI, []string{"users:read"}, time.Hour, iat))

	for range 3 {
		res := v.Validate(ctx, tok, domain.FlowAPI, iat.Add(time.Minute))
		require.True(t, res.OK())
	}
}

func TestValidatorMultiValuedAudience(t *testing.T) {
	v := newValidator(t, service.ValidatorConfig{})
	tok := rawToken(`{"alg":"HS256","typ":"JWT"}`,
		`{"iss":"acme","sub":"u","aud":["other.example","pixels.persona-ai.ai"],"iat":1704067200,"exp":1704070800,"nonce":"m1"}`, secretS)

	res := v.Validate(context.Background(), tok, domain.FlowEmbed, iat.Add(time.Minute))
	require.True(t, res.OK())
}

func TestValidatorConcurrentReplay(t *testing.T) {
	ctx := context.Background()
	v := newValidator(t, service.ValidatorConfig{})
	tok := embedToken(t, "acme", domain.AudienceEmbed, "race")
	now := time.Unix(1704067500, 0)

	const callers = 32
	results := make(chan domain.ValidationResult, callers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- v.Validate(ctx, tok, domain.FlowEmbed, now)
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	valid, replayed := 0, 0
	for res := range results {
		switch {
		case res.OK():
			valid++
		case res.Reason() == domain.ReasonReplayedNonce:
			replayed++
		}
	}
	require.Equal(t, 1, valid)
	require.Equal(t, callers-1, replayed)
}

type failingRegistry struct{ err error }

func (f failingRegistry) CheckAndConsume(context.Context, string, string, time.Time, time.Time) error {
	return f.err
}
func (f failingRegistry) Prune(context.Context, time.Time) (int, error) { return 0, f.err }
func (f failingRegistry) Ping(context.Context) error { return f.err }

func TestValidatorFailsClosedWhenRegistryDown(t *testing.T) {
	down := failingRegistry{err: errors.Join(nonce.ErrUnavailable, errors.New("connection refused"))}
	v := service.NewTokenValidator(testDirectory(t), down, service.ValidatorConfig{}, nil)

	res := v.Validate(context.Background(), embedToken(t, "acme", domain.AudienceEmbed, "n1"), domain.FlowEmbed, iat.Add(time.Minute))
	require.False(t, res.OK())
	require.Equal(t, domain.ReasonRegistryUnavailable, res.Reason())

	// The API flow never touches the registry.
	api := sign(t, secretS, jwtx.NewAPIClaims("acme", "svc", domain.AudienceAPI, []string{"users:read"}, time.Hour, iat))
	require.True(t, v.Validate(context.Background(), api, domain.FlowAPI, iat.Add(time.Minute)).OK())
}

func TestValidatorCustomAudiences(t *testing.T) {
	dir := partners.NewDirectory()
	require.NoError(t, dir.Replace([]domain.Partner{{
		ID: "acme", Secret: secretS, AllowedAudiences: []string{"pixels.staging"}, Active: true,
	}}))
	v := service.NewTokenValidator(dir, nonce.NewMemory(), service.ValidatorConfig{EmbedAudience: "pixels.staging"}, nil)
	require.Equal(t, "pixels.staging", v.Audience(domain.FlowEmbed))
	require.Equal(t, domain.AudienceAPI, v.Audience(domain.FlowAPI))

	res := v.Validate(context.Background(), embedToken(t, "acme", "pixels.staging", "c1"), domain.FlowEmbed, iat.Add(time.Minute))
	require.True(t, res.OK())
}
