package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/pkg/jwtx"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMintEmbedToken(t *testing.T) {
	now := time.Unix(1704067200, 0)
	raw, err := mintToken(mintOptions{
		flow:    "embed",
		issuer:  "acme",
		subject: "user-42",
		secret:  "S-acme",
		meta:    []string{"plan=pro", `limits={"daily":3}`},
		ttl:     5 * time.Minute,
	}, now)
	require.NoError(t, err)

	tok, err := jwtx.Decode(raw)
	require.NoError(t, err)
	require.NoError(t, jwtx.VerifyToken(tok, []byte("S-acme")))

	c := tok.Claims
	require.Equal(t, "acme", c.Issuer)
	require.True(t, c.HasAudience(domain.AudienceEmbed))
	require.Equal(t, now.Add(5*time.Minute).Unix(), c.ExpiresAtTime().Unix())
	_, err = uuid.Parse(c.Nonce)
	require.NoError(t, err)

	require.Equal(t, []string{"plan", "limits"}, c.Meta.Keys())
	limits, ok := c.Meta.Get("limits")
	require.True(t, ok)
	require.JSONEq(t, `{"daily":3}`, string(limits))
}

func TestMintAPIToken(t *testing.T) {
	raw, err := mintToken(mintOptions{
		flow:    "api",
		issuer:  "acme",
		subject: "svc",
		secret:  "S-acme",
		scopes:  []string{"experiences:read", "users:read"},
		ttl:     time.Minute,
	}, time.Now())
	require.NoError(t, err)

	tok, err := jwtx.Decode(raw)
	require.NoError(t, err)
	require.True(t, tok.Claims.HasAudience(domain.AudienceAPI))
	require.True(t, tok.Claims.Scope.Contains("users:read"))
	require.Empty(t, tok.Claims.Nonce)
}

func TestMintRejectsBadInput(t *testing.T) {
	t.Setenv(SecretEnv, "")
	base := mintOptions{flow: "embed", issuer: "acme", subject: "u", secret: "s", ttl: time.Minute}

	noSecret := base
	noSecret.secret = ""
	_, err := mintToken(noSecret, time.Now())
	require.Error(t, err)

	badFlow := base
	badFlow.flow = "webhook"
	_, err = mintToken(badFlow, time.Now())
	require.Error(t, err)

	badMeta := base
	badMeta.meta = []string{"novalue"}
	_, err = mintToken(badMeta, time.Now())
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	t.Setenv(SecretEnv, "S-acme")

	raw, err := run(t, "token", "mint", "--iss", "acme", "--sub", "user-1", "--nonce", "n-1")
	require.NoError(t, err)
	raw = strings.TrimSpace(raw)

	out, err := run(t, "token", "inspect", raw, "--secret", "S-acme")
	require.NoError(t, err)

	var got struct {
		Header    map[string]string `json:"header"`
		Claims    map[string]any    `json:"claims"`
		Signature string            `json:"signature"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "HS256", got.Header["alg"])
	require.Equal(t, "n-1", got.Claims["nonce"])
	require.Equal(t, "valid", got.Signature)

	out, err = run(t, "token", "inspect", raw, "--secret", "wrong")
	require.NoError(t, err)
	require.Contains(t, out, `"signature": "invalid`)

	_, err = run(t, "token", "inspect", "not.a.jwt")
	require.Error(t, err)
}

func TestSecretGenerate(t *testing.T) {
	out, err := run(t, "secret", "generate")
	require.NoError(t, err)
	require.Regexp(t, `(?m)^secret:\s+[A-Za-z0-9_-]{43}$`, out)
	require.Regexp(t, `(?m)^fingerprint:\s+\S{12}$`, out)
}
