package partners_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
	"github.com/stretchr/testify/require"
)

const partnersYAML = `
partners:
  - id: acme
    name: Acme Corp
    secret: S-acme
    audiences: [pixels.persona-ai.ai, api.persona-ai.ai]
    scopes: [experiences:read, users:read]
  - id: globex
    secret_env: GLOBEX_SECRET
    audiences: [api.persona-ai.ai]
    scopes: [experiences:read]
    active: false
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestFileSourceLoad(t *testing.T) {
	t.Setenv("GLOBEX_SECRET", "S-globex")

	path := filepath.Join(t.TempDir(), "partners.yaml")
	writeFile(t, path, partnersYAML)

	list, err := partners.NewFileSource(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.Equal(t, "acme", list[0].ID)
	require.Equal(t, "Acme Corp", list[0].Name)
	require.Equal(t, []byte("S-acme"), list[0].Secret)
	require.True(t, list[0].Active, "active defaults to true")
	require.Equal(t, []string{"experiences:read", "users:read"}, list[0].ScopeCatalog)

	require.Equal(t, []byte("S-globex"), list[1].Secret)
	require.False(t, list[1].Active)
}

func TestFileSourceLoadErrors(t *testing.T) {
	t.Setenv("GLOBEX_SECRET", "")
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := partners.NewFileSource(filepath.Join(dir, "nope.yaml")).Load(context.Background())
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("bad yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		writeFile(t, path, "partners: [:")
		_, err := partners.NewFileSource(path).Load(context.Background())
		require.Error(t, err)
	})

	t.Run("empty secret env", func(t *testing.T) {
		path := filepath.Join(dir, "env.yaml")
		writeFile(t, path, partnersYAML)
		_, err := partners.NewFileSource(path).Load(context.Background())
		require.ErrorIs(t, err, partners.ErrInvalidPartner)
	})
}

func TestFileSourceWatchReloads(t *testing.T) {
	t.Setenv("GLOBEX_SECRET", "S-globex")

	path := filepath.Join(t.TempDir(), "partners.yaml")
	writeFile(t, path, partnersYAML)

	src := partners.NewFileSource(path)
	dir := partners.NewDirectory()
	require.NoError(t, dir.Refresh(context.Background(), src))
	require.Equal(t, 2, dir.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- src.Watch(ctx, dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	// Give the watcher a moment to register.
	time.Sleep(50 * time.Millisecond)

	// A broken write keeps the old snapshot.
	writeFile(t, path, "partners: [:")
	time.Sleep(300 * time.Millisecond)
	require.Equal(t, 2, dir.Len())

	writeFile(t, path, `
partners:
  - id: acme
    secret: S-acme-rotated
    audiences: [pixels.persona-ai.ai]
`)

	require.Eventually(t, func() bool {
		p, ok := dir.Lookup("acme")
		return ok && string(p.Secret) == "S-acme-rotated" && dir.Len() == 1
	}, 3*time.Second, 20*time.Millisecond)
}
