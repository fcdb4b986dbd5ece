package partners

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
)

// fileConfig is the on-disk shape of the partners file:
//
//	partners:
//	  - id: acme
//	    name: Acme Corp
//	    secret_env: ACME_SECRET        # or: secret: "..."
//	    audiences: [pixels.persona-ai.ai, api.persona-ai.ai]
//	    scopes: [experiences:read, users:read]
//	    active: true                   # default true
type fileConfig struct {
	Partners []filePartner `yaml:"partners"`
}

type filePartner struct {
	ID        string   `yaml:"id"`
	Name      string   `yaml:"name"`
	Secret    string   `yaml:"secret"`
	SecretEnv string   `yaml:"secret_env"`
	Audiences []string `yaml:"audiences"`
	Scopes    []string `yaml:"scopes"`
	Active    *bool    `yaml:"active"`
}

// FileSource reads partners from a YAML file.
type FileSource struct {
	path   string
	getenv func(string) string

	// debounce coalesces bursts of write events from editors.
	debounce time.Duration
}

// NewFileSource creates a source for the YAML file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		path:     path,
		getenv:   os.Getenv,
		debounce: 100 * time.Millisecond,
	}
}

// Path returns the watched file path.
func (s *FileSource) Path() string { return s.path }

// Load implements Source.
func (s *FileSource) Load(_ context.Context) ([]domain.Partner, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read partners file: %w", err)
	}
	return s.parse(data)
}

func (s *FileSource) parse(data []byte) ([]domain.Partner, error) {
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse partners file: %w", err)
	}

	out := make([]domain.Partner, 0, len(cfg.Partners))
	for _, fp := range cfg.Partners {
		secret := fp.Secret
		if fp.SecretEnv != "" {
			secret = s.getenv(fp.SecretEnv)
			if secret == "" {
				return nil, fmt.Errorf("%w: %q: env %s is empty", ErrInvalidPartner, fp.ID, fp.SecretEnv)
			}
		}

		active := true
		if fp.Active != nil {
			active = *fp.Active
		}

		out = append(out, domain.Partner{
			ID:               fp.ID,
			Name:             fp.Name,
			Secret:           []byte(secret),
			AllowedAudiences: fp.Audiences,
			ScopeCatalog:     fp.Scopes,
			Active:           active,
		})
	}
	return out, nil
}

// Watch reloads dir whenever the file changes, until ctx is cancelled.
// A file that fails to parse is logged and ignored; the previous snapshot
// stays in place.
func (s *FileSource) Watch(ctx context.Context, dir *Directory, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() {
		_ = w.Close()
	}()

	// Watch the parent so atomic rename-over saves are seen.
	target, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	var (
		timer   *time.Timer
		reloadC <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(ev.Name)
			if name != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			reloadC = timer.C

		case <-reloadC:
			reloadC = nil
			if err := dir.Refresh(ctx, s); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					logger.Debug("partners file gone, waiting for it to reappear", "path", s.path)
					continue
				}
				logger.Warn("partners reload failed, keeping previous snapshot", "path", s.path, "error", err)
				continue
			}
			logger.Info("partners reloaded", "path", s.path, "count", dir.Len())

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("partners watcher error", "error", err)
		}
	}
}
