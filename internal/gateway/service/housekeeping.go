package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
)

// HousekeepingService periodically prunes expired nonce records and, when a
// database source is configured, refreshes the partner directory so changes
// made by another instance are picked up.
type HousekeepingService struct {
	Nonces    nonce.Registry
	Directory *partners.Directory
	Source    partners.Source // optional
	Logger    *slog.Logger
	Interval  time.Duration
	Now       func() time.Time

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping worker. If interval is 0 or
// negative, defaults to 1 minute.
func NewHousekeepingService(
	nonces nonce.Registry,
	dir *partners.Directory,
	src partners.Source,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}

	return &HousekeepingService{
		Nonces:    nonces,
		Directory: dir,
		Source:    src,
		Logger:    logger,
		Interval:  interval,
		Now:       time.Now,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and waits for an in-progress run to finish.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single pass. Each step is independent; a failure in
// one does not skip the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	if s.Nonces != nil {
		removed, err := s.Nonces.Prune(ctx, s.Now())
		if err != nil {
			s.Logger.Error("failed to prune nonce registry", "error", err)
		} else {
			s.Logger.Debug("pruned nonce registry", "removed", removed)
		}
	}

	if s.Source != nil && s.Directory != nil {
		if err := s.Directory.Refresh(ctx, s.Source); err != nil {
			s.Logger.Error("failed to refresh partner directory", "error", err)
		} else {
			s.Logger.Debug("refreshed partner directory", "count", s.Directory.Len())
		}
	}
}
