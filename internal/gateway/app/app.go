package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/persona-ai/partner-gateway/internal/gateway/http"
	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/internal/gateway/store"
	"github.com/persona-ai/partner-gateway/internal/gateway/store/drivers/sqlite"
	"github.com/persona-ai/partner-gateway/pkg/cryptox"
	"github.com/persona-ai/partner-gateway/pkg/metricsx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

const (
	// BuildVersion is overridden at build time via -ldflags "-X".
	BuildVersion = "v0.1.0"

	metricsNamespace = "gateway"
)

// Application encapsulates the gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store // nil with the file partner source
	directory  *partners.Directory
	fileSource *partners.FileSource // nil with the database partner source
	dbSource   partners.Source
	nonces     nonce.Registry
	metrics    *metricsx.Provider // nil when metrics are disabled
	business   metricsx.BusinessMetrics

	// Services
	validator           *service.TokenValidator
	sessionService      *service.SessionService
	partnerService      *service.PartnerService // Optional: only with the database source
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router

	running     bool
	watchCancel context.CancelFunc
	watchDone   chan struct{}
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "partner-gateway",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		directory: partners.NewDirectory(),
	}

	if err := app.initMetrics(); err != nil {
		return nil, err
	}
	if err := app.initPartners(); err != nil {
		app.closeStores()
		return nil, err
	}
	if err := app.initNonces(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()
	if err := app.initHTTP(); err != nil {
		app.closeStores()
		return nil, err
	}

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.startBackground()

	app.logger.Info("partner gateway starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"partner_source", app.cfg.PartnerSource,
		"nonce_backend", app.cfg.NonceBackend,
		"partners", app.directory.Len(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.Shutdown()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down partner gateway...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopBackground()

	if app.metrics != nil {
		if err := app.metrics.Shutdown(ctx); err != nil {
			app.logger.Error("error shutting down metrics", "error", err)
		}
	}

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("partner gateway stopped")
	return nil
}

// startBackground launches housekeeping and, for the file source, the
// partners file watcher.
func (app *Application) startBackground() {
	if app.running {
		return
	}
	app.running = true

	app.housekeepingService.Start()

	if app.fileSource != nil {
		ctx, cancel := context.WithCancel(context.Background())
		app.watchCancel = cancel
		app.watchDone = make(chan struct{})
		go func() {
			defer close(app.watchDone)
			if err := app.fileSource.Watch(ctx, app.directory, app.logger); err != nil {
				app.logger.Error("partners file watcher stopped", "error", err)
			}
		}()
	}
}

func (app *Application) stopBackground() {
	if !app.running {
		return
	}
	app.running = false

	if app.watchCancel != nil {
		app.watchCancel()
		<-app.watchDone
	}
	app.housekeepingService.Stop()
}

func (app *Application) closeStores() error {
	var errs []error
	if c, ok := app.nonces.(io.Closer); ok {
		if err := c.Close(); err != nil {
			app.logger.Error("error closing nonce registry", "error", err)
			errs = append(errs, err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (app *Application) initMetrics() error {
	app.business = metricsx.NoOp{}
	if !app.cfg.MetricsEnabled {
		return nil
	}

	provider, err := metricsx.NewProvider()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	business, err := metricsx.NewBusinessMetrics(provider.MeterProvider(), metricsNamespace)
	if err != nil {
		return fmt.Errorf("failed to initialize business metrics: %w", err)
	}

	app.metrics = provider
	app.business = business
	return nil
}

// initPartners loads the first directory snapshot. Startup fails if it
// cannot be loaded.
func (app *Application) initPartners() error {
	ctx := context.Background()

	switch app.cfg.PartnerSource {
	case PartnerSourceDatabase:
		if err := app.initDatabase(); err != nil {
			return err
		}
		app.dbSource = store.NewPartnerSource(app.db)
		if err := app.directory.Refresh(ctx, app.dbSource); err != nil {
			return fmt.Errorf("failed to load partners from database: %w", err)
		}

	default:
		app.fileSource = partners.NewFileSource(app.cfg.PartnersFile)
		if err := app.directory.Refresh(ctx, app.fileSource); err != nil {
			return fmt.Errorf("failed to load partners file %s: %w", app.cfg.PartnersFile, err)
		}
	}

	app.logger.Info("partner directory loaded",
		"source", app.cfg.PartnerSource,
		"count", app.directory.Len(),
		"partners", app.directory.IDs(),
	)
	return nil
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	box, err := cryptox.LoadSecretBox(app.cfg.MasterKeyPath)
	if err != nil {
		return fmt.Errorf("failed to load master key: %w", err)
	}
	if box.Ephemeral {
		app.logger.Warn("no master key configured; using an ephemeral key, stored partner secrets will not survive a restart",
			"env", cryptox.MasterKeyEnv)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn, box)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initNonces() error {
	switch app.cfg.NonceBackend {
	case NonceBackendRedis:
		r, err := nonce.NewRedisFromURL(app.cfg.RedisURL, app.cfg.NonceKeyPrefix)
		if err != nil {
			return fmt.Errorf("failed to initialize redis nonce registry: %w", err)
		}
		app.nonces = r

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			// Not fatal: validations fail closed and /readyz reports it.
			app.logger.Warn("redis nonce registry not reachable yet", "error", err)
		}

	default:
		app.nonces = nonce.NewMemory()
		app.logger.Info("using in-memory nonce registry; replay protection is per instance")
	}
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.validator = service.NewTokenValidator(
		app.directory,
		app.nonces,
		service.ValidatorConfig{
			ClockSkew:     app.cfg.ClockSkew,
			MaxTokenAge:   app.cfg.MaxTokenAge,
			EmbedAudience: app.cfg.EmbedAudience,
			APIAudience:   app.cfg.APIAudience,
		},
		app.business,
	)

	app.sessionService = &service.SessionService{
		Validator: app.validator,
		Metrics:   app.business,
	}

	if app.db != nil {
		app.partnerService = &service.PartnerService{
			Store:     app.db,
			Directory: app.directory,
			Metrics:   app.business,
		}
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.nonces,
		app.directory,
		app.dbSource, // nil for the file source; the watcher handles it
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	router := httpapi.NewRouter(BuildVersion, app.logger)

	router.Validator = app.validator
	router.SessionService = app.sessionService
	router.PartnerService = app.partnerService // nil with the file source
	router.Directory = app.directory
	router.Nonces = app.nonces
	router.Store = app.db
	router.AdminToken = app.cfg.AdminToken

	if app.metrics != nil {
		mw, err := metricsx.HTTPMiddleware(app.metrics.MeterProvider(), metricsNamespace)
		if err != nil {
			return fmt.Errorf("failed to initialize http metrics: %w", err)
		}
		router.Use(mw)
		router.Metrics = app.metrics.Handler()
	}

	if app.partnerService != nil && app.cfg.AdminToken == "" {
		app.logger.Warn("ADMIN_TOKEN not set; admin routes will answer 404")
	}

	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
