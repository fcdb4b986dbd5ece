package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/internal/gateway/store"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"

	_ "github.com/persona-ai/partner-gateway/api/gateway" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits holds the per-route-group limits. NewRouter fills it from the
// httpx profiles.
type RateLimits struct {
	Session httpx.RateLimitConfig
	API     httpx.RateLimitConfig
	Admin   httpx.RateLimitConfig
	Public  httpx.RateLimitConfig
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware
	handler     http.Handler

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Validator      *service.TokenValidator
	Authorizer     service.ScopeAuthorizer
	SessionService *service.SessionService
	PartnerService *service.PartnerService // Optional: only with the database partner source
	Directory      *partners.Directory
	Nonces         nonce.Registry
	Store          store.Store  // Optional: only with the database partner source
	Metrics        http.Handler // Optional: Prometheus exposition
	AdminToken     string
	Limits         RateLimits

	// Now is the validation clock; defaults to time.Now.
	Now func() time.Time
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Limits: RateLimits{
			Session: httpx.SessionLimit,
			API:     httpx.APILimit,
			Admin:   httpx.AdminLimit,
			Public:  httpx.PublicLimit,
		},
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// Use appends middleware inside the default chain. Middleware that reads
// r.Pattern must be added last so it wraps the mux directly.
func (r *Router) Use(mws ...httpx.Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *Router) ApplyRoutes() {
	r.registerSessions()
	r.registerPartnerAPI()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	r.handler = httpx.Chain(r.Mux, r.middlewares...)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Persona Partner Gateway API
//	@version		1.0.0
//	@description	Authentication boundary for partner integrations. Partners sign HS256 JWTs with
//	@description	their shared secret: embed tokens start avatar sessions, API tokens call the partner API.
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	PartnerBearer
//	@in							header
//	@name						Authorization
//	@description				Partner-signed HS256 JWT with aud "api.persona-ai.ai". Format: "Bearer {token}".
//
//	@securityDefinitions.apikey	AdminBearer
//	@in							header
//	@name						Authorization
//	@description				Operator token (ADMIN_TOKEN). Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if r.handler == nil {
		httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
		return
	}
	r.handler.ServeHTTP(w, req)
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Router) registerSessions() {
	h := &SessionHandler{SessionService: r.SessionService}

	// POST /v1/embed/sessions - limited per client IP, the embedding browser
	r.Mux.Handle("POST /v1/embed/sessions",
		httpx.Chain(h,
			httpx.RateLimitByIP(r.Limits.Session),
		),
	)
}

func (r *Router) registerPartnerAPI() {
	h := &TokenHandler{Authorizer: r.Authorizer}

	// The gate runs first so the limiter can key on the partner.
	secured := func(next http.Handler) http.Handler {
		return httpx.Chain(next,
			r.RequireAPIToken,
			httpx.RateLimitByPartner(r.Limits.API),
		)
	}

	r.Mux.Handle("GET /v1/token", secured(http.HandlerFunc(h.HandleTokenInfo)))
	r.Mux.Handle("GET /v1/scopes/{scope}", secured(http.HandlerFunc(h.HandleCheckScope)))
}

func (r *Router) registerAdmin() {
	if r.PartnerService == nil {
		return
	}
	h := &PartnersHandler{PartnerService: r.PartnerService}

	admin := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			httpx.RateLimitByIP(r.Limits.Admin),
			httpx.RequireAdminToken(r.AdminToken),
		)
	}

	r.Mux.Handle("GET /v1/admin/partners", admin(h.HandleList))
	r.Mux.Handle("POST /v1/admin/partners", admin(h.HandleCreate))
	r.Mux.Handle("GET /v1/admin/partners/{id}", admin(h.HandleGet))
	r.Mux.Handle("PUT /v1/admin/partners/{id}/access", admin(h.HandleUpdateAccess))
	r.Mux.Handle("POST /v1/admin/partners/{id}/rotate-secret", admin(h.HandleRotateSecret))
	r.Mux.Handle("POST /v1/admin/partners/{id}/activate", admin(h.HandleActivate))
	r.Mux.Handle("POST /v1/admin/partners/{id}/deactivate", admin(h.HandleDeactivate))
}

func (r *Router) registerSystem() {
	// Health check endpoints - public limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.Directory, r.Nonces, r.Store),
			httpx.RateLimitByIP(r.Limits.Public),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
