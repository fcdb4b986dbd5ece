package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/persona-ai/partner-gateway/internal/gateway/nonce"
	"github.com/persona-ai/partner-gateway/internal/gateway/partners"
	"github.com/persona-ai/partner-gateway/internal/gateway/store"
	"github.com/persona-ai/partner-gateway/pkg/gatewaysdk"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe; always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, gatewaysdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Ready once the partner directory is loaded and the nonce registry (and database, when used) answer.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	gatewaysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	gatewaysdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	dir *partners.Directory,
	nonces nonce.Registry,
	st store.Store,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &gatewaysdk.HealthChecks{
			Partners: "ok",
			Nonces:   "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		degrade := func(field *string, msg string) {
			*field = "error: " + msg
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if dir == nil || !dir.Ready() {
			degrade(&checks.Partners, "directory not loaded")
		} else {
			checks.Partners = fmt.Sprintf("ok (%d loaded)", dir.Len())
		}

		if nonces == nil {
			degrade(&checks.Nonces, "no registry")
		} else if err := nonces.Ping(r.Context()); err != nil {
			degrade(&checks.Nonces, err.Error())
		}

		if st != nil {
			checks.Database = "ok"
			if err := st.Ping(r.Context()); err != nil {
				degrade(&checks.Database, err.Error())
			}
		}

		httpx.WriteJSON(w, statusCode, gatewaysdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
