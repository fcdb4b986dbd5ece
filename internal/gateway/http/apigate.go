package http

import (
	"context"
	"net/http"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

type resultKey struct{}

func withResult(ctx context.Context, res domain.ValidationResult) context.Context {
	return context.WithValue(ctx, resultKey{}, res)
}

// resultFromContext returns the accepted API token set by RequireAPIToken.
func resultFromContext(ctx context.Context) (domain.ValidationResult, bool) {
	res, ok := ctx.Value(resultKey{}).(domain.ValidationResult)
	return res, ok && res.OK()
}

// RequireAPIToken validates the bearer token for the API flow and puts the
// result on the request context. A missing header is validated as an empty
// token so it is counted and rejected like any other malformed one.
func (r *Router) RequireAPIToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		raw, _ := httpx.BearerToken(req)

		res := r.Validator.Validate(req.Context(), raw, domain.FlowAPI, r.now())
		if !res.OK() {
			slogx.Annotate(req.Context(), "auth_reason", string(res.Reason()))
			writeAuthError(w, req, res.Err, nil)
			return
		}
		slogx.Annotate(req.Context(), "partner_id", res.Partner.ID)

		ctx := withResult(req.Context(), res)
		ctx = httpx.WithPartnerID(ctx, res.Partner.ID)
		ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("partner_id", res.Partner.ID))
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// writeAuthError maps a rejection onto the gateway's error codes. The
// concrete reason is never rendered: malformed, bad signature, unknown
// issuer and the rest all look the same to the caller.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error, details map[string]any) {
	switch domain.ReasonOf(err) {
	case domain.ReasonExpired:
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="token expired"`)
		httpx.WriteError(w, r, http.StatusUnauthorized, httpx.CodeTokenExpired, "Token has expired", nil)
	case domain.ReasonInsufficientScope:
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
		httpx.WriteError(w, r, http.StatusForbidden, httpx.CodeInsufficientScope,
			"Token does not grant the required scope", details)
	case domain.ReasonRegistryUnavailable:
		w.Header().Set("Retry-After", "1")
		httpx.WriteError(w, r, http.StatusServiceUnavailable, httpx.CodeServiceUnavail,
			"Authentication is temporarily unavailable", nil)
	default:
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		httpx.WriteError(w, r, http.StatusUnauthorized, httpx.CodeInvalidToken, "Invalid token", nil)
	}
}
