package httpx

import (
	"net/http"

	"github.com/persona-ai/partner-gateway/pkg/cryptox"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

// RequireAdminToken guards operator routes with a static bearer token. An
// empty token disables the routes entirely.
func RequireAdminToken(token string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				WriteError(w, r, http.StatusNotFound, CodeNotFound, "admin api disabled", nil)
				return
			}

			got, ok := BearerToken(r)
			if !ok || !cryptox.Equal(got, token) {
				slogx.FromContext(r.Context()).Warn("admin token rejected")
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "invalid admin token", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
