package http

import (
	"net/http"

	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/pkg/gatewaysdk"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

// TokenHandler serves the partner API routes behind RequireAPIToken.
type TokenHandler struct {
	Authorizer service.ScopeAuthorizer
}

// HandleTokenInfo handles GET /v1/token
//
//	@Summary		Describe the calling token
//	@Description	Returns the partner, subject, audience, scopes and lifetime of any valid API token.
//	@Tags			Partner API
//	@Produce		json
//	@Security		PartnerBearer
//	@Success		200	{object}	gatewaysdk.Envelope[gatewaysdk.TokenInfo]
//	@Failure		401	{object}	httpx.ErrorEnvelope	"AUTH_INVALID_TOKEN or AUTH_TOKEN_EXPIRED"
//	@Failure		503	{object}	httpx.ErrorEnvelope	"SERVICE_UNAVAILABLE"
//	@Router			/v1/token [get].
func (h *TokenHandler) HandleTokenInfo(w http.ResponseWriter, r *http.Request) {
	res, ok := resultFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, r, http.StatusUnauthorized, httpx.CodeInvalidToken, "Invalid token", nil)
		return
	}

	c := res.Claims
	httpx.WriteSuccess(w, http.StatusOK, gatewaysdk.TokenInfo{
		PartnerID: res.Partner.ID,
		Subject:   c.Subject,
		Audience:  c.Audience,
		Scopes:    c.Scope,
		IssuedAt:  c.IssuedAtTime().UTC(),
		ExpiresAt: c.ExpiresAtTime().UTC(),
	})
}

// HandleCheckScope handles GET /v1/scopes/{scope}
//
//	@Summary		Check a scope
//	@Description	Succeeds when the token lists the scope exactly and the partner's catalog grants it.
//	@Tags			Partner API
//	@Produce		json
//	@Security		PartnerBearer
//	@Param			scope	path		string	true	"Operation scope, e.g. experiences:read"
//	@Success		200		{object}	gatewaysdk.Envelope[gatewaysdk.ScopeCheck]
//	@Failure		401		{object}	httpx.ErrorEnvelope	"AUTH_INVALID_TOKEN or AUTH_TOKEN_EXPIRED"
//	@Failure		403		{object}	httpx.ErrorEnvelope	"AUTH_INSUFFICIENT_SCOPE"
//	@Router			/v1/scopes/{scope} [get].
func (h *TokenHandler) HandleCheckScope(w http.ResponseWriter, r *http.Request) {
	scope := r.PathValue("scope")
	res, _ := resultFromContext(r.Context())

	if err := h.Authorizer.Authorize(res, scope); err != nil {
		slogx.FromContext(r.Context()).Warn("scope denied", "scope", scope, "error", err)
		writeAuthError(w, r, err, map[string]any{"required_scope": scope})
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, gatewaysdk.ScopeCheck{Scope: scope, Granted: true})
}
