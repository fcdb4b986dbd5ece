package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/pkg/gatewaysdk"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

const maxSessionBody = 16 << 10

// SessionHandler is the embed session gate.
type SessionHandler struct {
	SessionService *service.SessionService
}

// ServeHTTP handles POST /v1/embed/sessions
//
//	@Summary		Start an embed session
//	@Description	Validates a partner-signed embed token (aud pixels.persona-ai.ai, single-use nonce).
//	@Description	The token is read from the JSON body, or from the "token" query parameter when the body has none.
//	@Description	A rejected token always yields reason "auth_failed"; the concrete cause is only logged.
//	@Tags			Sessions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		gatewaysdk.StartSessionRequest	false	"Embed token"
//	@Param			token	query		string							false	"Embed token"
//	@Success		200		{object}	gatewaysdk.SessionEvent			"session.started"
//	@Failure		401		{object}	gatewaysdk.SessionEvent			"session.ended"
//	@Failure		429		{object}	httpx.ErrorEnvelope				"RATE_LIMIT_EXCEEDED"
//	@Router			/v1/embed/sessions [post].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body gatewaysdk.StartSessionRequest
	if err := httpx.DecodeJSON(r, maxSessionBody, &body); err != nil && !errors.Is(err, io.EOF) {
		slogx.FromContext(ctx).Debug("session body not usable", "error", err)
	}

	token := body.Token
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	ev, err := h.SessionService.Start(ctx, token)
	if err != nil {
		httpx.WriteJSON(w, http.StatusUnauthorized, ev)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, ev)
}
