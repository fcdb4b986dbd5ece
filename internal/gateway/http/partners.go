package http

import (
	"errors"
	"net/http"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
	"github.com/persona-ai/partner-gateway/internal/gateway/service"
	"github.com/persona-ai/partner-gateway/pkg/cryptox"
	"github.com/persona-ai/partner-gateway/pkg/gatewaysdk"
	"github.com/persona-ai/partner-gateway/pkg/httpx"
	"github.com/persona-ai/partner-gateway/pkg/slogx"
)

const maxAdminBody = 64 << 10

// PartnersHandler handles the partner provisioning endpoints.
type PartnersHandler struct {
	PartnerService *service.PartnerService
}

func partnerInfo(p domain.Partner) gatewaysdk.PartnerInfo {
	return gatewaysdk.PartnerInfo{
		ID:                p.ID,
		Name:              p.Name,
		Audiences:         p.AllowedAudiences,
		Scopes:            p.ScopeCatalog,
		Active:            p.Active,
		SecretFingerprint: cryptox.Fingerprint(p.Secret),
		CreatedAt:         p.CreatedAt.UTC(),
		UpdatedAt:         p.UpdatedAt.UTC(),
	}
}

// writePartnerError maps service errors to the envelope.
func writePartnerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPartner):
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, service.ErrPartnerNotFound):
		httpx.WriteError(w, r, http.StatusNotFound, httpx.CodeNotFound, "Partner not found", nil)
	case errors.Is(err, service.ErrPartnerExists):
		httpx.WriteError(w, r, http.StatusConflict, httpx.CodeConflict, "Partner already exists", nil)
	default:
		slogx.FromContext(r.Context()).Error("partner request failed", "error", err)
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal error", nil)
	}
}

// HandleList handles GET /v1/admin/partners
//
//	@Summary	List partners
//	@Tags		Admin
//	@Produce	json
//	@Security	AdminBearer
//	@Success	200	{object}	gatewaysdk.Envelope[gatewaysdk.ListPartnersResponse]
//	@Failure	401	{object}	httpx.ErrorEnvelope
//	@Router		/v1/admin/partners [get].
func (h *PartnersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.PartnerService.ListPartners(r.Context())
	if err != nil {
		writePartnerError(w, r, err)
		return
	}

	out := gatewaysdk.ListPartnersResponse{Partners: make([]gatewaysdk.PartnerInfo, 0, len(list))}
	for _, p := range list {
		out.Partners = append(out.Partners, partnerInfo(p))
	}
	httpx.WriteSuccess(w, http.StatusOK, out)
}

// HandleCreate handles POST /v1/admin/partners
//
//	@Summary		Create a partner
//	@Description	Generates a 256-bit shared secret. The secret is returned once and is stored encrypted.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminBearer
//	@Param			request	body		gatewaysdk.CreatePartnerRequest	true	"Partner"
//	@Success		201		{object}	gatewaysdk.Envelope[gatewaysdk.CreatePartnerResponse]
//	@Failure		400		{object}	httpx.ErrorEnvelope
//	@Failure		409		{object}	httpx.ErrorEnvelope
//	@Router			/v1/admin/partners [post].
func (h *PartnersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req gatewaysdk.CreatePartnerRequest
	if err := httpx.DecodeJSON(r, maxAdminBody, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON in request body", nil)
		return
	}

	p, secret, err := h.PartnerService.CreatePartner(r.Context(), service.PartnerInput{
		ID:        req.ID,
		Name:      req.Name,
		Audiences: req.Audiences,
		Scopes:    req.Scopes,
	})
	if err != nil {
		writePartnerError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, gatewaysdk.CreatePartnerResponse{
		Partner: partnerInfo(p),
		Secret:  secret,
	})
}

// HandleGet handles GET /v1/admin/partners/{id}
//
//	@Summary	Get a partner
//	@Tags		Admin
//	@Produce	json
//	@Security	AdminBearer
//	@Param		id	path		string	true	"Partner ID"
//	@Success	200	{object}	gatewaysdk.Envelope[gatewaysdk.PartnerInfo]
//	@Failure	404	{object}	httpx.ErrorEnvelope
//	@Router		/v1/admin/partners/{id} [get].
func (h *PartnersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.PartnerService.GetPartner(r.Context(), r.PathValue("id"))
	if err != nil {
		writePartnerError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, partnerInfo(p))
}

// HandleUpdateAccess handles PUT /v1/admin/partners/{id}/access
//
//	@Summary		Replace audiences and scopes
//	@Description	Applies to the next validation; tokens already accepted are unaffected.
//	@Tags			Admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminBearer
//	@Param			id		path		string									true	"Partner ID"
//	@Param			request	body		gatewaysdk.UpdatePartnerAccessRequest	true	"Access"
//	@Success		200		{object}	gatewaysdk.Envelope[gatewaysdk.PartnerInfo]
//	@Failure		404		{object}	httpx.ErrorEnvelope
//	@Router			/v1/admin/partners/{id}/access [put].
func (h *PartnersHandler) HandleUpdateAccess(w http.ResponseWriter, r *http.Request) {
	var req gatewaysdk.UpdatePartnerAccessRequest
	if err := httpx.DecodeJSON(r, maxAdminBody, &req); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeInvalidRequest, "Invalid JSON in request body", nil)
		return
	}

	p, err := h.PartnerService.UpdateAccess(r.Context(), r.PathValue("id"), req.Audiences, req.Scopes)
	if err != nil {
		writePartnerError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, partnerInfo(p))
}

// HandleRotateSecret handles POST /v1/admin/partners/{id}/rotate-secret
//
//	@Summary		Rotate a partner secret
//	@Description	Tokens signed with the previous secret stop validating immediately.
//	@Tags			Admin
//	@Produce		json
//	@Security		AdminBearer
//	@Param			id	path		string	true	"Partner ID"
//	@Success		200	{object}	gatewaysdk.Envelope[gatewaysdk.RotateSecretResponse]
//	@Failure		404	{object}	httpx.ErrorEnvelope
//	@Router			/v1/admin/partners/{id}/rotate-secret [post].
func (h *PartnersHandler) HandleRotateSecret(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	secret, err := h.PartnerService.RotateSecret(r.Context(), id)
	if err != nil {
		writePartnerError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, gatewaysdk.RotateSecretResponse{
		PartnerID:         id,
		Secret:            secret,
		SecretFingerprint: cryptox.Fingerprint([]byte(secret)),
	})
}

// HandleActivate handles POST /v1/admin/partners/{id}/activate
//
//	@Summary	Activate a partner
//	@Tags		Admin
//	@Produce	json
//	@Security	AdminBearer
//	@Param		id	path		string	true	"Partner ID"
//	@Success	200	{object}	gatewaysdk.Envelope[gatewaysdk.PartnerInfo]
//	@Failure	404	{object}	httpx.ErrorEnvelope
//	@Router		/v1/admin/partners/{id}/activate [post].
func (h *PartnersHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

// HandleDeactivate handles POST /v1/admin/partners/{id}/deactivate
//
//	@Summary		Deactivate a partner
//	@Description	Future validations for the partner fail with bad_issuer. Started sessions are not torn down.
//	@Tags			Admin
//	@Produce		json
//	@Security		AdminBearer
//	@Param			id	path		string	true	"Partner ID"
//	@Success		200	{object}	gatewaysdk.Envelope[gatewaysdk.PartnerInfo]
//	@Failure		404	{object}	httpx.ErrorEnvelope
//	@Router			/v1/admin/partners/{id}/deactivate [post].
func (h *PartnersHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

func (h *PartnersHandler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	id := r.PathValue("id")
	if err := h.PartnerService.SetActive(r.Context(), id, active); err != nil {
		writePartnerError(w, r, err)
		return
	}

	p, err := h.PartnerService.GetPartner(r.Context(), id)
	if err != nil {
		writePartnerError(w, r, err)
		return
	}
	httpx.WriteSuccess(w, http.StatusOK, partnerInfo(p))
}
