package gatewaysdk

import (
	"context"
	"net/http"
	"net/url"
)

// AdminClient calls the partner provisioning routes with the operator token.
type AdminClient struct {
	client *Client
	token  string
}

func (c *Client) Admin(token string) *AdminClient {
	return &AdminClient{client: c, token: token}
}

func partnerPath(id string, suffix string) string {
	return "/v1/admin/partners/" + url.PathEscape(id) + suffix
}

func (a *AdminClient) ListPartners(ctx context.Context) ([]PartnerInfo, error) {
	resp, err := a.client.doRequest(ctx, http.MethodGet, "/v1/admin/partners", a.token, nil)
	if err != nil {
		return nil, err
	}
	list, err := decodeEnvelope[ListPartnersResponse](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return list.Partners, nil
}

// CreatePartner provisions a partner. The returned secret is not retrievable
// later.
func (a *AdminClient) CreatePartner(ctx context.Context, req CreatePartnerRequest) (*CreatePartnerResponse, error) {
	resp, err := a.client.doRequest(ctx, http.MethodPost, "/v1/admin/partners", a.token, req)
	if err != nil {
		return nil, err
	}
	out, err := decodeEnvelope[CreatePartnerResponse](resp, http.StatusCreated)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) GetPartner(ctx context.Context, id string) (*PartnerInfo, error) {
	resp, err := a.client.doRequest(ctx, http.MethodGet, partnerPath(id, ""), a.token, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodeEnvelope[PartnerInfo](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *AdminClient) UpdatePartnerAccess(ctx context.Context, id string, req UpdatePartnerAccessRequest) (*PartnerInfo, error) {
	resp, err := a.client.doRequest(ctx, http.MethodPut, partnerPath(id, "/access"), a.token, req)
	if err != nil {
		return nil, err
	}
	p, err := decodeEnvelope[PartnerInfo](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *AdminClient) RotatePartnerSecret(ctx context.Context, id string) (*RotateSecretResponse, error) {
	resp, err := a.client.doRequest(ctx, http.MethodPost, partnerPath(id, "/rotate-secret"), a.token, nil)
	if err != nil {
		return nil, err
	}
	out, err := decodeEnvelope[RotateSecretResponse](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AdminClient) ActivatePartner(ctx context.Context, id string) (*PartnerInfo, error) {
	return a.setActive(ctx, id, "/activate")
}

// DeactivatePartner stops the partner's tokens from validating. Sessions
// already started are unaffected.
func (a *AdminClient) DeactivatePartner(ctx context.Context, id string) (*PartnerInfo, error) {
	return a.setActive(ctx, id, "/deactivate")
}

func (a *AdminClient) setActive(ctx context.Context, id, suffix string) (*PartnerInfo, error) {
	resp, err := a.client.doRequest(ctx, http.MethodPost, partnerPath(id, suffix), a.token, nil)
	if err != nil {
		return nil, err
	}
	p, err := decodeEnvelope[PartnerInfo](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
