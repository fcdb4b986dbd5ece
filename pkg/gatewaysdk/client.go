package gatewaysdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the gateway's partner-facing routes.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// StartSession exchanges an embed token for a session. A rejected token
// returns the session.ended event together with ErrSessionEnded.
func (c *Client) StartSession(ctx context.Context, token string) (*SessionEvent, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/embed/sessions", "", StartSessionRequest{Token: token})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusUnauthorized:
		var ev SessionEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return nil, fmt.Errorf("failed to decode session event: %w", err)
		}
		if resp.StatusCode == http.StatusUnauthorized {
			return &ev, ErrSessionEnded
		}
		return &ev, nil
	default:
		return nil, parseErrorResponse(resp, body)
	}
}

// TokenInfo returns what the gateway sees in an API token.
func (c *Client) TokenInfo(ctx context.Context, token string) (*TokenInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/token", token, nil)
	if err != nil {
		return nil, err
	}
	info, err := decodeEnvelope[TokenInfo](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// CheckScope asks whether token grants scope. A denial is an *APIError with
// code AUTH_INSUFFICIENT_SCOPE.
func (c *Client) CheckScope(ctx context.Context, token, scope string) (*ScopeCheck, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/scopes/"+url.PathEscape(scope), token, nil)
	if err != nil {
		return nil, err
	}
	check, err := decodeEnvelope[ScopeCheck](resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &check, nil
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready. A degraded service returns
// the health body along with an *APIError.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, &APIError{
			StatusCode: resp.StatusCode,
			Code:       "SERVICE_UNAVAILABLE",
			Message:    health.Status,
		}
	}
	return &health, nil
}
