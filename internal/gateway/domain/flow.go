package domain

import (
	"fmt"

	"github.com/persona-ai/partner-gateway/pkg/jwtx"
)

// Flow selects which validation profile applies to a token.
type Flow int

const (
	// FlowEmbed gates the embeddable avatar session (WebView / iframe).
	FlowEmbed Flow = iota + 1
	// FlowAPI gates the partner REST API.
	FlowAPI
)

// Default audiences per flow.
const (
	AudienceEmbed = "pixels.persona-ai.ai"
	AudienceAPI   = "api.persona-ai.ai"
)

var (
	embedRequired = []string{
		jwtx.ClaimIssuer, jwtx.ClaimSubject, jwtx.ClaimAudience,
		jwtx.ClaimIssuedAt, jwtx.ClaimExpiresAt, jwtx.ClaimNonce,
	}
	apiRequired = []string{
		jwtx.ClaimIssuer, jwtx.ClaimSubject, jwtx.ClaimAudience,
		jwtx.ClaimIssuedAt, jwtx.ClaimExpiresAt, jwtx.ClaimScope,
	}
)

// RequiredClaims returns the claim names a token for this flow must carry.
func (f Flow) RequiredClaims() []string {
	switch f {
	case FlowEmbed:
		return embedRequired
	case FlowAPI:
		return apiRequired
	default:
		return nil
	}
}

// ConsumesNonce reports whether the flow performs replay protection.
func (f Flow) ConsumesNonce() bool { return f == FlowEmbed }

func (f Flow) String() string {
	switch f {
	case FlowEmbed:
		return "embed"
	case FlowAPI:
		return "api"
	default:
		return fmt.Sprintf("flow(%d)", int(f))
	}
}

// ParseFlow maps "embed" / "api" to a Flow.
func ParseFlow(s string) (Flow, error) {
	switch s {
	case "embed":
		return FlowEmbed, nil
	case "api":
		return FlowAPI, nil
	default:
		return 0, fmt.Errorf("unknown flow %q", s)
	}
}
