package service

import (
	"errors"
	"fmt"

	"github.com/persona-ai/partner-gateway/internal/gateway/domain"
)

var ErrInsufficientScope = errors.New("insufficient scope")

// ScopeAuthorizer checks an accepted API token against one operation. It
// holds no state.
type ScopeAuthorizer struct{}

// Authorize returns nil when the token's scope list contains operation
// exactly AND the partner's catalog grants it. The catalog check stops a
// partner whose signing side is compromised from minting over-broad tokens.
// An invalid result is returned as its own error.
func (ScopeAuthorizer) Authorize(res domain.ValidationResult, operation string) error {
	if !res.OK() {
		if res.Err != nil {
			return res.Err
		}
		return domain.Reject(domain.ReasonMalformed, errors.New("empty validation result"))
	}

	if res.Flow != domain.FlowAPI {
		return domain.Reject(domain.ReasonInsufficientScope,
			fmt.Errorf("%w: %s token cannot call %q", ErrInsufficientScope, res.Flow, operation))
	}
	if !res.Claims.Scope.Contains(operation) {
		return domain.Reject(domain.ReasonInsufficientScope,
			fmt.Errorf("%w: token scope lacks %q", ErrInsufficientScope, operation))
	}
	if !res.Partner.GrantsScope(operation) {
		return domain.Reject(domain.ReasonInsufficientScope,
			fmt.Errorf("%w: partner %q not granted %q", ErrInsufficientScope, res.Partner.ID, operation))
	}
	return nil
}
