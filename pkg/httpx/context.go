package httpx

import "context"

type ctxKey string

const ctxKeyPartnerID ctxKey = "partner_id"

// WithPartnerID records the authenticated partner on the request context so
// rate limiting and logging can key on it.
func WithPartnerID(ctx context.Context, partnerID string) context.Context {
	return context.WithValue(ctx, ctxKeyPartnerID, partnerID)
}

func PartnerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyPartnerID).(string)
	return id
}
