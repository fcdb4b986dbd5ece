package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type (
	loggerKey struct{}
	reqIDKey  struct{}
	attrsKey  struct{}
)

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, or slog.Default outside a request.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// WithRequestID stores reqID and tags the contextual logger with it.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	ctx = context.WithValue(ctx, reqIDKey{}, reqID)
	return WithContext(ctx, FromContext(ctx).With("req_id", reqID))
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(reqIDKey{}).(string)
	return id
}

// accessAttrs collects attributes for the access log line. Handlers deeper
// in the chain cannot hand a new context back up, so they append here.
type accessAttrs struct {
	mu    sync.Mutex
	attrs []any
}

func withAccessAttrs(ctx context.Context) (context.Context, *accessAttrs) {
	a := &accessAttrs{}
	return context.WithValue(ctx, attrsKey{}, a), a
}

// Annotate adds key/value pairs to the access log line of the current
// request. It is a no-op outside HTTPMiddleware.
func Annotate(ctx context.Context, args ...any) {
	a, ok := ctx.Value(attrsKey{}).(*accessAttrs)
	if !ok {
		return
	}
	a.mu.Lock()
	a.attrs = append(a.attrs, args...)
	a.mu.Unlock()
}

func (a *accessAttrs) snapshot() []any {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]any(nil), a.attrs...)
}
