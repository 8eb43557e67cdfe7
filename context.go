package dcdash

import "context"

type requestIDKey struct{}

// UnknownRequestID is reported when no correlation id travels with a context.
const UnknownRequestID = "unknown"

// WithRequestID returns a new context carrying the request correlation id.
// Sessions and report services tag every log line with this id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID retrieves the correlation id from context.
// Returns UnknownRequestID if none is set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return UnknownRequestID
}
