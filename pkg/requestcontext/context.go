// Package requestcontext provides transport-independent accessors for
// request-scoped values. Trace and event identifiers travel through explicit
// context values rather than mutable logger state, so concurrent requests
// never share identity.
package requestcontext

import "context"

type (
	requestIDKey struct{}
	eventIDKey   struct{}
)

// RequestID retrieves the request ID from the context, "" when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// EventID retrieves the inbound event ID from the context, "" when unset.
func EventID(ctx context.Context) string {
	if id, ok := ctx.Value(eventIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithEventID injects the inbound event ID into the context.
func WithEventID(ctx context.Context, eventID string) context.Context {
	return context.WithValue(ctx, eventIDKey{}, eventID)
}
