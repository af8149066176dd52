// Package context carries request-scoped correlation values used by logging and tracing.
package context

import (
	"context"
	"strings"

	"github.com/smallbiznis/storefront/internal/storecontext"
)

type requestIDKey struct{}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	return ""
}

// StoreIDFromContext returns the active store as a string, or "" when unset.
func StoreIDFromContext(ctx context.Context) string {
	storeID, ok := storecontext.StoreIDFromContext(ctx)
	if !ok {
		return ""
	}
	return storeID.String()
}
