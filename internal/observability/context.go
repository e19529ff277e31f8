package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	scanIDKey      contextKey = "scan_id"
	documentURIKey contextKey = "document_uri"
)

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithScan adds the scan correlation ID and document URI to the context.
func WithScan(ctx context.Context, scanID, documentURI string) context.Context {
	ctx = context.WithValue(ctx, scanIDKey, scanID)
	ctx = context.WithValue(ctx, documentURIKey, documentURI)
	return ctx
}

// ScanFromContext retrieves the scan ID and document URI from context.
// Returns empty strings if not present.
func ScanFromContext(ctx context.Context) (scanID, documentURI string) {
	if v := ctx.Value(scanIDKey); v != nil {
		if id, ok := v.(string); ok {
			scanID = id
		}
	}
	if v := ctx.Value(documentURIKey); v != nil {
		if uri, ok := v.(string); ok {
			documentURI = uri
		}
	}
	return scanID, documentURI
}
