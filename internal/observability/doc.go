// Package observability provides logging, metrics, and context propagation
// for the reference engine.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for scans, resolutions, and cache behavior
//   - Context helpers for propagating scan identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("scan_id", scanID).Msg("scan started")
//
// Add scan context to a logger:
//
//	logger = observability.WithScanContext(logger, scanID, documentURI)
//
// # Metrics
//
// Initialize and record metrics:
//
//	metrics := observability.NewMetrics("devscholar")
//	metrics.RecordScan(duration.Seconds())
//	metrics.RecordMatches("arxiv", 3)
//
// # Context Helpers
//
// Store and retrieve request context:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	ctx = observability.WithScan(ctx, scanID, documentURI)
//
//	reqID := observability.RequestIDFromContext(ctx)
//	scanID, uri := observability.ScanFromContext(ctx)
//
// # Standard Fields
//
// Common fields used across the engine:
//
//   - request_id: HTTP request identifier
//   - scan_id: Scan correlation identifier
//   - document_uri: Scanned document identifier supplied by the host
//   - scheme: Citation scheme (arxiv, doi, ieee, s2, ...)
//   - key: Canonical reference identity ("scheme:id")
//   - provider: Metadata provider name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
