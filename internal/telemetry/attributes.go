// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the player.
const (
	// Source resolution attributes
	SourceURLKey         = "source.url"
	SourceResolvedURLKey = "source.resolved_url"
	SourceContentTypeKey = "source.content_type"
	SourcePathKey        = "source.resolve_path"
	SourceSharedKey      = "source.probe_shared"

	// Player attributes
	PlayerIDKey     = "player.id"
	PlayerStatusKey = "player.status"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// ProbeAttributes creates redirect-probe span attributes. Empty values are
// omitted.
func ProbeAttributes(url, resolvedURL, contentType string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 3)
	if url != "" {
		attrs = append(attrs, attribute.String(SourceURLKey, url))
	}
	if resolvedURL != "" {
		attrs = append(attrs, attribute.String(SourceResolvedURLKey, resolvedURL))
	}
	if contentType != "" {
		attrs = append(attrs, attribute.String(SourceContentTypeKey, contentType))
	}
	return attrs
}

// PlayerAttributes creates façade span attributes.
func PlayerAttributes(playerID, status string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(PlayerIDKey, playerID),
		attribute.String(PlayerStatusKey, status),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
