// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldPlayerID  = "player_id"
	FieldTraceID   = "trace_id"
	FieldSpanID    = "span_id"
	FieldComponent = "component"
	FieldEvent     = "event"

	// State fields
	FieldStatus   = "status"
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldHistory  = "history"

	// Source fields
	FieldURL         = "url"
	FieldResolvedURL = "resolved_url"
	FieldContentType = "content_type"
	FieldResolvePath = "resolve_path"

	// Surface fields
	FieldSurface = "surface"
	FieldOwned   = "owned"
	FieldOrigin  = "origin"

	// Error fields
	FieldErrorKind  = "error_kind"
	FieldErrorExtra = "error_extra"
)
