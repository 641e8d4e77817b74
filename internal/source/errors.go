// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import "errors"

var (
	// ErrRateLimited indicates the probe budget was exhausted before the
	// probe could start.
	ErrRateLimited = errors.New("probe rate limited")
	// ErrSessionClosed is returned by Session.Resolve after Close.
	ErrSessionClosed = errors.New("resolve session closed")
	// ErrResolverClosed indicates the resolver was shut down.
	ErrResolverClosed = errors.New("resolver closed")
)
