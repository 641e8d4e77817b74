// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package surface

import "errors"

var (
	// ErrReleased is returned by binding calls after Release.
	ErrReleased = errors.New("surface manager released")
)
