// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import "errors"

var (
	// ErrIllegalState is returned for a command that is invalid in the
	// current status, e.g. setting a source twice without Reset.
	ErrIllegalState = errors.New("illegal player state")
	// ErrReleased is returned for every command after Release.
	ErrReleased = errors.New("player released")
)
