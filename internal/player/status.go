// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

// Status is the facade lifecycle, independent of the backend's own state.
type Status int

const (
	StatusIdle Status = iota
	StatusInitialized
	StatusPreparing
	StatusPrepared
	StatusReleased
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusInitialized:
		return "initialized"
	case StatusPreparing:
		return "preparing"
	case StatusPrepared:
		return "prepared"
	case StatusReleased:
		return "released"
	default:
		return "unknown"
	}
}

// running reports whether backend callbacks are meaningful in s.
func (s Status) running() bool {
	return s != StatusIdle && s != StatusReleased
}
