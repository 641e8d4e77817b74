// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "errors"

var (
	// ErrUnknownConfigField wraps strict YAML failures caused by keys the
	// file format does not define.
	ErrUnknownConfigField = errors.New("unknown config field")
	// ErrUnsupportedFormat rejects config files without a .yaml/.yml extension.
	ErrUnsupportedFormat = errors.New("unsupported config format")
)
