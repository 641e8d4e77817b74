// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Caij/iplayer/internal/looper"
	"github.com/Caij/iplayer/internal/source"
)

type options struct {
	logger            *zerolog.Logger
	dispatcher        looper.Dispatcher
	resolver          *source.Resolver
	bufferingInterval time.Duration
	id                string
}

// Option configures a Player.
type Option func(*options)

// WithLogger sets the base logger; the player adds its own fields.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithDispatcher sets the owning dispatcher for asynchronous completions.
// Without it the player runs its own Looper and closes it on Release.
func WithDispatcher(d looper.Dispatcher) Option {
	return func(o *options) { o.dispatcher = d }
}

// WithResolver sets the source resolver. Defaults to source.Default().
func WithResolver(r *source.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithBufferingInterval sets the buffering-update period.
func WithBufferingInterval(d time.Duration) Option {
	return func(o *options) { o.bufferingInterval = d }
}

// WithID overrides the generated player ID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}
