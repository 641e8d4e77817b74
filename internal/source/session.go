// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package source

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/looper"
	"github.com/Caij/iplayer/internal/media"
	netx "github.com/Caij/iplayer/internal/platform/net"
)

// Session resolves sources for one player. At most one resolution is
// outstanding; starting another cancels it. Completions are delivered on the
// session's dispatcher.
type Session struct {
	resolver   *Resolver
	dispatcher looper.Dispatcher
	exec       *executor
	logger     zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	closed bool
}

// NewSession creates a session delivering completions on d.
func (r *Resolver) NewSession(d looper.Dispatcher, logger zerolog.Logger) *Session {
	return &Session{
		resolver:   r,
		dispatcher: d,
		exec:       newExecutor(r.idleTimeout),
		logger:     logger,
	}
}

// Resolve cancels any outstanding resolution and starts a new one for uri.
// When no network I/O is needed the source is returned immediately with
// true and done is not called. Otherwise Resolve returns false and done
// later receives the source on the dispatcher, unless the resolution was
// cancelled or the session closed first. Probe failures are logged and
// yield the default progressive source.
func (s *Session) Resolve(uri string, headers map[string]string, done func(media.Source)) (media.Source, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return media.Source{}, false, ErrSessionClosed
	}
	s.cancelLocked()

	if src, ok := s.resolver.Immediate(uri, headers); ok {
		s.logResolved(src, "immediate")
		return src, true, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.exec.submit(func() { s.run(ctx, uri, headers, done) })
	return media.Source{}, false, nil
}

// run executes on the worker goroutine.
func (s *Session) run(ctx context.Context, uri string, headers map[string]string, done func(media.Source)) {
	if ctx.Err() != nil {
		return
	}
	src, err := s.resolver.Resolve(ctx, uri, headers)
	if ctx.Err() != nil {
		s.logger.Debug().Str(xglog.FieldURL, netx.SanitizeURL(uri)).Msg("resolution cancelled")
		return
	}
	if err != nil {
		s.logger.Warn().Err(err).Str(xglog.FieldURL, netx.SanitizeURL(uri)).Msg("probe failed, using default source")
	}

	posted := s.dispatcher.Post(func() {
		if ctx.Err() != nil {
			return
		}
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		s.logResolved(src, "probe")
		done(src)
	})
	if !posted {
		s.logger.Debug().Msg("dispatcher rejected resolution result")
	}
}

// Cancel abandons the outstanding resolution. A probe already on the wire
// keeps running and still populates the cache.
func (s *Session) Cancel() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
}

// Close cancels any outstanding resolution and stops the worker. Close is
// idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancelLocked()
	s.mu.Unlock()
	s.exec.shutdown()
}

func (s *Session) cancelLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) logResolved(src media.Source, path string) {
	s.logger.Debug().
		Str(xglog.FieldURL, netx.SanitizeURL(src.URI)).
		Str(xglog.FieldResolvedURL, netx.SanitizeURL(src.ResolvedURI)).
		Str(xglog.FieldContentType, src.Type.String()).
		Str(xglog.FieldResolvePath, path).
		Bool("fallback", src.Fallback).
		Msg("source resolved")
}
