// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package source turns a requested media URL into a media.Source the engine
// can open.
//
// Resolution is layered: extension sniffing on the requested URL, then the
// process-wide resolved-URL cache, then a network probe that follows
// redirects. Probes for the same URL are shared across every caller in the
// process and run detached from any single requester, so a requester that
// gives up never aborts the probe and its result is still cached.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/Caij/iplayer/internal/cache"
	"github.com/Caij/iplayer/internal/config"
	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/media"
	"github.com/Caij/iplayer/internal/metrics"
	netx "github.com/Caij/iplayer/internal/platform/net"
	"github.com/Caij/iplayer/internal/platform/httpx"
	"github.com/Caij/iplayer/internal/resilience"
	"github.com/Caij/iplayer/internal/telemetry"
)

const (
	defaultProbeTimeout      = 10 * time.Second
	defaultWorkerIdleTimeout = 60 * time.Second
)

// Config tunes a Resolver.
type Config struct {
	ProbeTimeout      time.Duration
	WorkerIdleTimeout time.Duration
	// ProbeRate is probes per second across the resolver; 0 disables limiting.
	ProbeRate        float64
	ProbeBurst       int
	BreakerThreshold int
	BreakerReset     time.Duration
	UserAgent        string
	MaxRedirects     int
	Outbound         netx.OutboundPolicy
}

// ConfigFrom maps the application resolver settings.
func ConfigFrom(rc config.ResolverConfig) Config {
	return Config{
		ProbeTimeout:      rc.ProbeTimeout,
		WorkerIdleTimeout: rc.WorkerIdleTimeout,
		ProbeRate:         rc.ProbeRate,
		ProbeBurst:        rc.ProbeBurst,
		BreakerThreshold:  rc.BreakerThreshold,
		BreakerReset:      rc.BreakerReset,
		UserAgent:         rc.UserAgent,
		MaxRedirects:      rc.MaxRedirects,
		Outbound: netx.OutboundPolicy{
			Enforce: rc.Outbound.Enforce,
			Allow: netx.OutboundAllowlist{
				Hosts:   rc.Outbound.Hosts,
				CIDRs:   rc.Outbound.CIDRs,
				Ports:   rc.Outbound.Ports,
				Schemes: rc.Outbound.Schemes,
			},
		},
	}
}

// Resolver owns the probe machinery shared by every Session created from it.
type Resolver struct {
	store       cache.Store
	prober      Prober
	limiter     *rate.Limiter
	breaker     *resilience.CircuitBreaker
	guard       *netx.Guard
	guardErr    error
	timeout     time.Duration
	idleTimeout time.Duration
	logger      zerolog.Logger
	tracer      trace.Tracer

	group  singleflight.Group
	base   context.Context
	cancel context.CancelFunc
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithStore replaces the process-wide cache.
func WithStore(s cache.Store) Option {
	return func(r *Resolver) { r.store = s }
}

// WithProber replaces the HTTP prober.
func WithProber(p Prober) Option {
	return func(r *Resolver) { r.prober = p }
}

// WithLogger sets the resolver logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver builds a resolver. Without WithStore it uses cache.Shared().
func NewResolver(cfg Config, opts ...Option) *Resolver {
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.WorkerIdleTimeout <= 0 {
		cfg.WorkerIdleTimeout = defaultWorkerIdleTimeout
	}

	base, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		timeout:     cfg.ProbeTimeout,
		idleTimeout: cfg.WorkerIdleTimeout,
		logger:      xglog.WithComponent("source"),
		tracer:      telemetry.Tracer("iplayer.source"),
		breaker:     resilience.NewCircuitBreaker("source_probe", cfg.BreakerThreshold, cfg.BreakerReset),
		base:        base,
		cancel:      cancel,
	}
	if cfg.ProbeRate > 0 {
		burst := cfg.ProbeBurst
		if burst <= 0 {
			burst = 1
		}
		r.limiter = rate.NewLimiter(rate.Limit(cfg.ProbeRate), burst)
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = cache.Shared()
	}
	if r.prober == nil {
		r.prober = NewHTTPProber(httpx.NewProbeClient(cfg.ProbeTimeout, cfg.MaxRedirects), cfg.UserAgent)
	}
	// A malformed allowlist rejects every probe rather than allowing all.
	if r.guard, r.guardErr = netx.NewGuard(cfg.Outbound); r.guardErr != nil {
		r.logger.Error().Err(r.guardErr).Msg("invalid outbound policy, probing disabled")
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Default returns the process-wide resolver backed by cache.Shared(), built
// from the application defaults.
func Default() *Resolver {
	defaultOnce.Do(func() {
		defaultResolver = NewResolver(ConfigFrom(config.Defaults().Resolver))
	})
	return defaultResolver
}

// Store returns the resolved-URL cache.
func (r *Resolver) Store() cache.Store { return r.store }

// BreakerState reports the state of the probe circuit breaker.
func (r *Resolver) BreakerState() resilience.State { return r.breaker.State() }

// Close aborts in-flight probes. Probes started afterwards fail with
// ErrResolverClosed.
func (r *Resolver) Close() { r.cancel() }

// Immediate resolves uri without network I/O: by sniffing uri itself, then
// from the cache. It returns false when a probe is needed.
func (r *Resolver) Immediate(uri string, headers map[string]string) (media.Source, bool) {
	if src, ok := media.Classify(uri, uri, headers); ok {
		metrics.IncSourceResolve(metrics.ResolvePathSniffed)
		return src, true
	}

	final, hit := r.store.Get(uri)
	metrics.IncSourceCacheLookup(hit)
	if !hit || final == "" {
		return media.Source{}, false
	}
	metrics.IncSourceResolve(metrics.ResolvePathCache)
	if src, ok := media.Classify(uri, final, headers); ok {
		return src, true
	}
	return media.Default(uri, final, headers), true
}

// Resolve runs the full pipeline and blocks on the probe when needed. The
// returned source is always usable; a non-nil error explains why it is the
// default progressive source.
func (r *Resolver) Resolve(ctx context.Context, uri string, headers map[string]string) (media.Source, error) {
	if src, ok := r.Immediate(uri, headers); ok {
		return src, nil
	}
	final, err := r.Probe(ctx, uri, headers)
	metrics.IncSourceResolve(metrics.ResolvePathProbe)
	if err != nil {
		return media.Default(uri, "", headers), err
	}
	if src, ok := media.Classify(uri, final, headers); ok {
		return src, nil
	}
	return media.Default(uri, final, headers), nil
}

// Probe returns the final URL for uri. Concurrent calls for the same uri
// share one network probe. The probe runs on the resolver's own context with
// the probe timeout; ctx only bounds how long this caller waits. A
// successful probe is cached even if every caller stopped waiting.
func (r *Resolver) Probe(ctx context.Context, uri string, headers map[string]string) (string, error) {
	ch := r.group.DoChan(uri, func() (any, error) {
		return r.probeAndStore(uri, headers)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Resolver) probeAndStore(uri string, headers map[string]string) (string, error) {
	if r.base.Err() != nil {
		return "", ErrResolverClosed
	}
	ctx, cancel := context.WithTimeout(r.base, r.timeout)
	defer cancel()

	sanitized := netx.SanitizeURL(uri)
	ctx, span := r.tracer.Start(ctx, "source.probe", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.SourceURLKey, sanitized))
	logger := xglog.WithContext(ctx, r.logger)

	start := time.Now()
	final, err := r.probe(ctx, uri, headers)
	elapsed := time.Since(start)
	if err != nil {
		result := probeResult(err)
		metrics.ObserveSourceProbe(result, elapsed)
		span.RecordError(err)
		span.SetAttributes(telemetry.ErrorAttributes(err, result)...)
		span.SetStatus(codes.Error, result)
		logger.Debug().
			Err(err).
			Str(xglog.FieldURL, sanitized).
			Str("result", result).
			Dur("duration", elapsed).
			Msg("redirect probe failed")
		return "", err
	}

	r.store.Set(uri, final)
	metrics.ObserveSourceProbe("ok", elapsed)
	span.SetAttributes(telemetry.ProbeAttributes("", netx.SanitizeURL(final), media.Infer(final).String())...)
	span.SetStatus(codes.Ok, "")
	logger.Debug().
		Str(xglog.FieldURL, sanitized).
		Str(xglog.FieldResolvedURL, netx.SanitizeURL(final)).
		Dur("duration", elapsed).
		Msg("redirect probe resolved")
	return final, nil
}

func (r *Resolver) probe(ctx context.Context, uri string, headers map[string]string) (string, error) {
	if r.guardErr != nil {
		return "", fmt.Errorf("%w: %v", netx.ErrOutboundNotAllowed, r.guardErr)
	}
	if _, err := r.guard.Check(ctx, uri); err != nil {
		return "", err
	}
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	var final string
	err := r.breaker.Execute(func() error {
		var err error
		final, err = r.prober.Probe(ctx, uri, headers)
		return err
	})
	return final, err
}

func probeResult(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, netx.ErrNotProbeable), errors.Is(err, netx.ErrOutboundNotAllowed):
		return "rejected"
	case errors.Is(err, ErrResolverClosed), errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
