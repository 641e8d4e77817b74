// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads iplayer configuration from defaults, a strict YAML
// file and IPLAYER_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/Caij/iplayer/internal/validate"
)

// Validate checks a merged AppConfig and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LogLevel("LogLevel", cfg.LogLevel)
	v.MinDuration("BufferingUpdateInterval", cfg.BufferingUpdateInterval, 10*time.Millisecond)

	r := cfg.Resolver
	v.MinDuration("Resolver.ProbeTimeout", r.ProbeTimeout, 100*time.Millisecond)
	v.MinDuration("Resolver.WorkerIdleTimeout", r.WorkerIdleTimeout, time.Millisecond)
	v.Check(r.ProbeRate >= 0, "Resolver.ProbeRate", r.ProbeRate, "cannot be negative")
	v.Positive("Resolver.ProbeBurst", r.ProbeBurst)
	v.Positive("Resolver.BreakerThreshold", r.BreakerThreshold)
	v.MinDuration("Resolver.BreakerReset", r.BreakerReset, time.Second)
	v.Range("Resolver.MaxRedirects", r.MaxRedirects, 1, 30)
	v.CIDROrIP("Resolver.Outbound.CIDRs", r.Outbound.CIDRs)
	for _, p := range r.Outbound.Ports {
		v.Port("Resolver.Outbound.Ports", p)
	}
	for _, s := range r.Outbound.Schemes {
		v.OneOf("Resolver.Outbound.Schemes", strings.ToLower(s), []string{"http", "https"})
	}
	if r.Outbound.Enforce && len(r.Outbound.Hosts) == 0 && len(r.Outbound.CIDRs) == 0 {
		v.AddError("Resolver.Outbound", "enforce requires at least one host or CIDR", nil)
	}

	v.OneOf("Cache.Backend", cfg.Cache.Backend, []string{CacheBackendMemory, CacheBackendRedis})
	if cfg.Cache.Backend == CacheBackendRedis {
		v.HostPort("Cache.RedisAddr", cfg.Cache.RedisAddr)
		v.Range("Cache.RedisDB", cfg.Cache.RedisDB, 0, 15)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("Telemetry.SamplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	if cfg.Metrics.ListenAddr != "" {
		v.HostPort("Metrics.ListenAddr", cfg.Metrics.ListenAddr)
	}

	return v.Err()
}
