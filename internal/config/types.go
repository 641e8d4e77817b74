// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the effective configuration after defaults, file and
// environment have been merged.
type AppConfig struct {
	Version    string
	LogLevel   string
	LogService string

	// BufferingUpdateInterval is the period of buffering-update ticks.
	BufferingUpdateInterval time.Duration

	Resolver  ResolverConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
	Metrics   MetricsConfig
}

// ResolverConfig tunes the redirect probe.
type ResolverConfig struct {
	ProbeTimeout      time.Duration
	WorkerIdleTimeout time.Duration
	ProbeRate         float64 // probes per second across the process; 0 disables limiting
	ProbeBurst        int
	BreakerThreshold  int
	BreakerReset      time.Duration
	UserAgent         string
	MaxRedirects      int
	Outbound          OutboundConfig
}

// OutboundConfig restricts which hosts may be probed.
type OutboundConfig struct {
	Enforce bool
	Hosts   []string
	CIDRs   []string
	Ports   []int
	Schemes []string
}

// CacheConfig selects the resolved-URL cache backend.
type CacheConfig struct {
	Backend       string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisKey      string
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// MetricsConfig configures the Prometheus endpoint of the CLI.
type MetricsConfig struct {
	ListenAddr string
}

// FileConfig is the on-disk YAML shape. Durations are Go duration strings.
type FileConfig struct {
	LogLevel                string               `yaml:"log_level,omitempty"`
	LogService              string               `yaml:"log_service,omitempty"`
	BufferingUpdateInterval string               `yaml:"buffering_update_interval,omitempty"`
	Resolver                *ResolverFileConfig  `yaml:"resolver,omitempty"`
	Cache                   *CacheFileConfig     `yaml:"cache,omitempty"`
	Telemetry               *TelemetryFileConfig `yaml:"telemetry,omitempty"`
	Metrics                 *MetricsFileConfig   `yaml:"metrics,omitempty"`
}

type ResolverFileConfig struct {
	ProbeTimeout      string              `yaml:"probe_timeout,omitempty"`
	WorkerIdleTimeout string              `yaml:"worker_idle_timeout,omitempty"`
	ProbeRate         *float64            `yaml:"probe_rate,omitempty"`
	ProbeBurst        *int                `yaml:"probe_burst,omitempty"`
	BreakerThreshold  *int                `yaml:"breaker_threshold,omitempty"`
	BreakerReset      string              `yaml:"breaker_reset,omitempty"`
	UserAgent         string              `yaml:"user_agent,omitempty"`
	MaxRedirects      *int                `yaml:"max_redirects,omitempty"`
	Outbound          *OutboundFileConfig `yaml:"outbound,omitempty"`
}

type OutboundFileConfig struct {
	Enforce *bool    `yaml:"enforce,omitempty"`
	Hosts   []string `yaml:"hosts,omitempty"`
	CIDRs   []string `yaml:"cidrs,omitempty"`
	Ports   []int    `yaml:"ports,omitempty"`
	Schemes []string `yaml:"schemes,omitempty"`
}

type CacheFileConfig struct {
	Backend       string `yaml:"backend,omitempty"`
	RedisAddr     string `yaml:"redis_addr,omitempty"`
	RedisPassword string `yaml:"redis_password,omitempty"`
	RedisDB       *int   `yaml:"redis_db,omitempty"`
	RedisKey      string `yaml:"redis_key,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	SamplingRate *float64 `yaml:"sampling_rate,omitempty"`
}

type MetricsFileConfig struct {
	ListenAddr string `yaml:"listen_addr,omitempty"`
}
