// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names. All share the IPLAYER_ prefix.
const (
	EnvLogLevel                = "IPLAYER_LOG_LEVEL"
	EnvLogService              = "IPLAYER_LOG_SERVICE"
	EnvBufferingUpdateInterval = "IPLAYER_BUFFERING_UPDATE_INTERVAL"
	EnvProbeTimeout            = "IPLAYER_PROBE_TIMEOUT"
	EnvWorkerIdleTimeout       = "IPLAYER_WORKER_IDLE_TIMEOUT"
	EnvProbeRate               = "IPLAYER_PROBE_RATE"
	EnvProbeBurst              = "IPLAYER_PROBE_BURST"
	EnvBreakerThreshold        = "IPLAYER_BREAKER_THRESHOLD"
	EnvBreakerReset            = "IPLAYER_BREAKER_RESET"
	EnvUserAgent               = "IPLAYER_USER_AGENT"
	EnvMaxRedirects            = "IPLAYER_MAX_REDIRECTS"
	EnvOutboundEnforce         = "IPLAYER_OUTBOUND_ENFORCE"
	EnvOutboundHosts           = "IPLAYER_OUTBOUND_HOSTS"
	EnvOutboundCIDRs           = "IPLAYER_OUTBOUND_CIDRS"
	EnvCacheBackend            = "IPLAYER_CACHE_BACKEND"
	EnvRedisAddr               = "IPLAYER_REDIS_ADDR"
	EnvRedisPassword           = "IPLAYER_REDIS_PASSWORD"
	EnvRedisDB                 = "IPLAYER_REDIS_DB"
	EnvRedisKey                = "IPLAYER_REDIS_KEY"
	EnvTelemetryEnabled        = "IPLAYER_TELEMETRY_ENABLED"
	EnvTelemetryExporter       = "IPLAYER_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint       = "IPLAYER_TELEMETRY_ENDPOINT"
	EnvTelemetrySamplingRate   = "IPLAYER_TELEMETRY_SAMPLING_RATE"
	EnvMetricsAddr             = "IPLAYER_METRICS_ADDR"
)

// Cache backends.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:                "info",
		LogService:              "iplayer",
		BufferingUpdateInterval: time.Second,
		Resolver: ResolverConfig{
			ProbeTimeout:      10 * time.Second,
			WorkerIdleTimeout: 60 * time.Second,
			ProbeRate:         20,
			ProbeBurst:        5,
			BreakerThreshold:  5,
			BreakerReset:      30 * time.Second,
			UserAgent:         "iplayer",
			MaxRedirects:      10,
			Outbound: OutboundConfig{
				Schemes: []string{"http", "https"},
			},
		},
		Cache: CacheConfig{
			Backend: CacheBackendMemory,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "development",
			SamplingRate: 1.0,
		},
	}
}

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath      string
	version         string
	logLevel        string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. An empty configPath loads
// from defaults and environment only.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// OverrideLogLevel pins LogLevel above file and environment on every Load.
// An empty level removes the pin.
func (l *Loader) OverrideLogLevel(level string) *Loader {
	l.logLevel = level
	return l
}

// Path returns the config file path, possibly empty.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration: defaults, then the strict YAML file, then
// environment overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	if l.logLevel != "" {
		cfg.LogLevel = l.logLevel
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with strict parsing.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if isYAMLUnknownFieldError(err) {
			return nil, fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func isYAMLUnknownFieldError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "field") && strings.Contains(msg, "not found")
}

func mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
	if src.LogService != "" {
		dst.LogService = src.LogService
	}
	if err := mergeDuration(&dst.BufferingUpdateInterval, src.BufferingUpdateInterval, "buffering_update_interval"); err != nil {
		return err
	}

	if r := src.Resolver; r != nil {
		if err := mergeDuration(&dst.Resolver.ProbeTimeout, r.ProbeTimeout, "resolver.probe_timeout"); err != nil {
			return err
		}
		if err := mergeDuration(&dst.Resolver.WorkerIdleTimeout, r.WorkerIdleTimeout, "resolver.worker_idle_timeout"); err != nil {
			return err
		}
		if err := mergeDuration(&dst.Resolver.BreakerReset, r.BreakerReset, "resolver.breaker_reset"); err != nil {
			return err
		}
		if r.ProbeRate != nil {
			dst.Resolver.ProbeRate = *r.ProbeRate
		}
		if r.ProbeBurst != nil {
			dst.Resolver.ProbeBurst = *r.ProbeBurst
		}
		if r.BreakerThreshold != nil {
			dst.Resolver.BreakerThreshold = *r.BreakerThreshold
		}
		if r.MaxRedirects != nil {
			dst.Resolver.MaxRedirects = *r.MaxRedirects
		}
		if r.UserAgent != "" {
			dst.Resolver.UserAgent = r.UserAgent
		}
		if o := r.Outbound; o != nil {
			if o.Enforce != nil {
				dst.Resolver.Outbound.Enforce = *o.Enforce
			}
			if len(o.Hosts) > 0 {
				dst.Resolver.Outbound.Hosts = o.Hosts
			}
			if len(o.CIDRs) > 0 {
				dst.Resolver.Outbound.CIDRs = o.CIDRs
			}
			if len(o.Ports) > 0 {
				dst.Resolver.Outbound.Ports = o.Ports
			}
			if len(o.Schemes) > 0 {
				dst.Resolver.Outbound.Schemes = o.Schemes
			}
		}
	}

	if c := src.Cache; c != nil {
		if c.Backend != "" {
			dst.Cache.Backend = c.Backend
		}
		if c.RedisAddr != "" {
			dst.Cache.RedisAddr = expandEnv(c.RedisAddr)
		}
		if c.RedisPassword != "" {
			dst.Cache.RedisPassword = expandEnv(c.RedisPassword)
		}
		if c.RedisDB != nil {
			dst.Cache.RedisDB = *c.RedisDB
		}
		if c.RedisKey != "" {
			dst.Cache.RedisKey = c.RedisKey
		}
	}

	if t := src.Telemetry; t != nil {
		if t.Enabled != nil {
			dst.Telemetry.Enabled = *t.Enabled
		}
		if t.Exporter != "" {
			dst.Telemetry.Exporter = t.Exporter
		}
		if t.Endpoint != "" {
			dst.Telemetry.Endpoint = t.Endpoint
		}
		if t.Environment != "" {
			dst.Telemetry.Environment = t.Environment
		}
		if t.SamplingRate != nil {
			dst.Telemetry.SamplingRate = *t.SamplingRate
		}
	}

	if m := src.Metrics; m != nil && m.ListenAddr != "" {
		dst.Metrics.ListenAddr = m.ListenAddr
	}
	return nil
}

func mergeDuration(dst *time.Duration, raw, field string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	*dst = d
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.BufferingUpdateInterval = l.envDuration(EnvBufferingUpdateInterval, cfg.BufferingUpdateInterval)

	r := &cfg.Resolver
	r.ProbeTimeout = l.envDuration(EnvProbeTimeout, r.ProbeTimeout)
	r.WorkerIdleTimeout = l.envDuration(EnvWorkerIdleTimeout, r.WorkerIdleTimeout)
	r.ProbeRate = l.envFloat(EnvProbeRate, r.ProbeRate)
	r.ProbeBurst = l.envInt(EnvProbeBurst, r.ProbeBurst)
	r.BreakerThreshold = l.envInt(EnvBreakerThreshold, r.BreakerThreshold)
	r.BreakerReset = l.envDuration(EnvBreakerReset, r.BreakerReset)
	r.UserAgent = l.envString(EnvUserAgent, r.UserAgent)
	r.MaxRedirects = l.envInt(EnvMaxRedirects, r.MaxRedirects)
	r.Outbound.Enforce = l.envBool(EnvOutboundEnforce, r.Outbound.Enforce)
	r.Outbound.Hosts = l.envList(EnvOutboundHosts, r.Outbound.Hosts)
	r.Outbound.CIDRs = l.envList(EnvOutboundCIDRs, r.Outbound.CIDRs)

	c := &cfg.Cache
	c.Backend = l.envString(EnvCacheBackend, c.Backend)
	c.RedisAddr = l.envString(EnvRedisAddr, c.RedisAddr)
	c.RedisPassword = l.envString(EnvRedisPassword, c.RedisPassword)
	c.RedisDB = l.envInt(EnvRedisDB, c.RedisDB)
	c.RedisKey = l.envString(EnvRedisKey, c.RedisKey)

	t := &cfg.Telemetry
	t.Enabled = l.envBool(EnvTelemetryEnabled, t.Enabled)
	t.Exporter = l.envString(EnvTelemetryExporter, t.Exporter)
	t.Endpoint = l.envString(EnvTelemetryEndpoint, t.Endpoint)
	t.SamplingRate = l.envFloat(EnvTelemetrySamplingRate, t.SamplingRate)

	cfg.Metrics.ListenAddr = l.envString(EnvMetricsAddr, cfg.Metrics.ListenAddr)
}

// String returns a log-safe summary with secrets masked.
func (c AppConfig) String() string {
	pw := ""
	if c.Cache.RedisPassword != "" {
		pw = "***"
	}
	return fmt.Sprintf("AppConfig{Version:%s LogLevel:%s BufferingUpdateInterval:%s ProbeTimeout:%s Cache:%s RedisAddr:%s RedisPassword:%s Telemetry:%t}",
		c.Version, c.LogLevel, c.BufferingUpdateInterval, c.Resolver.ProbeTimeout,
		c.Cache.Backend, c.Cache.RedisAddr, pw, c.Telemetry.Enabled)
}
