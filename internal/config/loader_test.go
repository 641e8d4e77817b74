// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caij/iplayer/internal/validate"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	want := Defaults()
	want.Version = "v1.2.3"
	assert.Equal(t, want, cfg)
	assert.Equal(t, time.Second, cfg.BufferingUpdateInterval)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
buffering_update_interval: 250ms
resolver:
  probe_timeout: 3s
  probe_rate: 2.5
  probe_burst: 1
  max_redirects: 4
  outbound:
    enforce: true
    hosts: [cdn.example.com]
    ports: [443]
cache:
  backend: redis
  redis_addr: 127.0.0.1:6379
  redis_db: 2
metrics:
  listen_addr: ":9090"
`)
	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.BufferingUpdateInterval)
	assert.Equal(t, 3*time.Second, cfg.Resolver.ProbeTimeout)
	assert.InDelta(t, 2.5, cfg.Resolver.ProbeRate, 1e-9)
	assert.Equal(t, 1, cfg.Resolver.ProbeBurst)
	assert.Equal(t, 4, cfg.Resolver.MaxRedirects)
	assert.True(t, cfg.Resolver.Outbound.Enforce)
	assert.Equal(t, []string{"cdn.example.com"}, cfg.Resolver.Outbound.Hosts)
	assert.Equal(t, []int{443}, cfg.Resolver.Outbound.Ports)
	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.Cache.RedisDB)
	assert.Equal(t, ":9090", cfg.Metrics.ListenAddr)
	// untouched keys keep defaults
	assert.Equal(t, Defaults().Resolver.WorkerIdleTimeout, cfg.Resolver.WorkerIdleTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "log_level: debug\nresolver:\n  probe_timeout: 3s\n")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvProbeTimeout, "7s")
	t.Setenv(EnvOutboundCIDRs, "10.0.0.0/8, 192.0.2.1")
	t.Setenv(EnvTelemetryEnabled, "yes")

	l := NewLoader(path, "dev")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7*time.Second, cfg.Resolver.ProbeTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Resolver.Outbound.CIDRs)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Contains(t, l.ConsumedEnvKeys, EnvProbeTimeout)
}

func TestLoad_LogLevelOverrideWins(t *testing.T) {
	path := writeConfig(t, "log_level: debug\n")
	t.Setenv(EnvLogLevel, "info")

	cfg, err := NewLoader(path, "dev").OverrideLogLevel("error").Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)

	_, err = NewLoader(path, "dev").OverrideLogLevel("loud").Load()
	require.ErrorIs(t, err, validate.ErrInvalid)
}

func TestLoad_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv(EnvProbeBurst, "many")
	cfg, err := NewLoader("", "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults().Resolver.ProbeBurst, cfg.Resolver.ProbeBurst)
}

func TestLoad_StrictUnknownField(t *testing.T) {
	path := writeConfig(t, "log_level: info\nbogus_key: 1\n")
	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "dev").Load()
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "log_level: info\n---\nlog_level: debug\n")
	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "buffering_update_interval: soon\n")
	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffering_update_interval")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestAppConfig_StringMasksPassword(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.RedisPassword = "hunter2"
	assert.NotContains(t, cfg.String(), "hunter2")
	assert.Contains(t, cfg.String(), "RedisPassword:***")
}
