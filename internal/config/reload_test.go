// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_ReloadKeepsOldOnFailure(t *testing.T) {
	path := writeConfig(t, "log_level: info\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	require.NoError(t, os.WriteFile(path, []byte("log_level: nope\n"), 0o600))

	err = h.Reload(context.Background())
	require.Error(t, err)
	assert.Equal(t, "info", h.Get().LogLevel)
}

func TestHolder_ReloadNotifiesListeners(t *testing.T) {
	path := writeConfig(t, "buffering_update_interval: 1s\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("buffering_update_interval: 2s\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	select {
	case cfg := <-ch:
		assert.Equal(t, 2*time.Second, cfg.BufferingUpdateInterval)
	default:
		t.Fatal("listener not notified")
	}
	assert.Equal(t, 2*time.Second, h.Get().BufferingUpdateInterval)
}

func TestHolder_WatcherReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "log_service: before\n")
	loader := NewLoader(path, "dev")
	initial, err := loader.Load()
	require.NoError(t, err)

	h := NewHolder(initial, loader)
	ch := make(chan AppConfig, 4)
	h.RegisterListener(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.StartWatcher(ctx))
	defer h.Stop()

	require.NoError(t, os.WriteFile(path, []byte("log_service: after\n"), 0o600))

	select {
	case cfg := <-ch:
		assert.Equal(t, "after", cfg.LogService)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
}

func TestHolder_WatcherWithoutFile(t *testing.T) {
	h := NewHolder(Defaults(), NewLoader("", "dev"))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Stop()
}
