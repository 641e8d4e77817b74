// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_WritesServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "iplayer-test", Version: "v0.0.1"})

	l := WithComponent("player")
	l.Info().Str(FieldEvent, "test.event").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "iplayer-test", entry["service"])
	assert.Equal(t, "v0.0.1", entry["version"])
	assert.Equal(t, "player", entry[FieldComponent])
	assert.Equal(t, "test.event", entry[FieldEvent])
}

func TestSetLevel(t *testing.T) {
	require.NoError(t, SetLevel("warn"))
	assert.Error(t, SetLevel("not-a-level"))
	require.NoError(t, SetLevel("info"))
}
