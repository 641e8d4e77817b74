// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caij/iplayer/internal/resilience"
)

type mockChecker struct {
	name   string
	result CheckResult
}

func (m *mockChecker) Name() string                        { return m.name }
func (m *mockChecker) Check(_ context.Context) CheckResult { return m.result }

func TestManager_NoCheckers(t *testing.T) {
	resp := NewManager("v1").Check(context.Background())
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.True(t, resp.Ready)
	assert.Equal(t, "v1", resp.Version)
	assert.Empty(t, resp.Checks)
}

func TestManager_Aggregation(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []Status
		want      Status
		wantReady bool
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy, true},
		{"degraded stays ready", []Status{StatusHealthy, StatusDegraded}, StatusDegraded, true},
		{"unhealthy wins", []Status{StatusUnhealthy, StatusDegraded}, StatusUnhealthy, false},
		{"unhealthy before degraded", []Status{StatusDegraded, StatusUnhealthy}, StatusUnhealthy, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("")
			for i, s := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), result: CheckResult{Status: s}})
			}
			resp := m.Check(context.Background())
			assert.Equal(t, tt.want, resp.Status)
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Len(t, resp.Checks, len(tt.statuses))
		})
	}
}

func TestManager_ServeHealthAndReady(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(&mockChecker{name: "cache", result: CheckResult{Status: StatusUnhealthy, Error: "down"}})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Ready)
	assert.Equal(t, "down", resp.Checks["cache"].Error)
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("redis", time.Second, func(context.Context) error { return nil })
	assert.Equal(t, "redis", ok.Name())
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	failing := NewPingChecker("redis", time.Second, func(context.Context) error { return errors.New("refused") })
	res := failing.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "refused", res.Error)

	var deadline bool
	bounded := NewPingChecker("redis", 10*time.Millisecond, func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	})
	bounded.Check(context.Background())
	assert.True(t, deadline)
}

func TestBreakerChecker(t *testing.T) {
	state := resilience.StateClosed
	c := NewBreakerChecker("source_probe", func() resilience.State { return state })
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	state = resilience.StateOpen
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)

	state = resilience.StateHalfOpen
	assert.Equal(t, StatusDegraded, c.Check(context.Background()).Status)
}
