// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package reconcile

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Caij/iplayer/internal/looper"
)

func TestRepeater_TicksWhileRunning(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	lp := looper.New()
	defer func() { _ = lp.Close(); lp.Wait() }()

	var ticks atomic.Int32
	r := NewRepeater(lp, 10*time.Millisecond, func() bool { ticks.Add(1); return true })
	r.Start()
	r.Start()

	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
	assert.False(t, r.Running())

	stopped := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, ticks.Load(), "no ticks after stop")
}

func TestRepeater_StaleTickDropped(t *testing.T) {
	var queued []func()
	d := looper.Func(func(fn func()) { queued = append(queued, fn) })

	var ticks int
	r := NewRepeater(d, time.Hour, func() bool { ticks++; return true })
	r.Start()
	gen := r.generation
	r.fire(gen)
	require.Len(t, queued, 1)

	r.Stop()
	queued[0]()
	assert.Zero(t, ticks)
}

func TestRepeater_RestartAfterStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var ticks atomic.Int32
	r := NewRepeater(looper.Inline{}, 5*time.Millisecond, func() bool { ticks.Add(1); return true })
	r.Start()
	r.Stop()
	r.Start()
	require.Eventually(t, func() bool { return ticks.Load() >= 1 }, time.Second, 5*time.Millisecond)
	r.Stop()
}

func TestRepeater_TickMayStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var ticks atomic.Int32
	var r *Repeater
	r = NewRepeater(looper.Inline{}, 5*time.Millisecond, func() bool {
		ticks.Add(1)
		r.Stop()
		return true
	})
	r.Start()
	require.Eventually(t, func() bool { return !r.Running() }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(1), ticks.Load())
}

func TestRepeater_DefaultInterval(t *testing.T) {
	r := NewRepeater(looper.Inline{}, 0, func() bool { return true })
	assert.Equal(t, DefaultInterval, r.interval)
}

func TestRepeater_StopsWhenDispatcherRejects(t *testing.T) {
	lp := looper.New()
	require.NoError(t, lp.Close())
	lp.Wait()

	r := NewRepeater(lp, time.Millisecond, func() bool { return true })
	r.Start()
	require.Eventually(t, func() bool { return !r.Running() }, time.Second, time.Millisecond)
}

func TestRepeater_TickReturningFalseStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	var ticks atomic.Int32
	r := NewRepeater(looper.Inline{}, 5*time.Millisecond, func() bool {
		return ticks.Add(1) < 2
	})
	r.Start()
	require.Eventually(t, func() bool { return !r.Running() }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(2), ticks.Load())
}
