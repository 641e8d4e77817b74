// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Caij/iplayer/internal/engine"
)

func TestPlayer_StatusTransitions(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	assert.Equal(t, StatusIdle, p.Status())
	assert.NotEmpty(t, p.ID())

	assert.ErrorIs(t, p.PrepareAsync(), ErrIllegalState)

	require.NoError(t, p.SetDataSource("http://host/v.mp4", map[string]string{"k": "v"}))
	assert.Equal(t, StatusInitialized, p.Status())
	assert.Equal(t, "http://host/v.mp4", p.DataSource())
	assert.ErrorIs(t, p.SetDataSource("http://host/other.mp4", nil), ErrIllegalState)

	require.NoError(t, p.PrepareAsync())
	assert.Equal(t, StatusPreparing, p.Status())
	assert.Equal(t, []string{"pause", "set_data_source http://host/v.mp4", "prepare"}, eng.callLog())
	assert.ErrorIs(t, p.PrepareAsync(), ErrIllegalState)

	eng.state(false, engine.StateBuffering)
	eng.state(false, engine.StateReady)
	assert.Equal(t, StatusPrepared, p.Status())
	assert.Equal(t, []string{"prepared"}, ev.take())
}

func TestPlayer_PreparedExactlyOnce(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	prepare(t, p, eng)
	for i := 0; i < 3; i++ {
		eng.state(false, engine.StateReady)
	}
	assert.Equal(t, []string{"prepared"}, ev.take())
}

func TestPlayer_BufferingEdgesAndCompletion(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	prepare(t, p, eng)
	ev.take()

	eng.state(true, engine.StateReady)
	eng.state(true, engine.StateBuffering)
	eng.state(true, engine.StateBuffering)
	eng.state(true, engine.StateReady)
	eng.state(true, engine.StateEnded)
	eng.state(true, engine.StateEnded)

	want := []string{
		"info buffering_start 42",
		"info buffering_end 42",
		"completion",
	}
	if diff := cmp.Diff(want, ev.take()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestPlayer_CallbacksIgnoredWhileIdle(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	eng.state(false, engine.StateBuffering)
	eng.state(false, engine.StateReady)
	h := eng.h()
	h.OnVideoSizeChanged(640, 480, 90)
	h.OnRenderedFirstFrame()
	h.OnSeekProcessed()
	assert.False(t, h.OnError(errors.New("boom")), "nothing dispatched while idle")

	assert.Empty(t, ev.take())
	assert.Equal(t, StatusIdle, p.Status())
	w, hh := p.VideoSize()
	assert.Zero(t, w+hh)
}

func TestPlayer_ErrorClassifiedOnceAndStopsLoop(t *testing.T) {
	p, eng, ev := newTestPlayer(t, WithBufferingInterval(time.Hour))
	p.AddBufferingUpdateListener(&bufferingEvents{})
	prepare(t, p, eng)
	require.True(t, p.repeater.Running())
	ev.take()

	handled := eng.h().OnError(&engine.HTTPStatusError{Code: 503, URL: "http://host/v.mp4"})
	assert.True(t, handled, "player always reports errors as handled")
	assert.False(t, p.repeater.Running())
	assert.Equal(t, []string{"error http_server 503"}, ev.take())
	assert.Equal(t, StatusPrepared, p.Status(), "errors leave status unchanged")
}

func TestPlayer_VideoSizeRotationAndFirstFrame(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	prepare(t, p, eng)
	ev.take()

	h := eng.h()
	h.OnVideoSizeChanged(1280, 720, 0)
	h.OnVideoSizeChanged(720, 1280, 90)
	h.OnRenderedFirstFrame()
	h.OnSeekProcessed()

	want := []string{
		"size 1280x720",
		"size 720x1280",
		"info rotation_changed 90",
		"info video_rendering_start 0",
		"seek_complete",
	}
	assert.Equal(t, want, ev.take())
	w, hh := p.VideoSize()
	assert.Equal(t, []int{720, 1280}, []int{w, hh})
}

func TestPlayer_BufferingLoop(t *testing.T) {
	p, eng, _ := newTestPlayer(t, WithBufferingInterval(5*time.Millisecond))
	prepare(t, p, eng)
	assert.False(t, p.repeater.Running(), "no loop without listeners")

	b := &bufferingEvents{}
	p.AddBufferingUpdateListener(b)
	require.True(t, p.repeater.Running(), "listener added while ready starts the loop")
	require.Eventually(t, func() bool { return b.updates.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(42), b.last.Load())

	eng.state(false, engine.StateIdle)
	assert.False(t, p.repeater.Running(), "idle stops the loop")

	eng.state(false, engine.StateReady)
	assert.True(t, p.repeater.Running(), "ready restarts the loop")

	p.RemoveBufferingUpdateListener(b)
	assert.False(t, p.repeater.Running(), "last listener removed stops the loop")
}

func TestPlayer_PassThroughCommands(t *testing.T) {
	p, eng, _ := newTestPlayer(t)
	prepare(t, p, eng)
	before := len(eng.callLog())

	require.NoError(t, p.Start())
	require.NoError(t, p.SeekTo(3*time.Second))
	require.NoError(t, p.Pause())
	require.NoError(t, p.SetVolume(0.5, 0.5))
	require.NoError(t, p.SetSpeed(1.5))
	require.NoError(t, p.SetLooping(true))
	require.NoError(t, p.Stop())
	assert.True(t, p.Looping())
	assert.Equal(t, time.Minute, p.Duration())
	assert.Equal(t, time.Second, p.CurrentPosition())
	assert.True(t, p.IsPlaying())
	assert.Equal(t, 42, p.BufferedPercentage())

	want := []string{
		"start", "seek 3s", "pause", "volume", "speed", "looping true", "stop",
		"duration", "position", "is_playing",
	}
	assert.Equal(t, want, eng.callLog()[before:])
}

func TestPlayer_Reset(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	prepare(t, p, eng)
	ev.take()

	require.NoError(t, p.Reset())
	assert.Equal(t, StatusIdle, p.Status())
	assert.Empty(t, p.DataSource())
	assert.Contains(t, eng.callLog(), "reset")

	prepare(t, p, eng)
	assert.Equal(t, []string{"prepared"}, ev.take(), "prepared fires again after reset")
}

func TestPlayer_PostReleaseSafety(t *testing.T) {
	p, eng, ev := newTestPlayer(t)
	prepare(t, p, eng)
	ev.take()

	p.Release()
	p.Release()
	assert.Equal(t, StatusReleased, p.Status())
	assert.Nil(t, eng.h(), "player detaches from the engine")
	calls := eng.callLog()
	assert.Equal(t, "release", calls[len(calls)-1])

	assert.ErrorIs(t, p.Start(), ErrReleased)
	assert.ErrorIs(t, p.Pause(), ErrReleased)
	assert.ErrorIs(t, p.Stop(), ErrReleased)
	assert.ErrorIs(t, p.SeekTo(time.Second), ErrReleased)
	assert.ErrorIs(t, p.SetVolume(1, 1), ErrReleased)
	assert.ErrorIs(t, p.SetSpeed(1), ErrReleased)
	assert.ErrorIs(t, p.SetLooping(true), ErrReleased)
	assert.ErrorIs(t, p.SetTextureView(&fakeTextureView{}), ErrReleased)
	assert.ErrorIs(t, p.SetSurfaceView(nil), ErrReleased)
	assert.ErrorIs(t, p.ClearSurface(), ErrReleased)
	assert.ErrorIs(t, p.SetDataSource("http://host/v.mp4", nil), ErrReleased)
	assert.ErrorIs(t, p.PrepareAsync(), ErrReleased)
	assert.ErrorIs(t, p.Reset(), ErrReleased)
	assert.Zero(t, p.Duration())
	assert.Zero(t, p.CurrentPosition())
	assert.False(t, p.IsPlaying())
	assert.Zero(t, p.BufferedPercentage())

	assert.Equal(t, calls, eng.callLog(), "no engine calls after release")
	assert.Empty(t, ev.take())
	assert.Zero(t, p.prepared.len(), "registries cleared")
	assert.Zero(t, p.errorListeners.len())
}

func TestPlayer_SurfaceHandoffThroughEngine(t *testing.T) {
	p, eng, _ := newTestPlayer(t)
	tex := &fakeTexture{}
	tex.onRelease = func() { eng.record("surface_release") }
	view := &fakeTextureView{texture: tex}

	require.NoError(t, p.SetTextureView(view))
	view.listener.TextureAvailable(tex, 1, 1)
	require.Len(t, tex.made, 2)
	assert.Equal(t, int32(1), tex.made[0].released.Load())
	assert.Same(t, tex.made[1], p.Surface().Surface)

	require.NoError(t, p.ClearTextureView(view))
	calls := eng.callLog()
	assert.Equal(t, []string{"set_surface nil", "surface_release"}, calls[len(calls)-2:])
	assert.Equal(t, int32(1), tex.made[1].released.Load())

	require.NoError(t, p.SetTextureView(view))
	mark := len(eng.callLog())
	p.Release()
	assert.Equal(t, int32(1), tex.made[2].released.Load(), "release frees the owned surface")
	assert.Equal(t, []string{"release", "surface_release"}, eng.callLog()[mark:],
		"engine lets go of the surface before it is freed")
	assert.Nil(t, eng.h())
}

type stranger struct{}

func (stranger) OnPrepared(*Player) {}

func TestRegistry_OrderDuplicatesAndRemove(t *testing.T) {
	var r registry[PreparedListener]
	a, b := &events{}, &events{}
	r.add(a)
	r.add(b)
	r.add(a)
	assert.Equal(t, 3, r.len())

	assert.True(t, r.remove(a))
	first, _ := r.at(0)
	assert.Same(t, b, first)
	assert.Equal(t, 2, r.len())
	assert.False(t, r.remove(stranger{}))

	r.clear()
	assert.Zero(t, r.len())
}

type adder struct {
	r     *registry[PreparedListener]
	calls int
}

func (a *adder) OnPrepared(*Player) {
	a.calls++
	if a.calls == 1 {
		a.r.add(&events{})
	}
}

func TestRegistry_EachReadsAtCallTime(t *testing.T) {
	var r registry[PreparedListener]
	a := &adder{r: &r}
	r.add(a)
	n := r.each(func(l PreparedListener) { l.OnPrepared(nil) })
	assert.Equal(t, 2, n, "listener added during iteration is visited")
	assert.Equal(t, 1, a.calls)
}
