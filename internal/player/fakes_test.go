// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Caij/iplayer/internal/cache"
	"github.com/Caij/iplayer/internal/engine"
	"github.com/Caij/iplayer/internal/looper"
	"github.com/Caij/iplayer/internal/media"
	"github.com/Caij/iplayer/internal/source"
	"github.com/Caij/iplayer/internal/surface"
)

// fakeEngine records every call and lets tests inject raw callbacks.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	handler  engine.EventHandler
	buffered int
	source   media.Source
	surface  surface.Surface
}

var _ engine.Engine = (*fakeEngine)(nil)

func (e *fakeEngine) record(format string, args ...any) {
	e.mu.Lock()
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
	e.mu.Unlock()
}

func (e *fakeEngine) callLog() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

func (e *fakeEngine) h() engine.EventHandler {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handler
}

func (e *fakeEngine) SetDataSource(src media.Source) error {
	e.mu.Lock()
	e.source = src
	e.mu.Unlock()
	e.record("set_data_source %s", src.Location())
	return nil
}
func (e *fakeEngine) PrepareAsync() error            { e.record("prepare"); return nil }
func (e *fakeEngine) Start() error                   { e.record("start"); return nil }
func (e *fakeEngine) Pause() error                   { e.record("pause"); return nil }
func (e *fakeEngine) Stop() error                    { e.record("stop"); return nil }
func (e *fakeEngine) SeekTo(pos time.Duration) error { e.record("seek %s", pos); return nil }
func (e *fakeEngine) Reset()                         { e.record("reset") }
func (e *fakeEngine) Release()                       { e.record("release") }
func (e *fakeEngine) Duration() time.Duration        { e.record("duration"); return time.Minute }
func (e *fakeEngine) CurrentPosition() time.Duration { e.record("position"); return time.Second }
func (e *fakeEngine) VideoSize() (int, int)          { return 0, 0 }
func (e *fakeEngine) IsPlaying() bool                { e.record("is_playing"); return true }
func (e *fakeEngine) SetVolume(l, r float32)         { e.record("volume") }
func (e *fakeEngine) SetSpeed(rate float32)          { e.record("speed") }
func (e *fakeEngine) SetLooping(looping bool)        { e.record("looping %t", looping) }

func (e *fakeEngine) BufferedPercentage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffered
}

func (e *fakeEngine) SetSurface(s surface.Surface) {
	e.mu.Lock()
	e.surface = s
	e.mu.Unlock()
	if s == nil {
		e.record("set_surface nil")
		return
	}
	e.record("set_surface")
}

func (e *fakeEngine) SetEventHandler(h engine.EventHandler) {
	e.mu.Lock()
	e.handler = h
	e.mu.Unlock()
}

// state injects a raw sample.
func (e *fakeEngine) state(pwr bool, s engine.State) {
	if h := e.h(); h != nil {
		h.OnStateChanged(pwr, s)
	}
}

// events records every canonical event the player emits.
type events struct {
	mu  sync.Mutex
	log []string
}

func (ev *events) add(format string, args ...any) {
	ev.mu.Lock()
	ev.log = append(ev.log, fmt.Sprintf(format, args...))
	ev.mu.Unlock()
}

func (ev *events) take() []string {
	ev.mu.Lock()
	defer ev.mu.Unlock()
	out := ev.log
	ev.log = nil
	return out
}

func (ev *events) OnPrepared(*Player)     { ev.add("prepared") }
func (ev *events) OnCompletion(*Player)   { ev.add("completion") }
func (ev *events) OnSeekComplete(*Player) { ev.add("seek_complete") }
func (ev *events) OnVideoSizeChanged(_ *Player, w, h int) {
	ev.add("size %dx%d", w, h)
}
func (ev *events) OnError(_ *Player, kind engine.ErrorKind, extra int) bool {
	ev.add("error %s %d", kind, extra)
	return false
}
func (ev *events) OnInfo(_ *Player, kind engine.InfoKind, extra int) bool {
	ev.add("info %s %d", kind, extra)
	return false
}

// bufferingEvents only listens to buffering updates.
type bufferingEvents struct {
	updates atomic.Int32
	last    atomic.Int32
}

func (b *bufferingEvents) OnBufferingUpdate(_ *Player, percent int) {
	b.updates.Add(1)
	b.last.Store(int32(percent))
}

// countingProber maps URLs to fixed targets, counts calls and optionally
// blocks until gate is closed.
type countingProber struct {
	calls   atomic.Int32
	targets map[string]string
	gate    chan struct{}
}

func (p *countingProber) Probe(ctx context.Context, rawURL string, _ map[string]string) (string, error) {
	p.calls.Add(1)
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if t, ok := p.targets[rawURL]; ok {
		return t, nil
	}
	return rawURL, nil
}

func newResolver(t *testing.T, p source.Prober) (*source.Resolver, *cache.MemoryStore) {
	t.Helper()
	store := cache.NewMemoryStore()
	r := source.NewResolver(source.Config{}, source.WithStore(store), source.WithProber(p))
	t.Cleanup(r.Close)
	return r, store
}

// newTestPlayer builds a player on an inline dispatcher over a fake engine.
func newTestPlayer(t *testing.T, opts ...Option) (*Player, *fakeEngine, *events) {
	t.Helper()
	eng := &fakeEngine{buffered: 42}
	r, _ := newResolver(t, &countingProber{})
	base := []Option{
		WithDispatcher(looper.Inline{}),
		WithResolver(r),
		WithLogger(zerolog.Nop()),
	}
	p := New(eng, append(base, opts...)...)
	t.Cleanup(p.Release)
	ev := &events{}
	p.Observe(ev)
	return p, eng, ev
}

// prepare drives p to Prepared with a sniffable source.
func prepare(t *testing.T, p *Player, eng *fakeEngine) {
	t.Helper()
	if err := p.SetDataSource("http://host/v.mp4", nil); err != nil {
		t.Fatal(err)
	}
	if err := p.PrepareAsync(); err != nil {
		t.Fatal(err)
	}
	eng.state(false, engine.StateBuffering)
	eng.state(false, engine.StateReady)
}

type fakeSurface struct {
	released  atomic.Int32
	onRelease func()
}

func (s *fakeSurface) Valid() bool { return true }
func (s *fakeSurface) Release() {
	s.released.Add(1)
	if s.onRelease != nil {
		s.onRelease()
	}
}

type fakeTexture struct {
	made      []*fakeSurface
	onRelease func()
}

func (t *fakeTexture) NewSurface() surface.Surface {
	s := &fakeSurface{onRelease: t.onRelease}
	t.made = append(t.made, s)
	return s
}

type fakeTextureView struct {
	texture  *fakeTexture
	listener surface.TextureListener
}

func (v *fakeTextureView) SetTextureListener(l surface.TextureListener) { v.listener = l }
func (v *fakeTextureView) TextureListener() surface.TextureListener    { return v.listener }
func (v *fakeTextureView) Texture() surface.Texture {
	if v.texture == nil {
		return nil
	}
	return v.texture
}
