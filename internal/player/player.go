// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package player is the playback facade. It drives one engine.Engine,
// reconciles the engine's raw state samples into canonical events, fans
// those events out to any number of listeners, resolves sources before the
// engine opens them and owns the output surface binding.
//
// A Player has one owning goroutine: commands, Release included, must not
// be issued concurrently with each other. Engine callbacks may arrive on any
// goroutine. Listeners run on the dispatcher without the player's lock held
// and may call back into the player.
package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"

	"github.com/Caij/iplayer/internal/engine"
	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/looper"
	"github.com/Caij/iplayer/internal/media"
	"github.com/Caij/iplayer/internal/metrics"
	netx "github.com/Caij/iplayer/internal/platform/net"
	"github.com/Caij/iplayer/internal/reconcile"
	"github.com/Caij/iplayer/internal/source"
	"github.com/Caij/iplayer/internal/surface"
	"github.com/Caij/iplayer/internal/telemetry"
)

// Player is the playback facade.
type Player struct {
	id         string
	logger     zerolog.Logger
	engine     engine.Engine
	dispatcher looper.Dispatcher
	ownLooper  *looper.Looper
	surfaces   *surface.Manager
	session    *source.Session
	repeater   *reconcile.Repeater

	mu         sync.Mutex
	status     Status
	reconciler *reconcile.Reconciler
	uri        string
	headers    map[string]string
	looping    bool
	width      int
	height     int

	prepared        registry[PreparedListener]
	completion      registry[CompletionListener]
	bufferingUpdate registry[BufferingUpdateListener]
	seekComplete    registry[SeekCompleteListener]
	sizeChanged     registry[VideoSizeChangedListener]
	errorListeners  registry[ErrorListener]
	info            registry[InfoListener]
}

// New wraps eng. The player installs itself as the engine's only event
// handler.
func New(eng engine.Engine, opts ...Option) *Player {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	base := xglog.WithComponent("player")
	if o.logger != nil {
		base = o.logger.With().Str(xglog.FieldComponent, "player").Logger()
	}
	logger := base.With().Str(xglog.FieldPlayerID, o.id).Logger()

	p := &Player{
		id:         o.id,
		logger:     logger,
		engine:     eng,
		dispatcher: o.dispatcher,
		reconciler: reconcile.New(),
		status:     StatusIdle,
	}
	if p.dispatcher == nil {
		p.ownLooper = looper.New()
		p.dispatcher = p.ownLooper
	}
	resolver := o.resolver
	if resolver == nil {
		resolver = source.Default()
	}

	surfaceLogger := logger.With().Logger()
	p.surfaces = surface.NewManager(eng, &surfaceLogger)
	p.session = resolver.NewSession(p.dispatcher, logger.With().Str(xglog.FieldComponent, "source").Logger())
	p.repeater = reconcile.NewRepeater(p.dispatcher, o.bufferingInterval, p.onBufferingTick)

	eng.SetEventHandler(&engineEvents{p: p})
	metrics.PlayersActive.Inc()
	return p
}

// ID returns the player's unique ID.
func (p *Player) ID() string { return p.id }

// Status returns the current lifecycle status.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// DataSource returns the URI set by SetDataSource.
func (p *Player) DataSource() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uri
}

// SetDataSource records the URI to play. Valid only while Idle.
func (p *Player) SetDataSource(uri string, headers map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkLocked("set data source", StatusIdle); err != nil {
		return err
	}
	p.uri = uri
	p.headers = headers
	p.setStatusLocked(StatusInitialized)
	return nil
}

// PrepareAsync resolves the source and prepares the engine without
// blocking. Valid only while Initialized. Completion is reported through
// PreparedListener or ErrorListener.
func (p *Player) PrepareAsync() error {
	p.mu.Lock()
	if err := p.checkLocked("prepare", StatusInitialized); err != nil {
		p.mu.Unlock()
		return err
	}
	p.setStatusLocked(StatusPreparing)
	uri, headers := p.uri, p.headers
	p.mu.Unlock()

	// Playback never starts on its own after preparing.
	_ = p.engine.Pause()

	src, ok, err := p.session.Resolve(uri, headers, p.openSource)
	if err != nil {
		return fmt.Errorf("resolve source: %w", err)
	}
	if ok {
		p.openSource(src)
	}
	return nil
}

// openSource hands a resolved source to the engine. It runs on the
// dispatcher for asynchronous resolutions.
func (p *Player) openSource(src media.Source) {
	p.mu.Lock()
	status := p.status
	p.mu.Unlock()
	if status != StatusPreparing {
		p.logger.Debug().Str(xglog.FieldStatus, status.String()).Msg("dropping resolved source")
		return
	}

	_, span := telemetry.Tracer("iplayer.player").Start(context.Background(), "player.open_source")
	defer span.End()
	span.SetAttributes(telemetry.PlayerAttributes(p.id, status.String())...)
	span.SetAttributes(telemetry.ProbeAttributes(netx.SanitizeURL(src.URI), netx.SanitizeURL(src.ResolvedURI), src.Type.String())...)

	err := p.engine.SetDataSource(src)
	if err == nil {
		err = p.engine.PrepareAsync()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open source failed")
		p.handleError(err)
		return
	}
	p.logger.Info().
		Str(xglog.FieldURL, netx.SanitizeURL(src.URI)).
		Str(xglog.FieldContentType, src.Type.String()).
		Bool("fallback", src.Fallback).
		Msg("preparing source")
}

// Start begins or resumes playback.
func (p *Player) Start() error {
	if err := p.checkReleased("start"); err != nil {
		return err
	}
	return p.engine.Start()
}

// Pause pauses playback.
func (p *Player) Pause() error {
	if err := p.checkReleased("pause"); err != nil {
		return err
	}
	return p.engine.Pause()
}

// Stop stops playback.
func (p *Player) Stop() error {
	if err := p.checkReleased("stop"); err != nil {
		return err
	}
	return p.engine.Stop()
}

// SeekTo seeks to pos. SeekCompleteListener fires once applied.
func (p *Player) SeekTo(pos time.Duration) error {
	if err := p.checkReleased("seek"); err != nil {
		return err
	}
	return p.engine.SeekTo(pos)
}

// Reset returns the player to Idle so a new source can be set. Any pending
// resolution is abandoned.
func (p *Player) Reset() error {
	p.mu.Lock()
	if p.status == StatusReleased {
		p.mu.Unlock()
		return fmt.Errorf("reset: %w", ErrReleased)
	}
	p.setStatusLocked(StatusIdle)
	p.reconciler.Reset()
	p.uri = ""
	p.headers = nil
	p.width, p.height = 0, 0
	p.mu.Unlock()

	p.session.Cancel()
	p.repeater.Stop()
	p.engine.Reset()
	return nil
}

// Release tears the player down. It is idempotent and valid in any status;
// afterwards every command returns ErrReleased without reaching the engine.
func (p *Player) Release() {
	p.mu.Lock()
	if p.status == StatusReleased {
		p.mu.Unlock()
		return
	}
	p.setStatusLocked(StatusReleased)
	p.mu.Unlock()

	p.session.Close()
	p.repeater.Stop()
	p.engine.SetEventHandler(nil)
	p.engine.Release()
	p.surfaces.Release()
	p.ClearListeners()
	if p.ownLooper != nil {
		_ = p.ownLooper.Close()
	}
	metrics.PlayersActive.Dec()
	p.logger.Debug().Msg("player released")
}

// Duration returns the media duration, or 0 when unknown or released.
func (p *Player) Duration() time.Duration {
	if p.checkReleased("") != nil {
		return 0
	}
	return p.engine.Duration()
}

// CurrentPosition returns the playhead, or 0 after release.
func (p *Player) CurrentPosition() time.Duration {
	if p.checkReleased("") != nil {
		return 0
	}
	return p.engine.CurrentPosition()
}

// VideoSize returns the last size reported by the engine.
func (p *Player) VideoSize() (width, height int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.width, p.height
}

// IsPlaying reports whether the engine is playing.
func (p *Player) IsPlaying() bool {
	if p.checkReleased("") != nil {
		return false
	}
	return p.engine.IsPlaying()
}

// BufferedPercentage returns the buffered percentage, 0..100.
func (p *Player) BufferedPercentage() int {
	if p.checkReleased("") != nil {
		return 0
	}
	return p.engine.BufferedPercentage()
}

// SetVolume sets the per-channel volume.
func (p *Player) SetVolume(left, right float32) error {
	if err := p.checkReleased("set volume"); err != nil {
		return err
	}
	p.engine.SetVolume(left, right)
	return nil
}

// SetSpeed sets the playback rate.
func (p *Player) SetSpeed(rate float32) error {
	if err := p.checkReleased("set speed"); err != nil {
		return err
	}
	p.engine.SetSpeed(rate)
	return nil
}

// SetLooping enables or disables looping.
func (p *Player) SetLooping(looping bool) error {
	p.mu.Lock()
	if p.status == StatusReleased {
		p.mu.Unlock()
		return fmt.Errorf("set looping: %w", ErrReleased)
	}
	p.looping = looping
	p.mu.Unlock()
	p.engine.SetLooping(looping)
	return nil
}

// Looping reports the last value passed to SetLooping.
func (p *Player) Looping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.looping
}

// SetSurfaceView renders into v's holder surface.
func (p *Player) SetSurfaceView(v surface.SurfaceView) error {
	if err := p.checkReleased("set surface view"); err != nil {
		return err
	}
	return p.surfaces.SetSurfaceView(v)
}

// SetTextureView renders into a surface created from v's texture.
func (p *Player) SetTextureView(v surface.TextureView) error {
	if err := p.checkReleased("set texture view"); err != nil {
		return err
	}
	return p.surfaces.SetTextureView(v)
}

// ClearSurfaceView detaches v if it is the bound view.
func (p *Player) ClearSurfaceView(v surface.SurfaceView) error {
	if err := p.checkReleased("clear surface view"); err != nil {
		return err
	}
	return p.surfaces.ClearSurfaceView(v)
}

// ClearTextureView detaches v if it is the bound view.
func (p *Player) ClearTextureView(v surface.TextureView) error {
	if err := p.checkReleased("clear texture view"); err != nil {
		return err
	}
	return p.surfaces.ClearTextureView(v)
}

// ClearSurface detaches whichever view is bound. Rendering stops
// immediately.
func (p *Player) ClearSurface() error {
	if err := p.checkReleased("clear surface"); err != nil {
		return err
	}
	return p.surfaces.Clear()
}

// Surface returns the current output binding.
func (p *Player) Surface() surface.Binding { return p.surfaces.Current() }

func (p *Player) checkReleased(op string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status == StatusReleased {
		return fmt.Errorf("%s: %w", op, ErrReleased)
	}
	return nil
}

func (p *Player) checkLocked(op string, want Status) error {
	switch p.status {
	case StatusReleased:
		return fmt.Errorf("%s: %w", op, ErrReleased)
	case want:
		return nil
	default:
		return fmt.Errorf("%s in status %s: %w", op, p.status, ErrIllegalState)
	}
}

func (p *Player) setStatusLocked(s Status) {
	if p.status == s {
		return
	}
	p.logger.Debug().
		Str(xglog.FieldOldState, p.status.String()).
		Str(xglog.FieldNewState, s.String()).
		Msg("status changed")
	p.status = s
}
