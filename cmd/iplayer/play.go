// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/Caij/iplayer/internal/engine"
	"github.com/Caij/iplayer/internal/engine/sim"
	"github.com/Caij/iplayer/internal/health"
	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/looper"
	"github.com/Caij/iplayer/internal/player"
	"github.com/Caij/iplayer/internal/shutter"
	"github.com/Caij/iplayer/internal/source"
	"github.com/Caij/iplayer/internal/telemetry"
)

type playOptions struct {
	headers     []string
	duration    time.Duration
	tick        time.Duration
	speed       float32
	loop        bool
	resize      string
	width       int
	height      int
	metricsAddr string
}

func newPlayCmd(c *cli) *cobra.Command {
	opts := playOptions{}
	cmd := &cobra.Command{
		Use:   "play URL",
		Short: "Play URL on the simulated engine and print player events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.play(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	f := cmd.Flags()
	f.StringArrayVarP(&opts.headers, "header", "H", nil, "request header as name=value (repeatable)")
	f.DurationVar(&opts.duration, "duration", sim.DefaultConfig().Duration, "length of the simulated media")
	f.DurationVar(&opts.tick, "tick", 100*time.Millisecond, "playhead step per wall-clock tick")
	f.Float32Var(&opts.speed, "speed", 1, "playback speed")
	f.BoolVar(&opts.loop, "loop", false, "loop playback until interrupted")
	f.StringVar(&opts.resize, "resize", shutter.ResizeFit.String(), "resize mode: fit, fixed_width, fixed_height, fill, zoom")
	f.IntVar(&opts.width, "width", 1280, "viewport width")
	f.IntVar(&opts.height, "height", 720, "viewport height")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address (overrides config)")
	return cmd
}

func (c *cli) play(ctx context.Context, out io.Writer, uri string, opts playOptions) error {
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return err
	}
	mode, err := shutter.ParseResizeMode(opts.resize)
	if err != nil {
		return err
	}
	if opts.tick <= 0 {
		return fmt.Errorf("tick must be positive, got %s", opts.tick)
	}

	if c.cfg.Telemetry.Enabled {
		tp, err := telemetry.NewProvider(ctx, telemetry.Config{
			Enabled:        true,
			ServiceName:    c.cfg.LogService,
			ServiceVersion: c.cfg.Version,
			Environment:    c.cfg.Telemetry.Environment,
			Exporter:       c.cfg.Telemetry.Exporter,
			Endpoint:       c.cfg.Telemetry.Endpoint,
			SamplingRate:   c.cfg.Telemetry.SamplingRate,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				c.logger.Warn().Err(err).Msg("tracing shutdown")
			}
		}()
	}

	stopWatch := c.watchConfig(ctx)
	defer stopWatch()

	store, closeStore, err := c.openStore()
	if err != nil {
		return err
	}
	defer closeStore()
	resolver := source.NewResolver(source.ConfigFrom(c.cfg.Resolver),
		source.WithStore(store),
		source.WithLogger(xglog.WithComponent("source")),
	)
	defer resolver.Close()

	addr := opts.metricsAddr
	if addr == "" {
		addr = c.cfg.Metrics.ListenAddr
	}
	if addr != "" {
		stop := startMetricsServer(addr, c.healthManager(resolver), c.logger)
		defer stop()
	}

	lp := looper.New()
	defer func() { _ = lp.Close() }()

	simCfg := sim.DefaultConfig()
	simCfg.Duration = opts.duration
	eng := sim.New(simCfg, lp)

	p := player.New(eng,
		player.WithDispatcher(lp),
		player.WithResolver(resolver),
		player.WithLogger(xglog.WithComponent("player")),
		player.WithBufferingInterval(c.cfg.BufferingUpdateInterval),
	)
	defer p.Release()

	frame := shutter.NewFrame(&offscreen{}, mode, opts.width, opts.height)
	binder := shutter.NewBinder(p)
	defer binder.Close()
	if err := binder.Bind(frame); err != nil {
		return err
	}

	session := newPlaySession(out, frame)
	p.Observe(session)

	if err := p.SetDataSource(uri, headers); err != nil {
		return err
	}
	if err := p.SetLooping(opts.loop); err != nil {
		return err
	}
	if err := p.SetSpeed(opts.speed); err != nil {
		return err
	}
	if err := p.PrepareAsync(); err != nil {
		return err
	}

	select {
	case <-session.prepared:
	case err := <-session.failed:
		return err
	case <-ctx.Done():
		return nil
	}
	if err := p.Start(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = eng.Run(runCtx, opts.tick) }()

	select {
	case <-session.completed:
		return nil
	case err := <-session.failed:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (c *cli) healthManager(r *source.Resolver) *health.Manager {
	hm := health.NewManager(c.cfg.Version)
	hm.RegisterChecker(health.NewBreakerChecker("source_probe", r.BreakerState))
	if c.redis != nil {
		hm.RegisterChecker(health.NewPingChecker("redis_cache", 2*time.Second, c.redis.HealthCheck))
	}
	return hm
}

// playSession prints player events and signals the milestones play waits on.
type playSession struct {
	mu    sync.Mutex
	out   io.Writer
	frame *shutter.Frame

	prepared  chan struct{}
	completed chan struct{}
	failed    chan error

	preparedOnce  sync.Once
	completedOnce sync.Once
	failedOnce    sync.Once
}

func newPlaySession(out io.Writer, frame *shutter.Frame) *playSession {
	return &playSession{
		out:       out,
		frame:     frame,
		prepared:  make(chan struct{}),
		completed: make(chan struct{}),
		failed:    make(chan error, 1),
	}
}

func (s *playSession) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}

func (s *playSession) OnPrepared(p *player.Player) {
	s.printf("prepared duration=%s", p.Duration())
	s.preparedOnce.Do(func() { close(s.prepared) })
}

func (s *playSession) OnCompletion(p *player.Player) {
	s.printf("completion position=%s", p.CurrentPosition())
	s.completedOnce.Do(func() { close(s.completed) })
}

func (s *playSession) OnBufferingUpdate(_ *player.Player, percent int) {
	s.printf("buffering %d%%", percent)
}

func (s *playSession) OnSeekComplete(p *player.Player) {
	s.printf("seek_complete position=%s", p.CurrentPosition())
}

func (s *playSession) OnVideoSizeChanged(_ *player.Player, width, height int) {
	w, h := s.frame.Layout()
	s.printf("video_size %dx%d layout=%dx%d", width, height, w, h)
}

func (s *playSession) OnError(_ *player.Player, kind engine.ErrorKind, extra int) bool {
	s.printf("error %s %d", kind, extra)
	s.failedOnce.Do(func() { s.failed <- fmt.Errorf("playback failed: %s (%d)", kind, extra) })
	return true
}

func (s *playSession) OnInfo(_ *player.Player, kind engine.InfoKind, extra int) bool {
	s.printf("info %s %d", kind, extra)
	return true
}
