// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command iplayer resolves media sources and plays them on the simulated
// engine.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	xglog "github.com/Caij/iplayer/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger := xglog.WithComponent("cli")
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "cli.failed").
			Msg("command failed")
		stop()
		os.Exit(1)
	}
}
