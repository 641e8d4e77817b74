// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Caij/iplayer/internal/cache"
	"github.com/Caij/iplayer/internal/config"
	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/version"
)

// cli holds state shared by the subcommands once the root has run.
type cli struct {
	configPath string
	logLevel   string

	loader *config.Loader
	cfg    config.AppConfig
	logger zerolog.Logger
	// redis is set by openStore when the redis backend is in use.
	redis *cache.RedisStore
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "iplayer",
		Short:         "Resolve and play media sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(newResolveCmd(c), newPlayCmd(c), newVersionCmd())
	return root
}

func (c *cli) load(cmd *cobra.Command) error {
	xglog.Configure(xglog.Config{
		Level:   "info",
		Output:  cmd.ErrOrStderr(),
		Service: "iplayer",
		Version: version.Version,
	})

	c.loader = config.NewLoader(strings.TrimSpace(c.configPath), version.Version).
		OverrideLogLevel(strings.TrimSpace(c.logLevel))
	cfg, err := c.loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	c.cfg = cfg

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  cmd.ErrOrStderr(),
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	c.logger = xglog.WithComponent("cli")
	c.logger.Debug().
		Str(xglog.FieldEvent, "config.loaded").
		Str("path", c.configPath).
		Msg("configuration loaded")
	return nil
}

// watchConfig reloads the config file on change until ctx is done or the
// returned stop function runs. Reloads apply the log level live; other
// settings take effect on the next command. Without a config file it does
// nothing.
func (c *cli) watchConfig(ctx context.Context) func() {
	if c.loader == nil || c.loader.Path() == "" {
		return func() {}
	}
	holder := config.NewHolder(c.cfg, c.loader)
	if err := holder.StartWatcher(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("config watcher disabled")
		return func() {}
	}
	return holder.Stop
}

// openStore returns the resolved-URL cache for the configured backend and a
// function releasing it.
func (c *cli) openStore() (cache.Store, func(), error) {
	cc := c.cfg.Cache
	if cc.Backend != config.CacheBackendRedis {
		return cache.Shared(), func() {}, nil
	}
	redisStore, err := cache.NewRedisStore(cache.RedisConfig{
		Addr:     cc.RedisAddr,
		Password: cc.RedisPassword,
		DB:       cc.RedisDB,
		Key:      cc.RedisKey,
	}, xglog.WithComponent("cache"))
	if err != nil {
		return nil, nil, fmt.Errorf("open redis cache: %w", err)
	}
	c.redis = redisStore
	closeFn := func() {
		if err := redisStore.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("closing redis cache")
		}
	}
	return cache.NewTiered(cache.Shared(), redisStore), closeFn, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}

// parseHeaders turns repeated k=v flags into a header map.
func parseHeaders(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q: want name=value", pair)
		}
		headers[k] = strings.TrimSpace(v)
	}
	return headers, nil
}
