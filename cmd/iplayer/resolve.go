// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	xglog "github.com/Caij/iplayer/internal/log"
	"github.com/Caij/iplayer/internal/media"
	netx "github.com/Caij/iplayer/internal/platform/net"
	"github.com/Caij/iplayer/internal/source"
)

type resolveOutput struct {
	media.Source
	Location string `json:"location"`
}

func newResolveCmd(c *cli) *cobra.Command {
	var (
		headerFlags []string
		timeout     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "resolve URL",
		Short: "Resolve a URL to a typed media source",
		Long: `Resolve classifies URL by extension, consults the resolved-URL cache and
otherwise follows redirects to find the final location. The result is
printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, err := parseHeaders(headerFlags)
			if err != nil {
				return err
			}
			store, closeStore, err := c.openStore()
			if err != nil {
				return err
			}
			defer closeStore()

			r := source.NewResolver(source.ConfigFrom(c.cfg.Resolver),
				source.WithStore(store),
				source.WithLogger(xglog.WithComponent("source")),
			)
			defer r.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			src, err := r.Resolve(ctx, args[0], headers)
			if err != nil {
				c.logger.Warn().
					Err(err).
					Str(xglog.FieldURL, netx.SanitizeURL(args[0])).
					Msg("probe failed, using default source")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resolveOutput{Source: src, Location: src.Location()})
		},
	}
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "request header as name=value (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall resolution deadline")
	return cmd
}
