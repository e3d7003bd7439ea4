// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/introspect/services/introspect"
	"github.com/AleutianAI/introspect/services/introspect/watch"
)

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the schema whenever a source file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			svc, err := introspect.New(cfg, introspect.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			defer svc.Close()

			rebuild := func(ctx context.Context) {
				res, err := svc.Run(ctx)
				if err != nil {
					slog.Error("rebuild failed", slog.String("error", err.Error()))
					return
				}
				reportWarnings(cmd.ErrOrStderr(), res)
				if err := writeOutput(cfg, cmd.OutOrStdout(), res.Output); err != nil {
					slog.Error("writing schema failed", slog.String("error", err.Error()))
					return
				}
				slog.Info("schema rebuilt",
					slog.Int("files", res.Files),
					slog.Bool("cached", res.Cached),
					slog.Duration("duration", res.Duration),
				)
			}

			w, err := watch.New(cfg.Root, cfg.Matches, cfg.Watch.Debounce, slog.Default())
			if err != nil {
				return err
			}

			rebuild(cmd.Context())
			return w.Run(cmd.Context(), func(ctx context.Context, changed []string) {
				slog.Debug("sources changed", slog.Any("paths", changed))
				rebuild(ctx)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}
