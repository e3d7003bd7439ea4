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
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/introspect/services/introspect"
)

func newCheckCommand() *cobra.Command {
	var failOnWarning bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Build and resolve the module without printing the schema",
		Long: `Build and resolve the module, then report diagnostics.

Fatal errors (unnamed or unexposed classes, unresolvable types) exit 1.
With --fail-on-warning, warnings (missing exports, duplicate members) exit 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Cache.Enabled = false

			svc, err := introspect.New(cfg, introspect.WithLogger(slog.Default()))
			if err != nil {
				return err
			}
			defer svc.Close()

			res, err := svc.Run(cmd.Context())
			if err != nil {
				return err
			}
			reportWarnings(cmd.ErrOrStderr(), res)
			fmt.Fprintf(cmd.OutOrStdout(), "%d objects, %d enums from %d files, %d warnings\n",
				len(res.Module.Objects()), len(res.Module.Enums()), res.Files, len(res.Warnings))

			if failOnWarning && len(res.Warnings) > 0 {
				return errWarnings
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "Exit with status 2 when warnings are reported")
	return cmd
}
