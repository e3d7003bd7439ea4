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
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/introspect/services/introspect"
	"github.com/AleutianAI/introspect/services/introspect/config"
)

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&formatFlag, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the schema to this file instead of stdout")
	cmd.Flags().BoolVar(&cacheFlag, "cache", false, "Serve and store schemas in the persistent cache")
	cmd.Flags().BoolVar(&indentFlag, "indent", true, "Pretty-print JSON output")
}

// compactWhenPiped turns off indentation for stdout that is not a terminal,
// unless indent was set explicitly by flag or config file.
func compactWhenPiped(cfg *config.Config, terminal bool) {
	if cfg.Output.Path == "" && !terminal && !cfg.Output.IndentSet {
		cfg.Output.Indent = false
	}
}

func newSchemaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the schema of the exposed objects",
		Args:  cobra.NoArgs,
		RunE:  runSchemaCommand,
	}
	addOutputFlags(cmd)
	return cmd
}

func runSchemaCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	compactWhenPiped(cfg, isatty.IsTerminal(os.Stdout.Fd()))

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
	return writeOutput(cfg, cmd.OutOrStdout(), res.Output)
}

// writeOutput writes to cfg.Output.Path, or to stdout when unset.
func writeOutput(cfg *config.Config, stdout io.Writer, data []byte) error {
	if cfg.Output.Path == "" {
		if _, err := stdout.Write(data); err != nil {
			return err
		}
		if len(data) > 0 && data[len(data)-1] != '\n' {
			_, err := io.WriteString(stdout, "\n")
			return err
		}
		return nil
	}

	path := cfg.Output.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(cfg.Root, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing schema: %w", err)
	}
	slog.Info("schema written", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

func reportWarnings(w io.Writer, res *introspect.Result) {
	for _, warning := range res.Warnings {
		fmt.Fprintln(w, warning.String())
	}
}
