// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// introspect extracts the exposed API schema of a TypeScript module.
//
// Usage:
//
//	introspect schema [--root DIR] [--format json|yaml] [--out FILE]
//	introspect check  [--root DIR] [--strict]
//	introspect watch  [--root DIR] [--out FILE]
//	introspect cache show [--root DIR]
//
// Settings come from DIR/.introspect.yaml; flags override them.
//
// Exit codes:
//
//	0  success
//	1  introspection or I/O error
//	2  check --fail-on-warning found warnings
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/AleutianAI/introspect/services/introspect/config"
)

// Persistent flag values.
var (
	rootDir     string
	logLevel    string
	logFormat   string
	traceOutput bool
	strictFlag  bool
	formatFlag  string
	outFlag     string
	cacheFlag   bool
	indentFlag  bool
)

// errWarnings makes check exit with status 2.
var errWarnings = errors.New("warnings reported")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCommand().ExecuteContext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, errWarnings):
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var shutdown func(context.Context) error

	root := &cobra.Command{
		Use:           "introspect",
		Short:         "Extract the exposed API schema of a TypeScript module",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(logLevel, logFormat)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			if traceOutput {
				shutdown, err = setupTracing()
				if err != nil {
					return err
				}
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if shutdown != nil {
				return shutdown(cmd.Context())
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rootDir, "root", ".", "Source root containing .introspect.yaml")
	pf.StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	pf.BoolVar(&traceOutput, "trace", false, "Print OpenTelemetry spans to stderr")
	pf.BoolVar(&strictFlag, "strict", false, "Treat duplicate member names as errors")

	root.AddCommand(
		newSchemaCommand(),
		newCheckCommand(),
		newWatchCommand(),
		newCacheCommand(),
	)
	return root
}

// loadConfig reads the root's config file and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(cmd.Context(), rootDir)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("strict") {
		cfg.StrictDuplicates = strictFlag
	}
	if flags.Lookup("format") != nil && flags.Changed("format") {
		cfg.Output.Format = formatFlag
	}
	if flags.Lookup("out") != nil && flags.Changed("out") {
		cfg.Output.Path = outFlag
	}
	if flags.Lookup("cache") != nil && flags.Changed("cache") {
		cfg.Cache.Enabled = cacheFlag
	}
	if flags.Lookup("indent") != nil && flags.Changed("indent") {
		cfg.Output.Indent = indentFlag
		cfg.Output.IndentSet = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q", format)
	}
}

func setupTracing() (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
