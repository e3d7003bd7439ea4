// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and validates introspection settings.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/introspect/services/introspect/module"
	"github.com/AleutianAI/introspect/services/introspect/scanner"
)

// FileName is the configuration file looked up in the source root.
const FileName = ".introspect.yaml"

// MaxYAMLFileSize bounds the configuration file size (1MB).
const MaxYAMLFileSize = 1 << 20

//go:embed default.yaml
var defaultYAML []byte

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config holds every introspection setting.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	// Root is the directory sources are discovered under.
	Root string `yaml:"root" validate:"required"`

	// Include lists doublestar globs, relative to Root, of files to scan.
	Include []string `yaml:"include" validate:"min=1,dive,required"`

	// Exclude lists doublestar globs removed from the Include matches.
	Exclude []string `yaml:"exclude" validate:"dive,required"`

	// Markers are the decorator names that expose declarations.
	Markers scanner.Markers `yaml:"markers"`

	// Scalars maps extra type names onto scalar kinds, on top of the built-in aliases.
	// Example: {"int": "Integer", "ID": "String"}
	Scalars map[string]string `yaml:"scalars" validate:"dive,keys,required,endkeys,oneof=String Integer Float Boolean Void"`

	// StrictDuplicates makes member name collisions fatal.
	StrictDuplicates bool `yaml:"strict_duplicates"`

	// MaxFileSize is the largest source file parsed, in bytes.
	MaxFileSize int `yaml:"max_file_size" validate:"gt=0"`

	// Concurrency bounds parallel file parsing.
	Concurrency int `yaml:"concurrency" validate:"gte=1,lte=64"`

	Output OutputConfig `yaml:"output"`
	Cache  CacheConfig  `yaml:"cache"`
	Watch  WatchConfig  `yaml:"watch"`
}

// OutputConfig controls schema rendering.
type OutputConfig struct {
	// Format is "json" or "yaml".
	Format string `yaml:"format" validate:"oneof=json yaml"`

	// Indent pretty-prints JSON output.
	Indent bool `yaml:"indent"`

	// IndentSet is true when indent was given explicitly rather than defaulted.
	IndentSet bool `yaml:"-"`

	// Path is the output file. Empty writes to stdout.
	Path string `yaml:"path"`
}

// CacheConfig controls the persistent schema cache and the in-process parse cache.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`

	// Dir is the BadgerDB directory, relative to Root unless absolute.
	Dir string `yaml:"dir" validate:"required_if=Enabled true"`

	// ParseCacheSize is the number of parsed files kept in memory between builds.
	ParseCacheSize int `yaml:"parse_cache_size" validate:"gte=1"`
}

// WatchConfig controls the rebuild-on-change loop.
type WatchConfig struct {
	// Debounce is how long to wait for further changes before rebuilding.
	Debounce time.Duration `yaml:"debounce" validate:"gte=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		panic(fmt.Sprintf("config: embedded default.yaml is invalid: %v", err))
	}
	return &cfg
}

// Load parses YAML on top of the defaults and validates the result.
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - Raw YAML. Empty data yields the defaults.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Non-nil if parsing or validation fails.
func Load(ctx context.Context, data []byte) (*Config, error) {
	_, span := otel.Tracer("introspect.config").Start(ctx, "config.Load")
	defer span.End()

	if len(data) > MaxYAMLFileSize {
		return nil, fmt.Errorf("config: YAML data exceeds maximum size (%d > %d)", len(data), MaxYAMLFileSize)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing YAML: %w", err)
	}
	var explicit struct {
		Output struct {
			Indent *bool `yaml:"indent"`
		} `yaml:"output"`
	}
	if err := yaml.Unmarshal(data, &explicit); err == nil {
		cfg.Output.IndentSet = explicit.Output.Indent != nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("include", len(cfg.Include)),
		attribute.Int("exclude", len(cfg.Exclude)),
		attribute.Bool("strict_duplicates", cfg.StrictDuplicates),
	)
	return cfg, nil
}

// LoadFile loads FileName from root. A missing file yields the defaults rooted at root.
func LoadFile(ctx context.Context, root string) (*Config, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !filepath.IsAbs(cfg.Root) {
		cfg.Root = filepath.Join(root, cfg.Root)
	}
	if data != nil {
		slog.Debug("config loaded", slog.String("path", path))
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: validation: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: validation: %w", err)
	}
	return nil
}

// ScalarKinds returns the built-in scalar aliases overlaid with the configured ones.
func (c *Config) ScalarKinds() map[string]scanner.TypeKind {
	out := module.DefaultScalars()
	for name, kind := range c.Scalars {
		out[name] = scanner.TypeKind(kind)
	}
	return out
}

// CacheDir returns the absolute cache directory.
func (c *Config) CacheDir() string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	return filepath.Join(c.Root, c.Cache.Dir)
}

// Fingerprint renders every setting that affects the output, for cache keys.
func (c *Config) Fingerprint() string {
	names := make([]string, 0, len(c.Scalars))
	for name := range c.Scalars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "markers=%s,%s,%s;", c.Markers.Object, c.Markers.Function, c.Markers.Field)
	for _, name := range names {
		fmt.Fprintf(&b, "scalar=%s:%s;", name, c.Scalars[name])
	}
	fmt.Fprintf(&b, "strict=%t;format=%s;indent=%t", c.StrictDuplicates, c.Output.Format, c.Output.Indent)
	return b.String()
}
