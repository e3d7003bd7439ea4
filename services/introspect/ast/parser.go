// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"golang.org/x/sync/errgroup"
)

// ParserOption configures a Parser instance.
type ParserOption func(*Parser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Example:
//
//	parser := NewParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) ParserOption {
	return func(p *Parser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(p *Parser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithConcurrency bounds the number of files parsed in parallel by ParseFiles.
func WithConcurrency(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// Parser turns TypeScript source into a File.
//
// Description:
//
//	Parser uses tree-sitter to build the syntax tree the introspector walks.
//	Each Parse call creates its own tree-sitter parser instance internally,
//	so a single Parser may be shared between goroutines.
//
// Thread Safety:
//
//	Parser instances are safe for concurrent use.
type Parser struct {
	maxFileSize int64
	concurrency int
	logger      *slog.Logger
}

// NewParser creates a new Parser with the given options.
//
// Example:
//
//	parser := NewParser(WithMaxFileSize(5 * 1024 * 1024))
func NewParser(opts ...ParserOption) *Parser {
	p := &Parser{
		maxFileSize: DefaultMaxFileSize,
		concurrency: 4,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse builds a File from TypeScript source code.
//
// Description:
//
//	Validates the content, picks the TSX grammar for .tsx files and the
//	TypeScript grammar otherwise, and parses it. The returned File owns the
//	tree-sitter tree; callers must Close it when every node obtained from it
//	is no longer needed.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw TypeScript source. Must be valid UTF-8.
//   - filePath: Path used in locations and diagnostics.
//
// Outputs:
//   - *File: The parsed file. Never nil on success.
//   - error: ErrFileTooLarge, ErrInvalidContent, or a context error.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *Parser) Parse(ctx context.Context, content []byte, filePath string) (*File, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("%w: %s size %d exceeds limit %d", ErrFileTooLarge, filePath, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrInvalidContent, filePath)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	defer parser.Close()
	if strings.HasSuffix(filePath, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filePath, err)
	}

	if err := ctx.Err(); err != nil {
		tree.Close()
		recordParseMetrics(time.Since(start), false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	file := &File{
		Path:    filePath,
		Content: content,
		Hash:    hex.EncodeToString(hash[:]),
		tree:    tree,
		root:    tree.RootNode(),
	}

	if file.root != nil && file.root.HasError() {
		p.logger.Warn("source contains syntax errors", slog.String("file", filePath))
	}

	setParseSpanResult(span, file.root != nil && file.root.HasError())
	recordParseMetrics(time.Since(start), true)

	return file, nil
}

// ParseFile reads and parses a file from disk.
func (p *Parser) ParseFile(ctx context.Context, path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return p.Parse(ctx, content, path)
}

// ParseFiles parses every path in parallel.
//
// Description:
//
//	Files are parsed concurrently (bounded by WithConcurrency) but returned
//	in the order of paths so downstream declaration order is stable. On the
//	first error every file already parsed is closed and the error returned.
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *Parser) ParseFiles(ctx context.Context, paths []string) ([]*File, error) {
	files := make([]*File, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			f, err := p.ParseFile(gctx, path)
			if err != nil {
				return err
			}
			files[i] = f
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		CloseAll(files)
		return nil, err
	}
	return files, nil
}

// CloseAll closes every non-nil file.
func CloseAll(files []*File) {
	for _, f := range files {
		if f != nil {
			f.Close()
		}
	}
}
