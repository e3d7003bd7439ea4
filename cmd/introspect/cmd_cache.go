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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/introspect/services/introspect/cache"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the persistent schema cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the latest cached schema entry for the root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			dir := cfg.CacheDir()
			fmt.Fprintf(out, "Schema cache path: %s\n", dir)

			// Check existence before opening so an empty cache is not an error.
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				fmt.Fprintln(out, "Cache directory does not exist. Run `introspect schema --cache` to populate it.")
				return nil
			}

			store, err := cache.Open(dir, slog.Default())
			if err != nil {
				return err
			}
			defer store.Close()

			data, entry, err := store.Latest(cmd.Context(), cfg.Root)
			if errors.Is(err, cache.ErrNotFound) {
				fmt.Fprintln(out, "No cached schema for this root.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Key:         %s\n", entry.Key)
			fmt.Fprintf(out, "Format:      %s\n", entry.Format)
			fmt.Fprintf(out, "Objects:     %d\n", entry.Objects)
			fmt.Fprintf(out, "Warnings:    %d\n", len(entry.Warnings))
			fmt.Fprintf(out, "Created:     %s\n", time.UnixMilli(entry.CreatedAtMilli).UTC().Format(time.RFC3339))
			fmt.Fprintf(out, "Size:        %d bytes (%d compressed)\n", len(data), entry.CompressedSize)
			fmt.Fprintf(out, "ContentHash: %s\n", entry.ContentHash)
			return nil
		},
	})
	return cmd
}
