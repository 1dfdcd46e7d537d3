// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/cobra"

	"github.com/mirekst/vaultik/internal/db"
)

// exportDocument is the on-disk layout of a vault backup. Secrets are
// included in their sealed form only; without the master-derived key the
// blobs are opaque.
type exportDocument struct {
	ExportedAt time.Time         `json:"exported_at"`
	Database   string            `json:"database"`
	Records    []db.ExportRecord `json:"records"`
}

// writeExport writes doc as gzip-compressed indented JSON at path. The file
// is created 0600; it holds ciphertext, not plaintext, but there is no
// reason to share it.
func writeExport(path string, doc exportDocument) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	enc := json.NewEncoder(gz)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		gz.Close()
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finalize export: %w", err)
	}
	return nil
}

// newExportCmd writes a gzip-compressed JSON backup of the vault after
// verifying the master password.
func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a compressed backup of stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := db.Open(cfg.DB.Type, cfg.DB.DSN)
			if err != nil {
				return fmt.Errorf("failed to open vault database: %w", err)
			}
			defer store.Close()

			master, err := promptPassword("Master password: ")
			if err != nil {
				return err
			}
			ok, token, err := store.VerifyMaster(cmd.Context(), master)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("master password mismatch")
			}
			defer store.EndSession(cmd.Context(), token)

			records, err := store.ExportCredentials(cmd.Context(), token)
			if err != nil {
				return fmt.Errorf("failed to export credentials: %w", err)
			}

			doc := exportDocument{
				ExportedAt: time.Now().UTC(),
				Database:   cfg.DB.Type,
				Records:    records,
			}
			if err := writeExport(output, doc); err != nil {
				return err
			}

			fmt.Printf("exported %d records to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "vaultik-export.json.gz", "output file path")
	return cmd
}
