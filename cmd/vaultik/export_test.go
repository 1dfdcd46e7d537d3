// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	_ "modernc.org/sqlite"

	"github.com/mirekst/vaultik/internal/db"
)

func TestExportRoundTripsWithoutPlaintext(t *testing.T) {
	const plaintext = "hunter2-super-secret"

	store, err := db.Open("sqlite", "file:test_"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()
	ctx := context.Background()

	token, err := store.SetupMaster(ctx, "masterpass")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}
	category := "mail"
	if err := store.AddCredential(ctx, token, "GMail", "alice", plaintext, &category, nil); err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}

	records, err := store.ExportCredentials(ctx, token)
	if err != nil {
		t.Fatalf("ExportCredentials failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("exported %d records, want 1", len(records))
	}
	if records[0].EncryptedSecret == "" || strings.Contains(records[0].EncryptedSecret, plaintext) {
		t.Fatalf("export must carry the sealed blob, got %q", records[0].EncryptedSecret)
	}

	doc := exportDocument{
		ExportedAt: time.Now().UTC(),
		Database:   "sqlite",
		Records:    records,
	}
	path := filepath.Join(t.TempDir(), "backup.json.gz")
	if err := writeExport(path, doc); err != nil {
		t.Fatalf("writeExport failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export failed: %v", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("export is not valid gzip: %v", err)
	}
	raw, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("read export failed: %v", err)
	}

	if bytes.Contains(raw, []byte(plaintext)) {
		t.Fatalf("export contains the plaintext secret")
	}

	var got exportDocument
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(got.Records) != 1 {
		t.Fatalf("round-tripped %d records, want 1", len(got.Records))
	}
	rec := got.Records[0]
	if rec.Title != "GMail" || rec.Username != "alice" || rec.Category != "mail" {
		t.Errorf("round-trip mangled metadata: %+v", rec)
	}
	if rec.EncryptedSecret != records[0].EncryptedSecret {
		t.Errorf("round-trip mangled the sealed blob")
	}
}
