// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mirekst/vaultik/internal/backend"
)

func newTestStore(t *testing.T) *bunStore {
	t.Helper()
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	store, err := Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store.(*bunStore)
}

func TestOpen_MigrationsApplied(t *testing.T) {
	dsn := "file:test_" + t.Name() + "?mode=memory&cache=shared"
	store, err := Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("failed to open sql.DB for inspection: %v", err)
	}
	defer func() { _ = sqlDB.Close() }()

	for _, table := range []string{"vault_meta", "credentials", "sessions", "schema_migrations"} {
		var name string
		err := sqlDB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s after migrations: %v", table, err)
		}
	}
}

func TestSetupMaster_ThenVerify(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	needs, err := store.NeedsSetup(ctx)
	if err != nil {
		t.Fatalf("NeedsSetup failed: %v", err)
	}
	if !needs {
		t.Fatalf("fresh store should need setup")
	}

	token, err := store.SetupMaster(ctx, "correct horse battery")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}
	if token == "" {
		t.Fatalf("SetupMaster returned empty token")
	}

	needs, err = store.NeedsSetup(ctx)
	if err != nil {
		t.Fatalf("NeedsSetup failed: %v", err)
	}
	if needs {
		t.Fatalf("store should not need setup after SetupMaster")
	}

	// A second setup attempt must be rejected.
	if _, err := store.SetupMaster(ctx, "other"); err == nil {
		t.Fatalf("expected error on duplicate setup")
	}

	ok, _, err := store.VerifyMaster(ctx, "wrong password")
	if err != nil {
		t.Fatalf("VerifyMaster failed: %v", err)
	}
	if ok {
		t.Fatalf("wrong master password must not verify")
	}

	ok, token2, err := store.VerifyMaster(ctx, "correct horse battery")
	if err != nil {
		t.Fatalf("VerifyMaster failed: %v", err)
	}
	if !ok || token2 == "" {
		t.Fatalf("correct master password must verify with a token")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.SetupMaster(ctx, "masterpass")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}

	category := "email"
	if err := store.AddCredential(ctx, token, "GMail", "alice", "s3cret", &category, nil); err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}
	if err := store.AddCredential(ctx, token, "Bank", "alice", "hunter2", nil, nil); err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}

	records, err := store.ListCredentials(ctx, token)
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Title != "GMail" || records[0].Category != "email" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].Title != "Bank" || records[1].Category != "" {
		t.Errorf("unexpected second record: %+v", records[1])
	}

	secret, err := store.DecryptCredential(ctx, token, records[0].ID)
	if err != nil {
		t.Fatalf("DecryptCredential failed: %v", err)
	}
	if secret != "s3cret" {
		t.Errorf("decrypted secret = %q, want s3cret", secret)
	}

	if err := store.DeleteCredential(ctx, token, records[0].ID); err != nil {
		t.Fatalf("DeleteCredential failed: %v", err)
	}
	if err := store.DeleteCredential(ctx, token, records[0].ID); !errors.Is(err, errRecordNotFound) {
		t.Errorf("double delete should report record not found, got %v", err)
	}

	records, err = store.ListCredentials(ctx, token)
	if err != nil {
		t.Fatalf("ListCredentials failed: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Bank" {
		t.Fatalf("expected only Bank to remain, got %+v", records)
	}
}

func TestSecretsAreEncryptedAtRest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.SetupMaster(ctx, "masterpass")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}
	if err := store.AddCredential(ctx, token, "Site", "bob", "plain-secret", nil, nil); err != nil {
		t.Fatalf("AddCredential failed: %v", err)
	}

	var stored string
	err = store.bun.NewSelect().Model((*CredentialModel)(nil)).
		Column("encrypted_secret").
		Limit(1).
		Scan(ctx, &stored)
	if err != nil {
		t.Fatalf("failed to read raw row: %v", err)
	}
	if stored == "" || stored == "plain-secret" {
		t.Fatalf("secret must not be stored in plaintext, got %q", stored)
	}
}

func TestSessionExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.SetSessionTTL(15 * time.Minute)

	token, err := store.SetupMaster(ctx, "masterpass")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}

	valid, err := store.SessionValid(ctx, token)
	if err != nil {
		t.Fatalf("SessionValid failed: %v", err)
	}
	if !valid {
		t.Fatalf("fresh session should be valid")
	}

	// Activity within the TTL extends the idle deadline.
	now = now.Add(10 * time.Minute)
	if err := store.AddCredential(ctx, token, "Site", "bob", "pw", nil, nil); err != nil {
		t.Fatalf("AddCredential within TTL failed: %v", err)
	}
	now = now.Add(10 * time.Minute)
	if _, err := store.ListCredentials(ctx, token); err != nil {
		t.Fatalf("ListCredentials within refreshed TTL failed: %v", err)
	}

	// Beyond the idle deadline every scoped operation reports expiry.
	now = now.Add(16 * time.Minute)
	_, err = store.ListCredentials(ctx, token)
	if !backend.IsSessionExpired(err) {
		t.Fatalf("expected session expiry, got %v", err)
	}

	valid, err = store.SessionValid(ctx, token)
	if err != nil {
		t.Fatalf("SessionValid failed: %v", err)
	}
	if valid {
		t.Fatalf("expired session must not be valid")
	}
}

func TestStatusProbeDoesNotRefreshTTL(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.SetSessionTTL(15 * time.Minute)

	token, err := store.SetupMaster(ctx, "masterpass")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}

	// Repeated validity checks on an otherwise idle session must not count
	// as activity: probe at 5, 10 and 15 minutes, then cross the deadline.
	for i := 0; i < 3; i++ {
		now = now.Add(5 * time.Minute)
		valid, err := store.SessionValid(ctx, token)
		if err != nil {
			t.Fatalf("SessionValid failed: %v", err)
		}
		if !valid {
			t.Fatalf("session must still be live at probe %d", i+1)
		}
	}

	now = now.Add(time.Minute)
	valid, err := store.SessionValid(ctx, token)
	if err != nil {
		t.Fatalf("SessionValid failed: %v", err)
	}
	if valid {
		t.Fatalf("idle session must expire despite intervening status probes")
	}
}

func TestEndSession_DropsKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	token, err := store.SetupMaster(ctx, "masterpass")
	if err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}
	if err := store.EndSession(ctx, token); err != nil {
		t.Fatalf("EndSession failed: %v", err)
	}

	if _, err := store.ListCredentials(ctx, token); !backend.IsSessionExpired(err) {
		t.Fatalf("expected session expiry after logout, got %v", err)
	}
	store.mu.Lock()
	hasKey := store.aead != nil
	store.mu.Unlock()
	if hasKey {
		t.Fatalf("derived key must be dropped on logout")
	}
}

func TestUnknownTokenIsExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SetupMaster(ctx, "masterpass"); err != nil {
		t.Fatalf("SetupMaster failed: %v", err)
	}
	if _, err := store.ListCredentials(ctx, "no-such-token"); !backend.IsSessionExpired(err) {
		t.Fatalf("expected session expiry for unknown token, got %v", err)
	}
}

func TestMapDBError(t *testing.T) {
	if MapDBError(nil) != nil {
		t.Fatalf("nil should map to nil")
	}
	if got := MapDBError(errors.New("UNIQUE constraint failed: vault_meta.id")); !errors.Is(got, ErrDuplicate) {
		t.Errorf("unique violation should map to ErrDuplicate, got %v", got)
	}
	plain := errors.New("disk I/O error")
	if got := MapDBError(plain); got != plain {
		t.Errorf("unrelated errors must pass through, got %v", got)
	}
}
