// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"testing"
	"time"

	"github.com/mirekst/vaultik/internal/backend"
)

func TestStoreGateway_AuthFlow(t *testing.T) {
	store := newTestStore(t)
	gw := NewStoreGateway(store)
	ctx := context.Background()

	status, err := gw.CheckAuthStatus(ctx)
	if err != nil {
		t.Fatalf("CheckAuthStatus failed: %v", err)
	}
	if !status.NeedsSetup || status.IsAuthenticated {
		t.Fatalf("fresh vault should need setup, got %+v", status)
	}

	if err := gw.SetupMasterPassword(ctx, "masterpass"); err != nil {
		t.Fatalf("SetupMasterPassword failed: %v", err)
	}
	status, err = gw.CheckAuthStatus(ctx)
	if err != nil {
		t.Fatalf("CheckAuthStatus failed: %v", err)
	}
	if status.NeedsSetup || !status.IsAuthenticated {
		t.Fatalf("setup should authenticate, got %+v", status)
	}

	if err := gw.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	status, err = gw.CheckAuthStatus(ctx)
	if err != nil {
		t.Fatalf("CheckAuthStatus failed: %v", err)
	}
	if status.IsAuthenticated {
		t.Fatalf("logout should end authentication")
	}

	ok, err := gw.Authenticate(ctx, "wrong")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if ok {
		t.Fatalf("wrong password must not authenticate")
	}

	ok, err = gw.Authenticate(ctx, "masterpass")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if !ok {
		t.Fatalf("correct password must authenticate")
	}
}

func TestStoreGateway_CredentialOps(t *testing.T) {
	store := newTestStore(t)
	gw := NewStoreGateway(store)
	ctx := context.Background()

	if err := gw.SetupMasterPassword(ctx, "masterpass"); err != nil {
		t.Fatalf("SetupMasterPassword failed: %v", err)
	}

	notes := "personal"
	err := gw.AddPassword(ctx, backend.AddPasswordInput{
		Title:    "GMail",
		Username: "alice",
		Password: "s3cret",
		Notes:    &notes,
	})
	if err != nil {
		t.Fatalf("AddPassword failed: %v", err)
	}

	records, err := gw.GetPasswords(ctx)
	if err != nil {
		t.Fatalf("GetPasswords failed: %v", err)
	}
	if len(records) != 1 || records[0].Notes != "personal" {
		t.Fatalf("unexpected records: %+v", records)
	}

	secret, err := gw.DecryptPassword(ctx, records[0].ID)
	if err != nil {
		t.Fatalf("DecryptPassword failed: %v", err)
	}
	if secret != "s3cret" {
		t.Errorf("secret = %q, want s3cret", secret)
	}

	if err := gw.DeletePassword(ctx, records[0].ID); err != nil {
		t.Fatalf("DeletePassword failed: %v", err)
	}
}

func TestStoreGateway_ExpiryDropsToken(t *testing.T) {
	store := newTestStore(t)
	gw := NewStoreGateway(store)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }

	if err := gw.SetupMasterPassword(ctx, "masterpass"); err != nil {
		t.Fatalf("SetupMasterPassword failed: %v", err)
	}

	now = now.Add(DefaultSessionTTL + time.Minute)
	_, err := gw.GetPasswords(ctx)
	if !backend.IsSessionExpired(err) {
		t.Fatalf("expected session expiry, got %v", err)
	}

	// After the expiry the status check must report unauthenticated, not
	// keep probing a dead token.
	status, err := gw.CheckAuthStatus(ctx)
	if err != nil {
		t.Fatalf("CheckAuthStatus failed: %v", err)
	}
	if status.IsAuthenticated {
		t.Fatalf("expired session must not report authenticated")
	}
}

func TestStoreGateway_IdleVaultExpiresUnderStatusProbes(t *testing.T) {
	store := newTestStore(t)
	gw := NewStoreGateway(store)
	ctx := context.Background()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.SetSessionTTL(15 * time.Minute)

	if err := gw.SetupMasterPassword(ctx, "masterpass"); err != nil {
		t.Fatalf("SetupMasterPassword failed: %v", err)
	}

	// A liveness poll every 5 minutes on an idle vault: the probes
	// themselves must not extend the session past its 15-minute TTL.
	for i := 0; i < 3; i++ {
		now = now.Add(5 * time.Minute)
		status, err := gw.CheckAuthStatus(ctx)
		if err != nil {
			t.Fatalf("CheckAuthStatus failed: %v", err)
		}
		if !status.IsAuthenticated {
			t.Fatalf("session must still be live at probe %d", i+1)
		}
	}

	now = now.Add(time.Minute)
	status, err := gw.CheckAuthStatus(ctx)
	if err != nil {
		t.Fatalf("CheckAuthStatus failed: %v", err)
	}
	if status.IsAuthenticated {
		t.Fatalf("idle vault must lock once the TTL elapses, probes or not")
	}
}

func TestStoreGateway_NoSessionIsExpired(t *testing.T) {
	store := newTestStore(t)
	gw := NewStoreGateway(store)
	ctx := context.Background()

	if err := gw.SetupMasterPassword(ctx, "masterpass"); err != nil {
		t.Fatalf("SetupMasterPassword failed: %v", err)
	}
	if err := gw.Logout(ctx); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := gw.GetPasswords(ctx); !backend.IsSessionExpired(err) {
		t.Fatalf("operations without a session must report expiry, got %v", err)
	}
}
