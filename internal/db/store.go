// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"time"

	"github.com/mirekst/vaultik/internal/model"
)

// ExportRecord is one credential row as written to a backup dump. The
// secret is the sealed base64(nonce||ciphertext) value straight from the
// table, never plaintext.
type ExportRecord struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Username        string    `json:"username"`
	EncryptedSecret string    `json:"encrypted_secret"`
	Category        string    `json:"category,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// Store defines the interface for all storage operations in Vaultik.
// Session-scoped methods take the session token issued by SetupMaster or
// VerifyMaster; calling one with a stale or unknown token fails with
// backend.ErrSessionExpired.
type Store interface {
	// NeedsSetup reports whether no master credential has ever been set.
	NeedsSetup(ctx context.Context) (bool, error)

	// SetupMaster establishes the master credential and opens a session.
	SetupMaster(ctx context.Context, master string) (token string, err error)

	// VerifyMaster checks the candidate against the stored verifier. A false
	// result with a nil error means the credential did not match.
	VerifyMaster(ctx context.Context, master string) (ok bool, token string, err error)

	// SessionValid reports whether the token still identifies a live session.
	// It never refreshes the idle deadline; only scoped operations count as
	// activity, so a background status probe cannot keep an idle session
	// alive forever.
	SessionValid(ctx context.Context, token string) (bool, error)

	// EndSession invalidates the token and drops the derived key material.
	EndSession(ctx context.Context, token string) error

	// SetSessionTTL overrides the idle session lifetime. Non-positive
	// values are ignored.
	SetSessionTTL(d time.Duration)

	// ListCredentials returns all records, without secrets, in insertion order.
	ListCredentials(ctx context.Context, token string) ([]model.CredentialRecord, error)

	// AddCredential encrypts secret and stores a new record. Nil category
	// and notes mean absent.
	AddCredential(ctx context.Context, token, title, username, secret string, category, notes *string) error

	// DecryptCredential returns the plaintext secret of one record and
	// stamps its last_accessed time.
	DecryptCredential(ctx context.Context, token string, id int64) (string, error)

	// DeleteCredential removes one record permanently.
	DeleteCredential(ctx context.Context, token string, id int64) error

	// ExportCredentials returns every record including its sealed secret,
	// for backup dumps. Secrets stay encrypted; nothing is decrypted here.
	ExportCredentials(ctx context.Context, token string) ([]ExportRecord, error)

	// Close releases the underlying database handle.
	Close() error
}
