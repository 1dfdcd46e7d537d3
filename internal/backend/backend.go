// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package backend defines the gateway contract to the secure storage layer.
// It abstracts the encrypted store behind an interface so the session
// controller and the credential cache never talk to a database directly,
// and so tests can swap in an in-memory mock at construction time.
package backend

import (
	"context"

	"github.com/mirekst/vaultik/internal/model"
)

// AddPasswordInput carries the fields for a new credential record.
// Category and Notes are optional; nil means absent.
type AddPasswordInput struct {
	Title    string
	Username string
	Password string
	Category *string
	Notes    *string
}

// Gateway is the contract every secure backend must satisfy. All operations
// may fail; operations scoped to a session report expiry through a typed
// *Error with KindSessionExpired (see errors.go).
type Gateway interface {
	// CheckAuthStatus reports whether a master credential exists and whether
	// the current session is still valid.
	CheckAuthStatus(ctx context.Context) (model.AuthStatus, error)

	// SetupMasterPassword establishes the master credential on first run and
	// opens a session.
	SetupMasterPassword(ctx context.Context, master string) error

	// Authenticate verifies the candidate master credential. A false result
	// with a nil error means the credential did not match; an error means the
	// verification itself failed.
	Authenticate(ctx context.Context, master string) (bool, error)

	// Logout invalidates the current session. Callers treat the outcome as
	// advisory; local lockdown does not depend on it.
	Logout(ctx context.Context) error

	// GetPasswords returns all credential records, without secret values,
	// in backend order.
	GetPasswords(ctx context.Context) ([]model.CredentialRecord, error)

	// AddPassword stores a new encrypted credential record.
	AddPassword(ctx context.Context, in AddPasswordInput) error

	// DecryptPassword returns the plaintext secret for one record. The value
	// is transient; callers must not retain it.
	DecryptPassword(ctx context.Context, id int64) (string, error)

	// DeletePassword removes one record permanently.
	DeletePassword(ctx context.Context, id int64) error
}
