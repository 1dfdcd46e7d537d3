// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package model defines the shared data types that cross package boundaries
// in Vaultik: the credential record shape exposed to the UI and the
// authentication status reported by the secure backend.
package model

import "fmt"

// CredentialRecord is one stored vault entry as it is visible to the UI.
// It deliberately carries no secret material: the plaintext password is
// fetched on demand through the backend and is never part of this struct.
type CredentialRecord struct {
	ID       int64
	Title    string
	Username string
	Category string // empty means no category
	Notes    string // empty means no notes
}

// String returns the title@username representation used in log output.
func (r CredentialRecord) String() string {
	return fmt.Sprintf("%s (%s)", r.Title, r.Username)
}

// AuthStatus is the backend's answer to a status probe.
type AuthStatus struct {
	IsAuthenticated bool
	NeedsSetup      bool
}
