// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package session

import "errors"

// Local validation failures. These never reach the backend.
var (
	errMismatch       = errors.New("passwords do not match")
	errTooShort       = errors.New("master password must be at least 8 characters")
	errEmptyCandidate = errors.New("master password is empty")
)
