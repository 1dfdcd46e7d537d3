// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// Package backend error taxonomy. Every failure leaving a gateway is
// classified exactly once, at this boundary, into one of three kinds.
// Downstream code switches on Kind and never re-parses error text.
package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Kind partitions gateway failures.
type Kind int

const (
	// KindBackend is any storage or transport failure with no special handling.
	KindBackend Kind = iota
	// KindValidation is a local precondition violation that never reached
	// the backend.
	KindValidation
	// KindSessionExpired means the backend declared the session invalid and
	// the caller must re-authenticate.
	KindSessionExpired
)

// sessionExpiredMarker is the literal used by backends that only speak
// free-text errors. It is matched here, once, and nowhere else.
const sessionExpiredMarker = "Session expired"

// ErrSessionExpired is the sentinel a well-behaved store returns when a
// session token is stale or unknown.
var ErrSessionExpired = errors.New(sessionExpiredMarker)

// Error is a classified gateway failure.
type Error struct {
	Kind Kind
	Op   string // gateway operation, e.g. "get_passwords"
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify wraps err into an *Error for op. Session expiry is detected via
// the ErrSessionExpired sentinel, falling back to the literal marker for
// backends that only surface strings. A nil err classifies to nil.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		// Already classified at a lower boundary; keep the original kind.
		return err
	}
	kind := KindBackend
	if errors.Is(err, ErrSessionExpired) || strings.Contains(err.Error(), sessionExpiredMarker) {
		kind = KindSessionExpired
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NewValidation returns a validation error for op that never reached the
// backend.
func NewValidation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf extracts the classified kind of err. Unclassified errors count as
// KindBackend.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindBackend
}

// IsSessionExpired reports whether err was classified as session expiry.
func IsSessionExpired(err error) bool {
	return err != nil && KindOf(err) == KindSessionExpired
}
