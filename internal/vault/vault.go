// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package vault holds the UI-facing projection of the credential list.
// The cache is rebuilt wholesale from the backend after every mutating
// operation; it never patches itself optimistically, so the visible list is
// always a snapshot consistent with backend truth as of the last successful
// refresh. Plaintext secrets are never stored here.
package vault

import (
	"context"
	"errors"
	"sync"

	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/model"
)

// Fields carries the user-entered values for a new credential record.
// Empty category/notes are normalized to absent before dispatch.
type Fields struct {
	Title    string
	Username string
	Password string
	Category string
	Notes    string
}

// Confirmer obtains user confirmation before a destructive action. The
// answer must be awaited before the action proceeds; declining is a silent
// no-op, not an error.
type Confirmer interface {
	ConfirmDestructive(msg string) bool
}

// ConfirmerFunc adapts a function to the Confirmer interface.
type ConfirmerFunc func(msg string) bool

func (f ConfirmerFunc) ConfirmDestructive(msg string) bool { return f(msg) }

// Locker is the controller hook for backend-declared session expiry.
type Locker interface {
	ForceLock()
}

// notifier is the slice of the notification channel the cache needs.
type notifier interface {
	Success(msg string)
	Error(msg string)
}

var errMissingFields = errors.New("title, username and password are required")

// Cache is the in-memory credential list projection.
type Cache struct {
	gw        backend.Gateway
	notifier  notifier
	confirmer Confirmer

	mu      sync.Mutex
	records []model.CredentialRecord
	locker  Locker
}

// New creates a Cache over gw. The locker is wired separately because the
// session controller and the cache reference each other.
func New(gw backend.Gateway, n notifier, confirmer Confirmer) *Cache {
	return &Cache{gw: gw, notifier: n, confirmer: confirmer}
}

// SetLocker wires the session controller's expiry reaction.
func (c *Cache) SetLocker(l Locker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locker = l
}

// Records returns a copy of the current snapshot.
func (c *Cache) Records() []model.CredentialRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.CredentialRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Purge empties the cache. Called on logout and forced lock.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = nil
}

// Refresh replaces the cache with the full backend list. Callers must only
// invoke it with a verified session. On session expiry the cache is emptied
// and the controller forces a lockdown; a partial list is never retained.
func (c *Cache) Refresh(ctx context.Context) error {
	recs, err := c.gw.GetPasswords(ctx)
	if err != nil {
		err = backend.Classify("get_passwords", err)
		if c.expired(err) {
			return err
		}
		c.notifier.Error(i18n.T("vault.load_failed", err))
		return err
	}
	c.mu.Lock()
	c.records = recs
	c.mu.Unlock()
	return nil
}

// Add validates the fields locally, stores the record and refreshes the
// cache from the backend so identifier and ordering truth come from there,
// never from a local append.
func (c *Cache) Add(ctx context.Context, f Fields) error {
	if f.Title == "" || f.Username == "" || f.Password == "" {
		c.notifier.Error(i18n.T("vault.missing_fields"))
		return backend.NewValidation("add_password", errMissingFields)
	}

	in := backend.AddPasswordInput{
		Title:    f.Title,
		Username: f.Username,
		Password: f.Password,
		Category: optional(f.Category),
		Notes:    optional(f.Notes),
	}
	if err := c.gw.AddPassword(ctx, in); err != nil {
		err = backend.Classify("add_password", err)
		if c.expired(err) {
			return err
		}
		c.notifier.Error(i18n.T("vault.add_failed", err))
		return err
	}

	c.notifier.Success(i18n.T("vault.add_success"))
	return c.Refresh(ctx)
}

// Remove deletes a record after user confirmation. A declined confirmation
// aborts silently without a backend call. The cache entry disappears only
// via the refresh that follows a confirmed backend delete.
func (c *Cache) Remove(ctx context.Context, id int64) error {
	if !c.confirmer.ConfirmDestructive(i18n.T("confirm.delete")) {
		return nil
	}

	if err := c.gw.DeletePassword(ctx, id); err != nil {
		err = backend.Classify("delete_password", err)
		if c.expired(err) {
			return err
		}
		c.notifier.Error(i18n.T("vault.delete_failed", err))
		return err
	}

	c.notifier.Success(i18n.T("vault.delete_success"))
	return c.Refresh(ctx)
}

// RevealSecret fetches the plaintext secret for one record on demand. The
// value is never cached; the caller must treat it as transient and hand it
// only to the clipboard policy or an equally bounded consumer.
func (c *Cache) RevealSecret(ctx context.Context, id int64) (string, error) {
	secret, err := c.gw.DecryptPassword(ctx, id)
	if err != nil {
		err = backend.Classify("decrypt_password", err)
		if c.expired(err) {
			return "", err
		}
		c.notifier.Error(i18n.T("vault.copy_failed", err))
		return "", err
	}
	return secret, nil
}

// expired funnels every session-expiry classification into the controller's
// uniform lockdown, which purges this cache.
func (c *Cache) expired(err error) bool {
	if !backend.IsSessionExpired(err) {
		return false
	}
	c.mu.Lock()
	l := c.locker
	c.mu.Unlock()
	if l != nil {
		l.ForceLock()
	} else {
		c.Purge()
	}
	return true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
