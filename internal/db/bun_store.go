// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"crypto/cipher"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"

	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/logging"
	"github.com/mirekst/vaultik/internal/model"
)

// MetaModel maps the single-row vault_meta table holding the KDF salt and
// the master verifier.
type MetaModel struct {
	bun.BaseModel `bun:"table:vault_meta"`
	ID            int       `bun:"id,pk"`
	KdfSalt       string    `bun:"kdf_salt"`
	Verifier      string    `bun:"verifier"`
	CreatedAt     time.Time `bun:"created_at"`
}

// CredentialModel maps the credentials table.
type CredentialModel struct {
	bun.BaseModel   `bun:"table:credentials"`
	ID              int64          `bun:"id,pk,autoincrement"`
	Title           string         `bun:"title"`
	Username        string         `bun:"username"`
	EncryptedSecret string         `bun:"encrypted_secret"`
	Category        sql.NullString `bun:"category"`
	Notes           sql.NullString `bun:"notes"`
	CreatedAt       time.Time      `bun:"created_at"`
	LastAccessed    sql.NullTime   `bun:"last_accessed"`
}

// SessionModel maps the sessions table.
type SessionModel struct {
	bun.BaseModel `bun:"table:sessions"`
	Token         string    `bun:"token,pk"`
	CreatedAt     time.Time `bun:"created_at"`
	LastSeen      time.Time `bun:"last_seen"`
}

var (
	errAlreadySetup   = errors.New("master password already set")
	errNotInitialized = errors.New("vault not initialized")
	errRecordNotFound = errors.New("record not found")
)

// bunStore implements Store on top of a *bun.DB. The AES-GCM cipher derived
// from the master password lives only in memory, tied to the session: it is
// set on a successful setup/verify and dropped when the session ends or
// expires, so a process with no live session cannot decrypt anything.
type bunStore struct {
	bun *bun.DB
	ttl time.Duration
	now func() time.Time

	mu   sync.Mutex
	aead cipher.AEAD
}

var _ Store = (*bunStore)(nil)

func newBunStore(b *bun.DB) *bunStore {
	return &bunStore{bun: b, ttl: DefaultSessionTTL, now: time.Now}
}

// SetSessionTTL overrides the idle session lifetime.
func (s *bunStore) SetSessionTTL(d time.Duration) {
	if d > 0 {
		s.ttl = d
	}
}

func (s *bunStore) Close() error { return s.bun.Close() }

func (s *bunStore) NeedsSetup(ctx context.Context) (bool, error) {
	count, err := s.bun.NewSelect().Model((*MetaModel)(nil)).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to query vault metadata: %w", err)
	}
	return count == 0, nil
}

func (s *bunStore) SetupMaster(ctx context.Context, master string) (string, error) {
	needs, err := s.NeedsSetup(ctx)
	if err != nil {
		return "", err
	}
	if !needs {
		return "", errAlreadySetup
	}

	salt, err := newSalt()
	if err != nil {
		return "", err
	}
	aead, err := newAEAD(deriveKey(master, salt))
	if err != nil {
		return "", err
	}
	verifier, err := seal(aead, verifierPlaintext)
	if err != nil {
		return "", fmt.Errorf("failed to seal verifier: %w", err)
	}

	meta := &MetaModel{
		ID:        1,
		KdfSalt:   encodeSalt(salt),
		Verifier:  verifier,
		CreatedAt: s.now(),
	}
	if _, err := s.bun.NewInsert().Model(meta).Exec(ctx); err != nil {
		return "", MapDBError(fmt.Errorf("failed to store vault metadata: %w", err))
	}

	s.mu.Lock()
	s.aead = aead
	s.mu.Unlock()
	return s.createSession(ctx)
}

func (s *bunStore) VerifyMaster(ctx context.Context, master string) (bool, string, error) {
	var meta MetaModel
	err := s.bun.NewSelect().Model(&meta).Where("id = ?", 1).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, "", errNotInitialized
		}
		return false, "", fmt.Errorf("failed to load vault metadata: %w", err)
	}

	salt, err := decodeSalt(meta.KdfSalt)
	if err != nil {
		return false, "", fmt.Errorf("corrupt KDF salt: %w", err)
	}
	aead, err := newAEAD(deriveKey(master, salt))
	if err != nil {
		return false, "", err
	}
	if _, err := open(aead, meta.Verifier); err != nil {
		// GCM authentication failure: wrong master password.
		return false, "", nil
	}

	s.mu.Lock()
	s.aead = aead
	s.mu.Unlock()
	token, err := s.createSession(ctx)
	if err != nil {
		return false, "", err
	}
	return true, token, nil
}

// SessionValid peeks at the session without refreshing its idle deadline.
// Only user-driven scoped operations count as activity; a background status
// probe must not keep an idle session alive past its TTL.
func (s *bunStore) SessionValid(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	hasKey := s.aead != nil
	s.mu.Unlock()
	if token == "" || !hasKey {
		return false, nil
	}

	var row SessionModel
	err := s.bun.NewSelect().Model(&row).Where("token = ?", token).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load session: %w", err)
	}
	if s.now().Sub(row.LastSeen) > s.ttl {
		s.expireSession(ctx, token)
		return false, nil
	}
	return true, nil
}

// expireSession removes a stale session row and drops the derived key.
func (s *bunStore) expireSession(ctx context.Context, token string) {
	_, _ = s.bun.NewDelete().Model((*SessionModel)(nil)).Where("token = ?", token).Exec(ctx)
	s.mu.Lock()
	s.aead = nil
	s.mu.Unlock()
}

func (s *bunStore) EndSession(ctx context.Context, token string) error {
	s.mu.Lock()
	s.aead = nil
	s.mu.Unlock()
	if token == "" {
		return nil
	}
	_, err := s.bun.NewDelete().Model((*SessionModel)(nil)).Where("token = ?", token).Exec(ctx)
	return err
}

func (s *bunStore) ListCredentials(ctx context.Context, token string) ([]model.CredentialRecord, error) {
	if err := s.checkSession(ctx, token); err != nil {
		return nil, err
	}

	var rows []CredentialModel
	if err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	out := make([]model.CredentialRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, credentialModelToRecord(r))
	}
	return out, nil
}

func (s *bunStore) AddCredential(ctx context.Context, token, title, username, secret string, category, notes *string) error {
	if err := s.checkSession(ctx, token); err != nil {
		return err
	}

	s.mu.Lock()
	aead := s.aead
	s.mu.Unlock()
	encrypted, err := seal(aead, []byte(secret))
	if err != nil {
		return fmt.Errorf("failed to encrypt secret: %w", err)
	}

	row := &CredentialModel{
		Title:           title,
		Username:        username,
		EncryptedSecret: encrypted,
		Category:        nullString(category),
		Notes:           nullString(notes),
		CreatedAt:       s.now(),
	}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return MapDBError(fmt.Errorf("failed to store credential: %w", err))
	}
	return nil
}

func (s *bunStore) DecryptCredential(ctx context.Context, token string, id int64) (string, error) {
	if err := s.checkSession(ctx, token); err != nil {
		return "", err
	}

	var row CredentialModel
	err := s.bun.NewSelect().Model(&row).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", errRecordNotFound
		}
		return "", fmt.Errorf("failed to load credential: %w", err)
	}

	s.mu.Lock()
	aead := s.aead
	s.mu.Unlock()
	plaintext, err := open(aead, row.EncryptedSecret)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt credential: %w", err)
	}

	_, err = s.bun.NewUpdate().Model((*CredentialModel)(nil)).
		Set("last_accessed = ?", s.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		logging.Debugf("db: failed to stamp last_accessed for credential %d: %v", id, err)
	}
	return string(plaintext), nil
}

func (s *bunStore) DeleteCredential(ctx context.Context, token string, id int64) error {
	if err := s.checkSession(ctx, token); err != nil {
		return err
	}

	res, err := s.bun.NewDelete().Model((*CredentialModel)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errRecordNotFound
	}
	return nil
}

// ExportCredentials dumps every row with its sealed secret intact. Useful
// as a backup: the blobs can only be opened with the master-derived key.
func (s *bunStore) ExportCredentials(ctx context.Context, token string) ([]ExportRecord, error) {
	if err := s.checkSession(ctx, token); err != nil {
		return nil, err
	}

	var rows []CredentialModel
	if err := s.bun.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to export credentials: %w", err)
	}

	out := make([]ExportRecord, 0, len(rows))
	for _, r := range rows {
		rec := ExportRecord{
			ID:              r.ID,
			Title:           r.Title,
			Username:        r.Username,
			EncryptedSecret: r.EncryptedSecret,
			CreatedAt:       r.CreatedAt,
		}
		if r.Category.Valid {
			rec.Category = r.Category.String
		}
		if r.Notes.Valid {
			rec.Notes = r.Notes.String
		}
		out = append(out, rec)
	}
	return out, nil
}

// createSession issues a token and records it. Expired sessions are pruned
// opportunistically so the table does not accumulate stale rows.
func (s *bunStore) createSession(ctx context.Context) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}
	now := s.now()
	row := &SessionModel{Token: token, CreatedAt: now, LastSeen: now}
	if _, err := s.bun.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to record session: %w", err)
	}
	_, _ = s.bun.NewDelete().Model((*SessionModel)(nil)).
		Where("last_seen < ?", now.Add(-s.ttl)).
		Exec(ctx)
	return token, nil
}

// checkSession enforces the idle TTL for session-scoped operations. A stale
// or unknown token fails with the session-expiry sentinel; this is the only
// place the store declares expiry.
func (s *bunStore) checkSession(ctx context.Context, token string) error {
	valid, err := s.touchSession(ctx, token)
	if err != nil {
		return err
	}
	if !valid {
		return backend.ErrSessionExpired
	}
	s.mu.Lock()
	hasKey := s.aead != nil
	s.mu.Unlock()
	if !hasKey {
		return backend.ErrSessionExpired
	}
	return nil
}

// touchSession loads a session row, expires it when stale, and refreshes
// its idle deadline otherwise.
func (s *bunStore) touchSession(ctx context.Context, token string) (bool, error) {
	var row SessionModel
	err := s.bun.NewSelect().Model(&row).Where("token = ?", token).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.now()
	if now.Sub(row.LastSeen) > s.ttl {
		s.expireSession(ctx, token)
		return false, nil
	}

	_, err = s.bun.NewUpdate().Model((*SessionModel)(nil)).
		Set("last_seen = ?", now).
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to refresh session: %w", err)
	}
	return true, nil
}

func credentialModelToRecord(r CredentialModel) model.CredentialRecord {
	rec := model.CredentialRecord{
		ID:       r.ID,
		Title:    r.Title,
		Username: r.Username,
	}
	if r.Category.Valid {
		rec.Category = r.Category.String
	}
	if r.Notes.Valid {
		rec.Notes = r.Notes.String
	}
	return rec
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
