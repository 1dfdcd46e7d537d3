// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.
package backend

import (
	"context"
	"errors"
	"sync"

	"github.com/mirekst/vaultik/internal/model"
)

// MemoryGateway is a fully functional in-memory backend. It is selected with
// `db.type: memory` and used as the base gateway in tests. Secrets are held
// in plain process memory, so it is only suitable for throwaway vaults.
type MemoryGateway struct {
	mu       sync.Mutex
	master   string
	records  []memoryRecord
	nextID   int64
	unlocked bool

	// Expired simulates backend-declared session expiry: while true, every
	// session-scoped operation fails with ErrSessionExpired.
	Expired bool
}

type memoryRecord struct {
	rec    model.CredentialRecord
	secret string
}

var _ Gateway = (*MemoryGateway)(nil)

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{nextID: 1}
}

func (g *MemoryGateway) CheckAuthStatus(ctx context.Context) (model.AuthStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Expired {
		g.unlocked = false
	}
	return model.AuthStatus{
		IsAuthenticated: g.unlocked,
		NeedsSetup:      g.master == "",
	}, nil
}

func (g *MemoryGateway) SetupMasterPassword(ctx context.Context, master string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.master != "" {
		return Classify("setup_master_password", errors.New("master password already set"))
	}
	g.master = master
	g.unlocked = true
	return nil
}

func (g *MemoryGateway) Authenticate(ctx context.Context, master string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.master == "" {
		return false, Classify("authenticate", errors.New("no master password set"))
	}
	if master != g.master {
		return false, nil
	}
	g.unlocked = true
	g.Expired = false
	return true, nil
}

func (g *MemoryGateway) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unlocked = false
	return nil
}

func (g *MemoryGateway) GetPasswords(ctx context.Context) ([]model.CredentialRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkSession("get_passwords"); err != nil {
		return nil, err
	}
	out := make([]model.CredentialRecord, 0, len(g.records))
	for _, r := range g.records {
		out = append(out, r.rec)
	}
	return out, nil
}

func (g *MemoryGateway) AddPassword(ctx context.Context, in AddPasswordInput) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkSession("add_password"); err != nil {
		return err
	}
	rec := model.CredentialRecord{
		ID:       g.nextID,
		Title:    in.Title,
		Username: in.Username,
	}
	if in.Category != nil {
		rec.Category = *in.Category
	}
	if in.Notes != nil {
		rec.Notes = *in.Notes
	}
	g.nextID++
	g.records = append(g.records, memoryRecord{rec: rec, secret: in.Password})
	return nil
}

func (g *MemoryGateway) DecryptPassword(ctx context.Context, id int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkSession("decrypt_password"); err != nil {
		return "", err
	}
	for _, r := range g.records {
		if r.rec.ID == id {
			return r.secret, nil
		}
	}
	return "", Classify("decrypt_password", errors.New("record not found"))
}

func (g *MemoryGateway) DeletePassword(ctx context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.checkSession("delete_password"); err != nil {
		return err
	}
	for i, r := range g.records {
		if r.rec.ID == id {
			g.records = append(g.records[:i], g.records[i+1:]...)
			return nil
		}
	}
	return Classify("delete_password", errors.New("record not found"))
}

// checkSession must be called with the mutex held.
func (g *MemoryGateway) checkSession(op string) error {
	if g.Expired {
		g.unlocked = false
		return Classify(op, ErrSessionExpired)
	}
	if !g.unlocked {
		return Classify(op, ErrSessionExpired)
	}
	return nil
}
