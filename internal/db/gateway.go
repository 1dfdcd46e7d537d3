// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"sync"

	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/model"
)

// StoreGateway adapts a Store to the backend.Gateway interface. It owns the
// session token: callers above never see tokens, they only observe auth
// status and session-expiry errors.
type StoreGateway struct {
	store Store

	mu    sync.Mutex
	token string
}

var _ backend.Gateway = (*StoreGateway)(nil)

func NewStoreGateway(store Store) *StoreGateway {
	return &StoreGateway{store: store}
}

// Close releases the underlying store.
func (g *StoreGateway) Close() error { return g.store.Close() }

func (g *StoreGateway) currentToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

func (g *StoreGateway) setToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

func (g *StoreGateway) CheckAuthStatus(ctx context.Context) (model.AuthStatus, error) {
	needs, err := g.store.NeedsSetup(ctx)
	if err != nil {
		return model.AuthStatus{}, backend.Classify("check_auth_status", err)
	}
	if needs {
		return model.AuthStatus{NeedsSetup: true}, nil
	}

	token := g.currentToken()
	if token == "" {
		return model.AuthStatus{}, nil
	}
	valid, err := g.store.SessionValid(ctx, token)
	if err != nil {
		return model.AuthStatus{}, backend.Classify("check_auth_status", err)
	}
	if !valid {
		g.setToken("")
	}
	return model.AuthStatus{IsAuthenticated: valid}, nil
}

func (g *StoreGateway) SetupMasterPassword(ctx context.Context, master string) error {
	token, err := g.store.SetupMaster(ctx, master)
	if err != nil {
		return backend.Classify("setup_master_password", err)
	}
	g.setToken(token)
	return nil
}

func (g *StoreGateway) Authenticate(ctx context.Context, master string) (bool, error) {
	ok, token, err := g.store.VerifyMaster(ctx, master)
	if err != nil {
		return false, backend.Classify("authenticate", err)
	}
	if !ok {
		return false, nil
	}
	g.setToken(token)
	return true, nil
}

func (g *StoreGateway) Logout(ctx context.Context) error {
	g.mu.Lock()
	token := g.token
	g.token = ""
	g.mu.Unlock()
	if err := g.store.EndSession(ctx, token); err != nil {
		return backend.Classify("logout", err)
	}
	return nil
}

func (g *StoreGateway) GetPasswords(ctx context.Context) ([]model.CredentialRecord, error) {
	records, err := g.store.ListCredentials(ctx, g.currentToken())
	if err != nil {
		return nil, g.classifyScoped("get_passwords", err)
	}
	return records, nil
}

func (g *StoreGateway) AddPassword(ctx context.Context, input backend.AddPasswordInput) error {
	err := g.store.AddCredential(ctx, g.currentToken(), input.Title, input.Username, input.Password, input.Category, input.Notes)
	if err != nil {
		return g.classifyScoped("add_password", err)
	}
	return nil
}

func (g *StoreGateway) DecryptPassword(ctx context.Context, id int64) (string, error) {
	secret, err := g.store.DecryptCredential(ctx, g.currentToken(), id)
	if err != nil {
		return "", g.classifyScoped("decrypt_password", err)
	}
	return secret, nil
}

func (g *StoreGateway) DeletePassword(ctx context.Context, id int64) error {
	if err := g.store.DeleteCredential(ctx, g.currentToken(), id); err != nil {
		return g.classifyScoped("delete_password", err)
	}
	return nil
}

// classifyScoped drops the token on expiry so later status checks report
// unauthenticated instead of retrying a dead session.
func (g *StoreGateway) classifyScoped(op string, err error) error {
	classified := backend.Classify(op, err)
	if backend.IsSessionExpired(classified) {
		g.setToken("")
	}
	return classified
}
