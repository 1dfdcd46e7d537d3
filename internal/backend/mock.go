// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.
package backend

import (
	"context"

	"github.com/mirekst/vaultik/internal/model"
)

// MockGateway implements Gateway with per-method overwrites falling back to
// an optional base gateway. Methods without an overwrite or base panic, so a
// test exercising an unexpected path fails loudly.
type MockGateway struct {
	Base       Gateway
	Overwrites MockGatewayOverwrites
}

type MockGatewayOverwrites struct {
	CheckAuthStatus     func(ctx context.Context) (model.AuthStatus, error)
	SetupMasterPassword func(ctx context.Context, master string) error
	Authenticate        func(ctx context.Context, master string) (bool, error)
	Logout              func(ctx context.Context) error
	GetPasswords        func(ctx context.Context) ([]model.CredentialRecord, error)
	AddPassword         func(ctx context.Context, in AddPasswordInput) error
	DecryptPassword     func(ctx context.Context, id int64) (string, error)
	DeletePassword      func(ctx context.Context, id int64) error
}

var _ Gateway = (*MockGateway)(nil)

// gw := NewMockGateway(nil, MockGatewayOverwrites{ /* overwrite Gateway methods here... */ })
func NewMockGateway(base Gateway, overwrites MockGatewayOverwrites) *MockGateway {
	return &MockGateway{Base: base, Overwrites: overwrites}
}

func (m *MockGateway) CheckAuthStatus(ctx context.Context) (model.AuthStatus, error) {
	if m.Overwrites.CheckAuthStatus != nil {
		return m.Overwrites.CheckAuthStatus(ctx)
	} else if m.Base != nil {
		return m.Base.CheckAuthStatus(ctx)
	}
	panic("MockGateway.CheckAuthStatus not implemented")
}

func (m *MockGateway) SetupMasterPassword(ctx context.Context, master string) error {
	if m.Overwrites.SetupMasterPassword != nil {
		return m.Overwrites.SetupMasterPassword(ctx, master)
	} else if m.Base != nil {
		return m.Base.SetupMasterPassword(ctx, master)
	}
	panic("MockGateway.SetupMasterPassword not implemented")
}

func (m *MockGateway) Authenticate(ctx context.Context, master string) (bool, error) {
	if m.Overwrites.Authenticate != nil {
		return m.Overwrites.Authenticate(ctx, master)
	} else if m.Base != nil {
		return m.Base.Authenticate(ctx, master)
	}
	panic("MockGateway.Authenticate not implemented")
}

func (m *MockGateway) Logout(ctx context.Context) error {
	if m.Overwrites.Logout != nil {
		return m.Overwrites.Logout(ctx)
	} else if m.Base != nil {
		return m.Base.Logout(ctx)
	}
	panic("MockGateway.Logout not implemented")
}

func (m *MockGateway) GetPasswords(ctx context.Context) ([]model.CredentialRecord, error) {
	if m.Overwrites.GetPasswords != nil {
		return m.Overwrites.GetPasswords(ctx)
	} else if m.Base != nil {
		return m.Base.GetPasswords(ctx)
	}
	panic("MockGateway.GetPasswords not implemented")
}

func (m *MockGateway) AddPassword(ctx context.Context, in AddPasswordInput) error {
	if m.Overwrites.AddPassword != nil {
		return m.Overwrites.AddPassword(ctx, in)
	} else if m.Base != nil {
		return m.Base.AddPassword(ctx, in)
	}
	panic("MockGateway.AddPassword not implemented")
}

func (m *MockGateway) DecryptPassword(ctx context.Context, id int64) (string, error) {
	if m.Overwrites.DecryptPassword != nil {
		return m.Overwrites.DecryptPassword(ctx, id)
	} else if m.Base != nil {
		return m.Base.DecryptPassword(ctx, id)
	}
	panic("MockGateway.DecryptPassword not implemented")
}

func (m *MockGateway) DeletePassword(ctx context.Context, id int64) error {
	if m.Overwrites.DeletePassword != nil {
		return m.Overwrites.DeletePassword(ctx, id)
	} else if m.Base != nil {
		return m.Base.DeletePassword(ctx, id)
	}
	panic("MockGateway.DeletePassword not implemented")
}
