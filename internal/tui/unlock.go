// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Vaultik.
// This file contains the unlock screen shown while the vault is locked.
package tui // import "github.com/mirekst/vaultik/internal/tui"

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mirekst/vaultik/internal/i18n"
)

// unlockModel holds the state for the unlock screen.
type unlockModel struct {
	password   textinput.Model
	submitting bool
}

func newUnlockModel() unlockModel {
	password := newPasswordInput(i18n.T("unlock.password_label"))
	password.Focus()
	return unlockModel{password: password}
}

// Update handles messages for the unlock screen.
func (m unlockModel) Update(msg tea.Msg, app *App) (unlockModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case opDoneMsg:
		// A failed attempt leaves the controller locked; clear the input so
		// the user can retry.
		m.submitting = false
		m.password.SetValue("")
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "enter":
			m.submitting = true
			candidate := m.password.Value()
			return m, func() tea.Msg {
				return opDoneMsg{err: app.session.Unlock(context.Background(), candidate)}
			}
		}
	}

	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

// View renders the unlock screen UI.
func (m unlockModel) View() string {
	title := mainTitleStyle.Render("🔐 " + i18n.T("unlock.title"))
	subtitle := helpStyle.Render(i18n.T("unlock.subtitle"))

	var items []string
	items = append(items, m.password.View())
	if m.submitting {
		items = append(items, "", helpStyle.Render(i18n.T("app.loading")))
	}

	form := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("app.subtitle"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", form, "", helpLine)
}
