// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Vaultik.
// This file contains the first-run setup form where the user chooses the
// master password.
package tui // import "github.com/mirekst/vaultik/internal/tui"

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mirekst/vaultik/internal/i18n"
)

// setupModel holds the state for the master password setup form.
type setupModel struct {
	focusIndex int
	password   textinput.Model
	confirm    textinput.Model
	submitting bool
}

func newSetupModel() setupModel {
	password := newPasswordInput(i18n.T("setup.password_label"))
	password.Focus()
	confirm := newPasswordInput(i18n.T("setup.confirm_label"))

	return setupModel{password: password, confirm: confirm}
}

// newPasswordInput builds a masked text input shared by the auth forms.
func newPasswordInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 40
	ti.TextStyle = focusedStyle
	ti.Cursor.Style = focusedStyle
	return ti
}

// Update handles messages for the setup form.
func (m setupModel) Update(msg tea.Msg, app *App) (setupModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case opDoneMsg:
		m.submitting = false
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.password.Blur()
				cmd = m.confirm.Focus()
			} else {
				m.focusIndex = 0
				m.confirm.Blur()
				cmd = m.password.Focus()
			}
			return m, cmd

		case "enter":
			if m.focusIndex == 0 {
				m.focusIndex = 1
				m.password.Blur()
				return m, m.confirm.Focus()
			}
			m.submitting = true
			candidate, confirmation := m.password.Value(), m.confirm.Value()
			return m, func() tea.Msg {
				return opDoneMsg{err: app.session.Setup(context.Background(), candidate, confirmation)}
			}
		}
	}

	if m.focusIndex == 0 {
		m.password, cmd = m.password.Update(msg)
	} else {
		m.confirm, cmd = m.confirm.Update(msg)
	}
	return m, cmd
}

// View renders the setup form UI.
func (m setupModel) View() string {
	title := mainTitleStyle.Render("🔐 " + i18n.T("setup.title"))
	subtitle := helpStyle.Render(i18n.T("setup.subtitle"))

	var items []string
	items = append(items, m.password.View(), "", m.confirm.View(), "")
	items = append(items, helpStyle.Render(i18n.T("setup.hint")))
	if m.submitting {
		items = append(items, "", helpStyle.Render(i18n.T("app.loading")))
	}

	form := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("setup.submit"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle, "", form, "", helpLine)
}
