// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Vaultik.
// This file contains the credential list and the add-credential form shown
// while the vault is unlocked.
package tui // import "github.com/mirekst/vaultik/internal/tui"

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/model"
	"github.com/mirekst/vaultik/internal/vault"
)

// vaultMode selects between the credential list and the add form.
type vaultMode int

const (
	listMode vaultMode = iota
	formMode
)

// recordsReloadedMsg tells the vault view to re-read the cache snapshot.
type recordsReloadedMsg struct{}

// Form field order.
const (
	fieldTitle = iota
	fieldUsername
	fieldPassword
	fieldCategory
	fieldNotes
	fieldCount
)

// vaultModel holds the state for the unlocked vault screen. It renders a
// snapshot of the credential cache; mutations go through the cache and come
// back as a recordsReloadedMsg.
type vaultModel struct {
	app     *App
	mode    vaultMode
	records []model.CredentialRecord
	cursor  int

	inputs     [fieldCount]textinput.Model
	focusIndex int

	width  int
	height int
}

func newVaultModel(app *App) *vaultModel {
	return &vaultModel{app: app}
}

// reloadFromCache replaces the rendered snapshot with the cache contents.
func (m *vaultModel) reloadFromCache() {
	m.records = m.app.vault.Records()
	if m.cursor >= len(m.records) {
		m.cursor = len(m.records) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// capturesInput reports whether the view is in a text-entry mode where
// global single-letter shortcuts must not fire.
func (m *vaultModel) capturesInput() bool { return m.mode == formMode }

// Update handles messages for the vault screen.
func (m *vaultModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil

	case recordsReloadedMsg:
		m.reloadFromCache()
		return nil

	case opDoneMsg:
		// Reload regardless of the outcome: a successful add/delete already
		// refreshed the cache, and a failure leaves it unchanged.
		m.reloadFromCache()
		return nil

	case tea.KeyMsg:
		if m.mode == formMode {
			return m.updateForm(msg)
		}
		return m.updateList(msg)
	}

	if m.mode == formMode {
		return m.updateFormInputs(msg)
	}
	return nil
}

func (m *vaultModel) updateList(msg tea.KeyMsg) tea.Cmd {
	app := m.app
	switch msg.String() {
	case "q":
		// Lock the vault before quitting so the clipboard and cache are
		// cleared even on exit.
		return tea.Sequence(
			func() tea.Msg {
				return opDoneMsg{err: app.session.Logout(context.Background())}
			},
			tea.Quit,
		)
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.records)-1 {
			m.cursor++
		}
	case "a":
		m.enterForm()
		return textinput.Blink
	case "r":
		return func() tea.Msg {
			err := app.vault.Refresh(context.Background())
			return opDoneMsg{err: err}
		}
	case "c":
		if rec, ok := m.selected(); ok {
			id := rec.ID
			return func() tea.Msg {
				secret, err := app.vault.RevealSecret(context.Background(), id)
				if err == nil {
					err = app.clip.ExposeSecret(secret)
				}
				return opDoneMsg{err: err}
			}
		}
	case "d":
		if rec, ok := m.selected(); ok {
			id := rec.ID
			// Remove blocks on the confirm modal, so it must run in a
			// command goroutine rather than inside Update.
			return func() tea.Msg {
				err := app.vault.Remove(context.Background(), id)
				return opDoneMsg{err: err}
			}
		}
	}
	return nil
}

func (m *vaultModel) selected() (model.CredentialRecord, bool) {
	if len(m.records) == 0 || m.cursor < 0 || m.cursor >= len(m.records) {
		return model.CredentialRecord{}, false
	}
	return m.records[m.cursor], true
}

func (m *vaultModel) enterForm() {
	m.mode = formMode
	m.focusIndex = 0

	placeholders := [fieldCount]string{
		i18n.T("form.field_title"),
		i18n.T("form.field_username"),
		i18n.T("form.field_password"),
		i18n.T("form.field_category"),
		i18n.T("form.field_notes"),
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 512
		ti.Width = 48
		ti.TextStyle = focusedStyle
		ti.Cursor.Style = focusedStyle
		if i == fieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		m.inputs[i] = ti
	}
	m.inputs[0].Focus()
}

func (m *vaultModel) updateForm(msg tea.KeyMsg) tea.Cmd {
	app := m.app
	switch msg.String() {
	case "esc":
		m.mode = listMode
		return nil

	case "tab", "down":
		return m.focusField((m.focusIndex + 1) % fieldCount)
	case "shift+tab", "up":
		return m.focusField((m.focusIndex + fieldCount - 1) % fieldCount)

	case "ctrl+g":
		m.inputs[fieldPassword].SetValue(vault.GeneratePassword(vault.DefaultGeneratedLength))
		return nil

	case "enter":
		if m.focusIndex < fieldCount-1 {
			return m.focusField(m.focusIndex + 1)
		}
		fields := vault.Fields{
			Title:    m.inputs[fieldTitle].Value(),
			Username: m.inputs[fieldUsername].Value(),
			Password: m.inputs[fieldPassword].Value(),
			Category: m.inputs[fieldCategory].Value(),
			Notes:    m.inputs[fieldNotes].Value(),
		}
		m.mode = listMode
		return func() tea.Msg {
			err := app.vault.Add(context.Background(), fields)
			return opDoneMsg{err: err}
		}
	}

	return m.updateFormInputs(msg)
}

func (m *vaultModel) focusField(index int) tea.Cmd {
	m.inputs[m.focusIndex].Blur()
	m.focusIndex = index
	return m.inputs[m.focusIndex].Focus()
}

func (m *vaultModel) updateFormInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return cmd
}

// View renders the vault screen UI.
func (m *vaultModel) View() string {
	if m.mode == formMode {
		return m.viewForm()
	}
	return m.viewList()
}

func (m *vaultModel) viewList() string {
	title := mainTitleStyle.Render("🗝  " + i18n.T("vault.title"))

	var items []string
	if len(m.records) == 0 {
		items = append(items, helpStyle.Render(i18n.T("vault.empty")))
	}
	for i, rec := range m.records {
		line := rec.String()
		if rec.Category != "" {
			line += "  " + helpStyle.Render("["+rec.Category+"]")
		}
		if m.cursor == i {
			items = append(items, selectedItemStyle.Render("▸ ")+line)
		} else {
			items = append(items, itemStyle.Render("  ")+line)
		}
	}

	width := m.width - 4
	if width < 60 {
		width = 60
	}
	listPane := paneStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, items...))

	count := fmt.Sprintf("%d", len(m.records))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("vault.footer"), count, width))

	return lipgloss.JoinVertical(lipgloss.Left, title, listPane, helpLine)
}

func (m *vaultModel) viewForm() string {
	title := mainTitleStyle.Render("✨ " + i18n.T("form.title"))

	var items []string
	for i := range m.inputs {
		items = append(items, m.inputs[i].View())
	}
	items = append(items, "", helpStyle.Render(i18n.T("form.generate")))

	form := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, items...))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("form.submit"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, form, helpLine)
}
