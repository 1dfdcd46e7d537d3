// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

// package tui provides the terminal user interface for Vaultik.
// This file, tui.go, is the main entry point for the TUI, containing the
// top-level model that acts as a router to all other sub-views.
package tui // import "github.com/mirekst/vaultik/internal/tui"

import (
	"context"
	"fmt"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"

	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/clipboard"
	"github.com/mirekst/vaultik/internal/config"
	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/logging"
	"github.com/mirekst/vaultik/internal/notify"
	"github.com/mirekst/vaultik/internal/session"
	"github.com/mirekst/vaultik/internal/vault"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	// loadingView is shown while the initial auth status check runs.
	loadingView viewState = iota
	setupView
	unlockView
	vaultView
	languageView
)

// Messages passed through the Bubble Tea loop.
type (
	// sessionStateMsg signals a session state transition observed on the
	// controller's subscription channel.
	sessionStateMsg struct{ state session.State }

	// notificationMsg carries a notification update, including the empty
	// notification published when one expires.
	notificationMsg struct{ n notify.Notification }

	// opDoneMsg reports completion of a background operation.
	opDoneMsg struct{ err error }

	// confirmRequestMsg asks the UI to show a destructive-action modal.
	confirmRequestMsg struct{ req confirmRequest }

	// languageChangedMsg signals that the UI must re-render with new translations.
	languageChangedMsg struct{}
)

// App bundles the controllers behind the TUI. Construction wires the
// session controller, credential cache, clipboard policy and notification
// center together; Run attaches them to a Bubble Tea program.
type App struct {
	session   *session.Controller
	vault     *vault.Cache
	clip      *clipboard.Policy
	center    *notify.Center
	confirmer *programConfirmer
}

// NewApp wires the controllers for the given gateway and configuration.
func NewApp(gw backend.Gateway, cfg config.Config) *App {
	center := notify.New()

	clearAfter := clipboard.DefaultClearAfter
	if cfg.Clipboard.ClearSeconds > 0 {
		clearAfter = time.Duration(cfg.Clipboard.ClearSeconds) * time.Second
	}
	clip := clipboard.New(clipboard.SystemCopier{}, clearAfter, center)

	confirmer := &programConfirmer{}
	cache := vault.New(gw, center, confirmer)

	liveness := time.Duration(cfg.Session.LivenessSeconds) * time.Second
	ctrl := session.New(gw, center,
		session.WithLivenessInterval(liveness),
		session.WithClipboardGuard(clip),
	)
	ctrl.SetRefresher(cache)
	cache.SetLocker(ctrl)

	return &App{
		session:   ctrl,
		vault:     cache,
		clip:      clip,
		center:    center,
		confirmer: confirmer,
	}
}

// Run initializes and runs the Bubble Tea program. It blocks until the user
// quits.
func (a *App) Run() error {
	p := tea.NewProgram(newMainModel(a), tea.WithAltScreen())
	a.confirmer.send = func(msg any) { p.Send(msg) }

	// Forward controller events into the message loop. The program closes
	// these goroutines down implicitly when the process exits.
	go func() {
		for st := range a.session.Subscribe() {
			p.Send(sessionStateMsg{state: st})
		}
	}()
	go func() {
		for n := range a.center.Subscribe() {
			p.Send(notificationMsg{n: n})
		}
	}()

	if _, err := p.Run(); err != nil {
		logging.Errorf("TUI run error: %v", err)
		return err
	}
	return nil
}

// mainModel is the top-level model for the TUI. It acts as a state machine
// and router, delegating updates and view rendering to the currently active
// sub-model.
type mainModel struct {
	app   *App
	state viewState

	setup    setupModel
	unlock   unlockModel
	vaultUI  *vaultModel
	language languageModel

	notification notify.Notification
	confirm      *confirmRequest
	confirmYes   bool

	width  int
	height int
	err    error
}

func newMainModel(app *App) mainModel {
	return mainModel{
		app:     app,
		state:   loadingView,
		setup:   newSetupModel(),
		unlock:  newUnlockModel(),
		vaultUI: newVaultModel(app),
	}
}

// Init kicks off the initial auth status check. The resulting state arrives
// via the session subscription.
func (m mainModel) Init() tea.Cmd {
	return tea.Batch(m.checkStatusCmd(), textinputBlink())
}

func (m mainModel) checkStatusCmd() tea.Cmd {
	app := m.app
	return func() tea.Msg {
		err := app.session.CheckStatus(context.Background())
		// The subscription delivers the state change; only surface the
		// error here so the loading view can stop spinning.
		return opDoneMsg{err: err}
	}
}

// Update is the main message loop. It handles all events (like key presses
// and window size changes) and delegates them to the active sub-model.
func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings that work everywhere.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		}
		// An open confirm modal captures all keys.
		if m.confirm != nil {
			return m.updateConfirm(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case sessionStateMsg:
		return m.applySessionState(msg.state)

	case notificationMsg:
		m.notification = msg.n
		return m, nil

	case confirmRequestMsg:
		req := msg.req
		m.confirm = &req
		m.confirmYes = false
		return m, nil

	case languageChangedMsg:
		// Re-create the sub-models so every label picks up the new locale.
		next := newMainModel(m.app)
		next.width = m.width
		next.height = m.height
		next.state = m.state
		switch m.state {
		case vaultView:
			next.vaultUI.reloadFromCache()
		case languageView:
			// The menu stays open after a switch; repopulate it so the
			// choices render in the new locale.
			next.language = newLanguageModel()
			next.language.cursor = m.language.cursor
		}
		return next, nil

	case opDoneMsg:
		if msg.err != nil && m.state == loadingView {
			m.err = msg.err
		}
		return m, nil
	}

	// Delegate updates to the currently active view.
	switch m.state {
	case setupView:
		m.setup, cmd = m.setup.Update(msg, m.app)
	case unlockView:
		m.unlock, cmd = m.unlock.Update(msg, m.app)
	case vaultView:
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "L" && !m.vaultUI.capturesInput() {
			m.state = languageView
			m.language = newLanguageModel()
			return m, nil
		}
		cmd = m.vaultUI.Update(msg)
	case languageView:
		return m.updateLanguage(msg)
	}

	return m, cmd
}

// applySessionState routes the UI to the view matching the controller state.
func (m mainModel) applySessionState(st session.State) (tea.Model, tea.Cmd) {
	switch st {
	case session.StateUninitialized:
		m.state = setupView
		m.setup = newSetupModel()
	case session.StateUnlocked:
		m.state = vaultView
		m.vaultUI.reloadFromCache()
	default: // StateLocked
		m.state = unlockView
		m.unlock = newUnlockModel()
	}
	return m, textinputBlink()
}

func (m mainModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	req := m.confirm
	switch msg.String() {
	case "left", "right", "tab":
		m.confirmYes = !m.confirmYes
	case "y":
		m.confirm = nil
		req.reply <- true
	case "n", "esc":
		m.confirm = nil
		req.reply <- false
	case "enter":
		m.confirm = nil
		req.reply <- m.confirmYes
	}
	return m, nil
}

func (m mainModel) updateLanguage(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "q", "esc":
		return m.applySessionState(m.app.session.State())
	case "up", "k":
		if m.language.cursor > 0 {
			m.language.cursor--
		}
	case "down", "j":
		if m.language.cursor < len(m.language.orderedKeys)-1 {
			m.language.cursor++
		}
	case "enter":
		langCode := m.language.orderedKeys[m.language.cursor]
		i18n.SetLang(langCode)
		viper.Set("language", langCode)
		return m, func() tea.Msg { return languageChangedMsg{} }
	}
	return m, nil
}

// View renders the TUI. It's called after every Update and delegates
// rendering to the currently active sub-model.
func (m mainModel) View() string {
	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1, 2)
		return errStyle.Render(fmt.Sprintf("An error occurred: %v", m.err))
	}

	var body string
	switch m.state {
	case setupView:
		body = m.setup.View()
	case unlockView:
		body = m.unlock.View()
	case vaultView:
		body = m.vaultUI.View()
	case languageView:
		body = m.language.View()
	default: // loadingView
		body = mainTitleStyle.Render("🔐 "+i18n.T("app.title")) + "\n" +
			helpStyle.Render(i18n.T("app.loading"))
	}

	if banner := m.notificationBanner(); banner != "" {
		body = lipgloss.JoinVertical(lipgloss.Left, banner, body)
	}
	if m.confirm != nil {
		return m.renderConfirm(body)
	}
	return body
}

// notificationBanner renders the current notification, if any, styled by kind.
func (m mainModel) notificationBanner() string {
	if !m.notification.Visible() {
		return ""
	}
	style := successStyle
	if m.notification.Kind == notify.KindError {
		style = errorStyle
	}
	return style.Padding(0, 1).Render(m.notification.Message)
}

func (m mainModel) renderConfirm(background string) string {
	question := specialStyle.Render(m.confirm.message)

	yes := buttonStyle.Render(i18n.T("confirm.yes"))
	no := activeButtonStyle.Render(i18n.T("confirm.no"))
	if m.confirmYes {
		yes = activeButtonStyle.Render(i18n.T("confirm.yes"))
		no = buttonStyle.Render(i18n.T("confirm.no"))
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Top, yes, "  ", no)
	dialog := dialogBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, question, buttons))

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
	}
	return dialog
}

// languageModel holds the state for the language selection menu.
type languageModel struct {
	choices     map[string]string // map of lang code to display name
	orderedKeys []string          // for stable iteration
	cursor      int
}

// newLanguageModel creates a new model for the language selection view.
func newLanguageModel() languageModel {
	choices := i18n.GetAvailableLocales()

	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return languageModel{choices: choices, orderedKeys: keys}
}

// View for languageModel.
func (m languageModel) View() string {
	title := mainTitleStyle.Render("🌐 " + i18n.T("menu.language"))

	var listItems []string
	listItems = append(listItems, titleStyle.Render(i18n.T("language.select")), "")
	for i, langCode := range m.orderedKeys {
		displayName := m.choices[langCode]
		if m.cursor == i {
			listItems = append(listItems, selectedItemStyle.Render("▸ "+displayName))
		} else {
			listItems = append(listItems, itemStyle.Render("  "+displayName))
		}
	}

	listPane := paneStyle.Width(60).Render(lipgloss.JoinVertical(lipgloss.Left, listItems...))
	helpLine := footerStyle.Render(AlignFooter(i18n.T("language.help"), "", 60))

	return lipgloss.JoinVertical(lipgloss.Left, title, "", listPane, "", helpLine)
}
