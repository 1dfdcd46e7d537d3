// Copyright (c) 2025 mirekst
// Vaultik - local password vault
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mirekst/vaultik/internal/backend"
	"github.com/mirekst/vaultik/internal/config"
	"github.com/mirekst/vaultik/internal/i18n"
	"github.com/mirekst/vaultik/internal/notify"
	"github.com/mirekst/vaultik/internal/session"
	"github.com/mirekst/vaultik/internal/vault"
)

func vaultFields(title, username string) vault.Fields {
	return vault.Fields{Title: title, Username: username, Password: "pw"}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	i18n.Init("en")
	cfg := config.Config{}
	cfg.DB.Type = "memory"
	cfg.Session.LivenessSeconds = 0
	return NewApp(backend.NewMemoryGateway(), cfg)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestSessionStateRoutesViews(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)

	next, _ := m.Update(sessionStateMsg{state: session.StateUninitialized})
	m = next.(mainModel)
	if m.state != setupView {
		t.Errorf("uninitialized must route to setup, got %v", m.state)
	}

	next, _ = m.Update(sessionStateMsg{state: session.StateLocked})
	m = next.(mainModel)
	if m.state != unlockView {
		t.Errorf("locked must route to unlock, got %v", m.state)
	}

	next, _ = m.Update(sessionStateMsg{state: session.StateUnlocked})
	m = next.(mainModel)
	if m.state != vaultView {
		t.Errorf("unlocked must route to vault, got %v", m.state)
	}
}

func TestSetupView_RendersLabels(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)
	next, _ := m.Update(sessionStateMsg{state: session.StateUninitialized})
	m = next.(mainModel)

	out := m.View()
	if !strings.Contains(out, i18n.T("setup.title")) {
		t.Errorf("setup view missing title:\n%s", out)
	}
	if !strings.Contains(out, i18n.T("setup.hint")) {
		t.Errorf("setup view missing hint:\n%s", out)
	}
}

func TestUnlockView_RendersLabels(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)
	next, _ := m.Update(sessionStateMsg{state: session.StateLocked})
	m = next.(mainModel)

	out := m.View()
	if !strings.Contains(out, i18n.T("unlock.title")) {
		t.Errorf("unlock view missing title:\n%s", out)
	}
}

func TestVaultView_EmptyState(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)
	next, _ := m.Update(sessionStateMsg{state: session.StateUnlocked})
	m = next.(mainModel)

	out := m.View()
	if !strings.Contains(out, i18n.T("vault.empty")) {
		t.Errorf("empty vault view missing placeholder:\n%s", out)
	}
}

func TestVaultView_ListsRecordsAndNavigates(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	if err := app.session.Setup(ctx, "masterpass", "masterpass"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := app.vault.Add(ctx, vaultFields("GMail", "alice")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := app.vault.Add(ctx, vaultFields("Bank", "bob")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	m := newMainModel(app)
	next, _ := m.Update(sessionStateMsg{state: session.StateUnlocked})
	m = next.(mainModel)

	out := m.View()
	if !strings.Contains(out, "GMail (alice)") || !strings.Contains(out, "Bank (bob)") {
		t.Fatalf("vault view missing records:\n%s", out)
	}

	if m.vaultUI.cursor != 0 {
		t.Fatalf("cursor = %d, want 0", m.vaultUI.cursor)
	}
	m.vaultUI.Update(keyMsg("j"))
	if m.vaultUI.cursor != 1 {
		t.Errorf("cursor after j = %d, want 1", m.vaultUI.cursor)
	}
	m.vaultUI.Update(keyMsg("k"))
	if m.vaultUI.cursor != 0 {
		t.Errorf("cursor after k = %d, want 0", m.vaultUI.cursor)
	}
}

func TestVaultView_AddFormFlow(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	if err := app.session.Setup(ctx, "masterpass", "masterpass"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	v := newVaultModel(app)
	v.Update(keyMsg("a"))
	if v.mode != formMode {
		t.Fatalf("'a' must open the form")
	}
	if !v.capturesInput() {
		t.Errorf("form mode must capture input")
	}

	out := v.View()
	if !strings.Contains(out, i18n.T("form.title")) {
		t.Errorf("form view missing title:\n%s", out)
	}

	v.Update(keyMsg("esc"))
	if v.mode != listMode {
		t.Errorf("esc must return to the list")
	}
}

func TestLanguageMenuSurvivesSwitch(t *testing.T) {
	app := newTestApp(t)
	defer i18n.SetLang("en")

	m := newMainModel(app)
	next, _ := m.Update(sessionStateMsg{state: session.StateUnlocked})
	m = next.(mainModel)

	next, _ = m.Update(keyMsg("L"))
	m = next.(mainModel)
	if m.state != languageView {
		t.Fatalf("'L' must open the language menu, got state %v", m.state)
	}

	next, cmd := m.Update(keyMsg("enter"))
	m = next.(mainModel)
	if cmd == nil {
		t.Fatalf("selecting a language must emit a change command")
	}
	next, _ = m.Update(cmd())
	m = next.(mainModel)

	// The rebuilt model keeps the menu open; it must be populated and
	// selectable again, not a zero-valued menu.
	if m.state != languageView {
		t.Fatalf("menu must stay open after a switch, got state %v", m.state)
	}
	if len(m.language.orderedKeys) == 0 {
		t.Fatalf("rebuilt language menu has no choices")
	}
	if !strings.Contains(m.View(), i18n.T("language.select")) {
		t.Errorf("rebuilt menu missing prompt:\n%s", m.View())
	}
	if _, cmd = m.Update(keyMsg("enter")); cmd == nil {
		t.Errorf("enter in the rebuilt menu must select a language again")
	}
}

func TestConfirmModal_RepliesToRequest(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)

	req := confirmRequest{message: "delete?", reply: make(chan bool, 1)}
	next, _ := m.Update(confirmRequestMsg{req: req})
	m = next.(mainModel)

	out := m.View()
	if !strings.Contains(out, "delete?") {
		t.Fatalf("confirm modal missing question:\n%s", out)
	}

	next, _ = m.Update(keyMsg("y"))
	m = next.(mainModel)
	select {
	case got := <-req.reply:
		if !got {
			t.Errorf("'y' must confirm")
		}
	case <-time.After(time.Second):
		t.Fatalf("no reply delivered")
	}
	if m.confirm != nil {
		t.Errorf("modal must close after replying")
	}
}

func TestConfirmModal_EscDeclines(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)

	req := confirmRequest{message: "delete?", reply: make(chan bool, 1)}
	next, _ := m.Update(confirmRequestMsg{req: req})
	m = next.(mainModel)

	next, _ = m.Update(keyMsg("esc"))
	_ = next
	select {
	case got := <-req.reply:
		if got {
			t.Errorf("esc must decline")
		}
	case <-time.After(time.Second):
		t.Fatalf("no reply delivered")
	}
}

func TestNotificationBanner(t *testing.T) {
	app := newTestApp(t)
	m := newMainModel(app)

	next, _ := m.Update(notificationMsg{n: notify.Notification{Message: "saved", Kind: notify.KindSuccess}})
	m = next.(mainModel)
	if !strings.Contains(m.View(), "saved") {
		t.Errorf("banner missing from view")
	}

	// The zero notification published on expiry removes the banner.
	next, _ = m.Update(notificationMsg{n: notify.Notification{}})
	m = next.(mainModel)
	if strings.Contains(m.View(), "saved") {
		t.Errorf("expired banner must disappear")
	}
}

func TestAlignFooter(t *testing.T) {
	got := AlignFooter("left", "right", 20)
	if len(got) != 20 || !strings.HasPrefix(got, "left") || !strings.HasSuffix(got, "right") {
		t.Errorf("AlignFooter = %q", got)
	}
	if got := AlignFooter("toolong", "also", 5); !strings.Contains(got, " ") {
		t.Errorf("narrow AlignFooter must still separate tokens, got %q", got)
	}

	// Wide runes occupy two cells; alignment is by display width, not runes.
	wide := AlignFooter("🔐 lock", "3", 20)
	if w := lipgloss.Width(wide); w != 20 {
		t.Errorf("wide-rune footer width = %d, want 20 (%q)", w, wide)
	}
	if !strings.HasSuffix(wide, "3") {
		t.Errorf("right token must end the line, got %q", wide)
	}
}
