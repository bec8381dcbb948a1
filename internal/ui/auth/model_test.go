// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voidai-tui/internal/session"
	"github.com/jeranaias/voidai-tui/internal/supabase"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

func newTestModel() Model {
	// A nil controller is fine for tests that never reach submit's command.
	return New(styles.NewTheme("dark"), nil)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModeToggle(t *testing.T) {
	m := newTestModel()
	if m.mode != ModeSignIn {
		t.Fatal("panel should start in sign-in mode")
	}

	m, _ = m.Update(key("ctrl+t"))
	if m.mode != ModeSignUp {
		t.Error("ctrl+t should switch to sign-up")
	}
	if !strings.Contains(m.View(), "Username") {
		t.Error("sign-up form should show the username field")
	}

	m, _ = m.Update(key("ctrl+t"))
	if m.mode != ModeSignIn {
		t.Error("ctrl+t should switch back to sign-in")
	}
	if strings.Contains(m.View(), "Username") {
		t.Error("sign-in form should hide the username field")
	}
}

func TestFocusCycling(t *testing.T) {
	m := newTestModel()

	m, _ = m.Update(key("tab"))
	if m.focused != fieldPassword {
		t.Errorf("focused = %d, want password", m.focused)
	}

	// Sign-in has two fields, so tab wraps back to email.
	m, _ = m.Update(key("tab"))
	if m.focused != fieldEmail {
		t.Errorf("focused = %d, want email after wrap", m.focused)
	}

	m, _ = m.Update(key("shift+tab"))
	if m.focused != fieldPassword {
		t.Errorf("focused = %d, want password after reverse wrap", m.focused)
	}
}

func TestSubmitRequiresCredentials(t *testing.T) {
	m := newTestModel()

	m, cmd := m.Update(key("enter"))
	if cmd != nil {
		t.Error("empty form should not submit")
	}
	if !strings.Contains(m.View(), "Email and password are required.") {
		t.Error("validation message should show")
	}
	if m.Loading() {
		t.Error("panel should not enter loading state")
	}
}

func TestSignInErrorShowsBanner(t *testing.T) {
	m := newTestModel()
	m.loading = true

	m, _ = m.Update(session.SignInResultMsg{
		Err: &supabase.AuthError{Message: "Invalid login credentials", Status: 400},
	})

	if m.Loading() {
		t.Error("loading should clear on result")
	}
	if !strings.Contains(m.View(), "Invalid login credentials") {
		t.Error("auth error should show in the banner")
	}

	// Esc dismisses the banner.
	m, _ = m.Update(key("esc"))
	if strings.Contains(m.View(), "Invalid login credentials") {
		t.Error("banner should dismiss on esc")
	}
}

func TestSignInGenericErrorMessage(t *testing.T) {
	m := newTestModel()
	m.loading = true

	m, _ = m.Update(session.SignInResultMsg{Err: errors.New("dial tcp: timeout")})
	if !strings.Contains(m.View(), "Authentication failed. Please try again.") {
		t.Error("non-auth errors should show the generic message")
	}
}

func TestSignUpPendingSwitchesToSignIn(t *testing.T) {
	m := newTestModel()
	m, _ = m.Update(key("ctrl+t")) // to sign-up
	m.loading = true

	m, _ = m.Update(session.SignUpResultMsg{Pending: true})

	if m.mode != ModeSignIn {
		t.Error("pending confirmation should return to sign-in")
	}
	if !strings.Contains(m.View(), "Check your email") {
		t.Error("confirmation notice should show")
	}
}

func TestTypingIgnoredWhileLoading(t *testing.T) {
	m := newTestModel()
	m.loading = true

	m, _ = m.Update(key("a"))
	if m.inputs[fieldEmail].Value() != "" {
		t.Error("input should be frozen while loading")
	}
}
