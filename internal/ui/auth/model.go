// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth provides the sign-in / sign-up form panel.
package auth

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/session"
	"github.com/jeranaias/voidai-tui/internal/supabase"
	"github.com/jeranaias/voidai-tui/internal/ui/components"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

// =============================================================================
// FORM MODE
// =============================================================================

// Mode selects which form the panel shows.
type Mode int

const (
	ModeSignIn Mode = iota
	ModeSignUp
)

// String returns the form title for the mode.
func (m Mode) String() string {
	if m == ModeSignUp {
		return "Sign up"
	}
	return "Sign in"
}

// Field indexes into the form's inputs.
const (
	fieldEmail = iota
	fieldPassword
	fieldUsername // sign-up only
)

// =============================================================================
// AUTH MODEL
// =============================================================================

// Model is the Bubble Tea model for the auth panel.
type Model struct {
	theme *styles.Theme
	width int

	ctrl *session.Controller

	mode     Mode
	inputs   []textinput.Model
	focused  int
	loading  bool
	banner   *components.ErrorBanner
	notice   string
}

// New creates the auth panel.
func New(theme *styles.Theme, ctrl *session.Controller) Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Width = 40
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 40
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Width = 40

	return Model{
		theme:  theme,
		width:  80,
		ctrl:   ctrl,
		mode:   ModeSignIn,
		inputs: []textinput.Model{email, password, username},
		banner: components.NewErrorBanner(theme),
	}
}

// SetSize updates the panel width.
func (m *Model) SetSize(width, _ int) {
	m.width = width
	m.banner.SetWidth(width)
}

// Loading reports whether an auth request is in flight.
func (m *Model) Loading() bool {
	return m.loading
}

// fieldCount returns how many inputs the current mode shows.
func (m *Model) fieldCount() int {
	if m.mode == ModeSignUp {
		return 3
	}
	return 2
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles panel messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			m.banner.Dismiss()
			return m, nil

		case "tab", "down":
			m.cycleFocus(1)
			return m, nil

		case "shift+tab", "up":
			m.cycleFocus(-1)
			return m, nil

		case "ctrl+t":
			m.toggleMode()
			return m, nil

		case "enter":
			return m, m.submit()
		}

		if m.loading {
			return m, nil // ignore typing while a request is in flight
		}
		var cmd tea.Cmd
		m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
		return m, cmd

	case session.SignInResultMsg:
		m.loading = false
		if msg.Err != nil {
			m.banner.Show(supabase.AuthMessage(msg.Err))
		}
		// Success arrives separately as a session change; nothing to do.
		return m, nil

	case session.SignUpResultMsg:
		m.loading = false
		switch {
		case msg.Err != nil:
			m.banner.Show(supabase.AuthMessage(msg.Err))
		case msg.Pending:
			m.notice = "Check your email to confirm your account, then sign in."
			m.mode = ModeSignIn
			m.setFocus(fieldEmail)
		}
		return m, nil
	}

	return m, nil
}

// cycleFocus moves focus by delta, wrapping around the visible fields.
func (m *Model) cycleFocus(delta int) {
	count := m.fieldCount()
	m.inputs[m.focused].Blur()
	m.focused = (m.focused + delta + count) % count
	m.inputs[m.focused].Focus()
}

// setFocus focuses a specific field.
func (m *Model) setFocus(field int) {
	for n := range m.inputs {
		m.inputs[n].Blur()
	}
	m.focused = field
	m.inputs[field].Focus()
}

// toggleMode switches between sign-in and sign-up.
func (m *Model) toggleMode() {
	if m.mode == ModeSignIn {
		m.mode = ModeSignUp
	} else {
		m.mode = ModeSignIn
		if m.focused >= m.fieldCount() {
			m.setFocus(fieldEmail)
		}
	}
	m.banner.Dismiss()
	m.notice = ""
}

// submit validates the form and fires the auth request.
func (m *Model) submit() tea.Cmd {
	if m.loading {
		return nil
	}

	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()

	if email == "" || password == "" {
		m.banner.Show("Email and password are required.")
		return nil
	}

	m.banner.Dismiss()
	m.notice = ""
	m.loading = true

	if m.mode == ModeSignUp {
		username := strings.TrimSpace(m.inputs[fieldUsername].Value())
		return m.ctrl.SignUp(context.Background(), email, password, username)
	}
	return m.ctrl.SignIn(context.Background(), email, password)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the auth form.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.theme.FormTitle.Render(m.mode.String()))
	sb.WriteString("\n\n")

	if banner := m.banner.View(); banner != "" {
		sb.WriteString(banner)
		sb.WriteString("\n\n")
	}
	if m.notice != "" {
		sb.WriteString(m.theme.FormNotice.Render(m.notice))
		sb.WriteString("\n\n")
	}

	labels := []string{"Email", "Password", "Username"}
	for field := 0; field < m.fieldCount(); field++ {
		sb.WriteString(m.theme.FormLabel.Render(labels[field]))
		sb.WriteString("\n")
		style := m.theme.FormField
		if field == m.focused {
			style = m.theme.FormFieldFocused
		}
		sb.WriteString(style.Render(m.inputs[field].View()))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if m.loading {
		sb.WriteString(m.theme.FormHint.Render("Working..."))
	} else {
		sb.WriteString(m.theme.FormHint.Render(
			"enter submit | tab next field | ctrl+t " + m.otherMode().String()))
	}

	form := m.theme.FormBox.Render(sb.String())
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, form)
}

func (m Model) otherMode() Mode {
	if m.mode == ModeSignIn {
		return ModeSignUp
	}
	return ModeSignIn
}
