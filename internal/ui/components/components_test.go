// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

func TestStatusStrings(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusSending, "Sending..."},
		{StatusTraining, "Training..."},
		{StatusError, "Error"},
		{StatusSignedOut, "Signed out"},
		{Status(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
		if tt.status.Icon() == "" {
			t.Errorf("Status(%d).Icon() is empty", tt.status)
		}
	}
}

func TestStatusBarView(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetWidth(100)
	bar.SetStatus(StatusReady)
	bar.SetUser("void_user")
	bar.Shortcuts = []Shortcut{{Key: "tab", Desc: "switch"}, {Key: "ctrl+c", Desc: "quit"}}

	out := bar.View()
	for _, want := range []string{"Ready", "void_user", "tab", "ctrl+c"} {
		if !strings.Contains(out, want) {
			t.Errorf("status bar missing %q:\n%s", want, out)
		}
	}
}

func TestStatusBarNarrowDropsShortcuts(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetWidth(20)
	bar.Shortcuts = []Shortcut{{Key: "ctrl+c", Desc: "quit this application now"}}

	out := bar.View()
	if strings.Contains(out, "quit this application now") {
		t.Error("narrow bar should drop shortcut hints")
	}
}

func TestHeaderShowsUser(t *testing.T) {
	h := NewHeader(testTheme())
	h.SetWidth(100)
	h.SetUser("someone@example.com")

	out := h.View()
	if !strings.Contains(out, "VOID AI") {
		t.Errorf("header missing brand:\n%s", out)
	}
	if !strings.Contains(out, "someone@example.com") {
		t.Errorf("header missing user:\n%s", out)
	}
}

func TestErrorBanner(t *testing.T) {
	b := NewErrorBanner(testTheme())
	if b.Visible() {
		t.Error("new banner should start hidden")
	}
	if b.View() != "" {
		t.Error("hidden banner should render nothing")
	}

	b.Show("Invalid login credentials")
	if !b.Visible() {
		t.Error("banner should be visible after Show")
	}
	if !strings.Contains(b.View(), "Invalid login credentials") {
		t.Errorf("banner missing message: %q", b.View())
	}

	b.Dismiss()
	if b.Visible() || b.Message() != "" {
		t.Error("banner should clear on dismiss")
	}

	// Showing an empty message keeps the banner hidden.
	b.Show("")
	if b.Visible() {
		t.Error("empty message should not show the banner")
	}
}

func TestInputAreaValueAndReset(t *testing.T) {
	in := NewInputArea(testTheme(), "Type a message...")
	in.SetValue("hello void")

	if got := in.Value(); got != "hello void" {
		t.Errorf("Value = %q", got)
	}

	in.Reset()
	if in.Value() != "" {
		t.Error("Reset should clear the value")
	}
}

func TestInputAreaFocus(t *testing.T) {
	in := NewInputArea(testTheme(), "")
	if in.Focused() {
		t.Error("input should start blurred")
	}
	in.Focus()
	if !in.Focused() {
		t.Error("Focus should mark the input focused")
	}
	in.Blur()
	if in.Focused() {
		t.Error("Blur should clear focus")
	}
}

func TestSpinnerLifecycle(t *testing.T) {
	s := NewThinkingSpinner(testTheme())
	if s.IsActive() {
		t.Error("spinner should start inactive")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	if cmd := s.Start(); cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !strings.Contains(s.View(), "Thinking") {
		t.Errorf("active spinner missing message: %q", s.View())
	}

	s.Stop()
	if s.IsActive() {
		t.Error("Stop should deactivate the spinner")
	}
}
