// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusSending
	StatusTraining
	StatusError
	StatusSignedOut
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusSending:
		return "Sending..."
	case StatusTraining:
		return "Training..."
	case StatusError:
		return "Error"
	case StatusSignedOut:
		return "Signed out"
	default:
		return "Unknown"
	}
}

// Icon returns an indicator for the status.
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusSending, StatusTraining:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	case StatusSignedOut:
		return "-"
	default:
		return "?"
	}
}

// Shortcut is one key hint shown on the right side of the bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom status bar: connection state, signed-in user, and
// key hints.
type StatusBar struct {
	Status    Status
	User      string // display name, empty when signed out
	Backend   string // backend base URL
	Width     int
	Shortcuts []Shortcut
	theme     *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{
		Status: StatusSignedOut,
		Width:  80,
		theme:  theme,
	}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the current status.
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetUser updates the signed-in user's display name.
func (s *StatusBar) SetUser(name string) {
	s.User = name
}

// statusStyle picks the style matching the current status.
func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusReady:
		return s.theme.StatusOnline
	case StatusSending, StatusTraining:
		return s.theme.StatusBusy
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	default:
		return s.theme.StatusOffline
	}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	var left strings.Builder
	left.WriteString(s.statusStyle().Render(s.Status.Icon() + " " + s.Status.String()))

	if s.User != "" {
		left.WriteString(s.theme.StatusBar.Render(" | "))
		left.WriteString(s.theme.HeaderUser.Render(s.User))
	}
	if s.Backend != "" {
		left.WriteString(s.theme.StatusBar.Render(" | " + s.Backend))
	}

	var right strings.Builder
	for n, sc := range s.Shortcuts {
		if n > 0 {
			right.WriteString("  ")
		}
		right.WriteString(s.theme.ShortcutKey.Render(sc.Key))
		right.WriteString(s.theme.ShortcutDesc.Render(" " + sc.Desc))
	}

	leftStr := left.String()
	rightStr := right.String()

	gap := s.Width - lipgloss.Width(leftStr) - lipgloss.Width(rightStr) - 2
	if gap < 1 {
		// Narrow terminal: drop the shortcuts first.
		rightStr = ""
		gap = s.Width - lipgloss.Width(leftStr) - 2
		if gap < 0 {
			gap = 0
		}
	}

	return s.theme.StatusBar.Render(leftStr + strings.Repeat(" ", gap) + rightStr)
}
