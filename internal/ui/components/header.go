// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the top banner: brand, tagline, and the signed-in user.
type Header struct {
	Title   string
	Tagline string
	User    string
	Width   int
	theme   *styles.Theme
}

// NewHeader creates the application header.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:   "VOID AI",
		Tagline: "an evolving mind",
		Width:   80,
		theme:   theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetUser updates the displayed user name. Empty hides the user segment.
func (h *Header) SetUser(name string) {
	h.User = name
}

// View renders the header line.
func (h *Header) View() string {
	left := h.theme.HeaderTitle.Render(h.Title)
	if h.Tagline != "" && h.Width >= 50 {
		left += " " + h.theme.HeaderSubtitle.Render(h.Tagline)
	}

	right := ""
	if h.User != "" {
		right = h.theme.HeaderUser.Render(h.User)
	}

	gap := h.Width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}

	return h.theme.Header.Width(h.Width).Render(left + strings.Repeat(" ", gap) + right)
}
