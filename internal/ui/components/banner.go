// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

// =============================================================================
// ERROR BANNER COMPONENT
// =============================================================================

// ErrorBanner is a dismissable error strip shown above a form or panel. It
// stays visible until dismissed or replaced by a newer message.
type ErrorBanner struct {
	message string
	visible bool
	width   int
	theme   *styles.Theme
}

// NewErrorBanner creates an error banner.
func NewErrorBanner(theme *styles.Theme) *ErrorBanner {
	return &ErrorBanner{
		width: 80,
		theme: theme,
	}
}

// Show displays a message, replacing any previous one.
func (b *ErrorBanner) Show(message string) {
	b.message = message
	b.visible = message != ""
}

// Dismiss hides the banner.
func (b *ErrorBanner) Dismiss() {
	b.visible = false
	b.message = ""
}

// Visible reports whether the banner is showing.
func (b *ErrorBanner) Visible() bool {
	return b.visible
}

// Message returns the current message, empty when hidden.
func (b *ErrorBanner) Message() string {
	if !b.visible {
		return ""
	}
	return b.message
}

// SetWidth updates the banner width.
func (b *ErrorBanner) SetWidth(width int) {
	b.width = width
}

// View renders the banner, or nothing when hidden.
func (b *ErrorBanner) View() string {
	if !b.visible {
		return ""
	}
	body := styles.StatusIndicators.Error + " " + b.message +
		"  " + b.theme.ShortcutDesc.Render("(esc to dismiss)")
	return b.theme.ErrorBanner.Width(b.width - 2).Render(body)
}
