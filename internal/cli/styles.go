// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for CLI command output.
//
// Command files should use these instead of defining their own so the
// CLI surface stays visually consistent.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")). // Purple
			MarginBottom(1)

	// SectionStyle is used for section headers within commands.
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255"))

	// LabelStyle is used for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Width(18)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // Emerald

	// MutedStyle is used for secondary detail and file paths.
	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	// SuccessStyle marks operations that completed.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	// ErrorStyle marks failures.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("204")). // Rose
			Bold(true)

	// WarnStyle marks recoverable problems.
	WarnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Amber

	// PromptStyle is the interactive chat prompt.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("87")). // Cyan
			Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// Separator renders a horizontal rule sized to the content column.
func Separator(width int) string {
	if width <= 0 {
		width = 41
	}
	return separatorStyle.Render(strings.Repeat("-", width))
}
