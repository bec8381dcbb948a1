// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - TTY detection and terminal capability helpers.
//
// USABILITY: TTY detection for proper terminal handling
//
// Color handling:
// - Colors are disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
// - FORCE_COLOR overrides detection

package cli

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY reports whether stdin is attached to a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is attached to a terminal.
// Piped or redirected output should not receive ANSI sequences.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// IsStderrTTY reports whether stderr is attached to a terminal.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// =============================================================================
// TERMINAL DIMENSIONS
// =============================================================================

const (
	// DefaultTerminalWidth is used when the real width cannot be determined.
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the narrowest width output is wrapped to.
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width in columns, clamped to
// MinTerminalWidth. Non-TTY output gets DefaultTerminalWidth.
func GetTerminalWidth() int {
	if !IsStdoutTTY() {
		return DefaultTerminalWidth
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// WrapText wraps text to the given width, preserving existing line breaks.
// Words longer than the width are left intact rather than split.
func WrapText(text string, width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}

	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(wrapLine(line, width))
	}
	return out.String()
}

func wrapLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return line
	}

	var out strings.Builder
	lineLen := 0
	for i, word := range words {
		wordLen := len([]rune(word))
		if lineLen > 0 && lineLen+1+wordLen > width {
			out.WriteString("\n")
			lineLen = 0
		} else if i > 0 {
			out.WriteString(" ")
			lineLen++
		}
		out.WriteString(word)
		lineLen += wordLen
	}
	return out.String()
}

// =============================================================================
// COLOR SUPPORT
// =============================================================================

var (
	colorsOnce    sync.Once
	colorsEnabled bool
)

// ColorsEnabled reports whether styled output should be emitted.
//
// Precedence: NO_COLOR disables, FORCE_COLOR enables, otherwise colors
// follow stdout TTY detection. The result is computed once.
func ColorsEnabled() bool {
	colorsOnce.Do(func() {
		if _, set := os.LookupEnv("NO_COLOR"); set {
			colorsEnabled = false
			return
		}
		if v, set := os.LookupEnv("FORCE_COLOR"); set && v != "0" {
			colorsEnabled = true
			return
		}
		colorsEnabled = IsStdoutTTY()
	})
	return colorsEnabled
}

// GetColorProfile returns the lipgloss color profile to render with.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// TTY REQUIREMENTS
// =============================================================================

// TTYRequiredError is returned when an interactive command runs without a
// terminal attached.
type TTYRequiredError struct {
	Command string
}

// Error implements the error interface.
func (e *TTYRequiredError) Error() string {
	return fmt.Sprintf("%s requires an interactive terminal (stdin is not a TTY)", e.Command)
}

// RequireTTY returns a TTYRequiredError unless stdin is a terminal.
func RequireTTY(command string) error {
	if !IsTTY() {
		return &TTYRequiredError{Command: command}
	}
	return nil
}

// init configures lipgloss once per process so every command renders with
// the same profile.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}
