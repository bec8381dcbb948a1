// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/model"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat panel: transcript viewport, spinner line, input.
func (m Model) View() string {
	parts := []string{m.viewport.View()}

	if spin := m.spinner.View(); spin != "" {
		parts = append(parts, spin)
	}
	parts = append(parts, m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// refreshViewport re-renders the transcript. followTail scrolls to the
// bottom, which is what every append and resolve wants.
func (m *Model) refreshViewport(followTail bool) {
	m.viewport.SetContent(m.renderTranscript())
	if followTail {
		m.viewport.GotoBottom()
	}
}

// renderTranscript renders all turns as alternating bubbles.
func (m *Model) renderTranscript() string {
	turns := m.transcript.Turns()
	if len(turns) == 0 {
		return m.theme.PageTagline.Render("Say something to the void.")
	}

	bubbleWidth := m.width - 8
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}

	var sb strings.Builder
	for n, turn := range turns {
		if n > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(m.renderTurn(turn, bubbleWidth))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderTurn renders one prompt/reply pair.
func (m *Model) renderTurn(turn model.ChatTurn, width int) string {
	user := m.theme.UserBubble.MaxWidth(width).Render(turn.User)
	userLine := lipgloss.PlaceHorizontal(m.width, lipgloss.Right, user)

	var reply string
	if turn.Pending {
		reply = m.theme.AIBubble.MaxWidth(width).Render(model.PendingReply)
	} else {
		reply = m.theme.AIBubble.MaxWidth(width).Render(m.renderMarkdown(turn.AI))
	}

	return userLine + "\n" + reply
}

// renderMarkdown renders a reply as markdown, falling back to the raw text.
func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
