// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/storage"
	"github.com/jeranaias/voidai-tui/internal/ui/components"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat panel. One send is in flight at
// most: the busy flag blocks further submits until the pending turn resolves.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	transcript *model.Transcript
	apiClient  *api.Client

	// cache is the offline history cache. Nil disables caching; all writes
	// are best-effort.
	cache  *storage.HistoryCache
	userID string

	viewport viewport.Model
	input    *components.InputArea
	spinner  components.Spinner

	busy          bool
	markdownWidth int
	renderer      *glamour.TermRenderer
}

// New creates a chat panel over the given backend client. cache may be nil.
func New(theme *styles.Theme, apiClient *api.Client, cache *storage.HistoryCache) Model {
	vp := viewport.New(80, 20)
	vp.SetContent("")

	input := components.NewInputArea(theme, "Type a message...")
	input.Focus()

	m := Model{
		theme:         theme,
		width:         80,
		height:        24,
		transcript:    model.NewTranscript(),
		apiClient:     apiClient,
		cache:         cache,
		viewport:      vp,
		input:         input,
		spinner:       components.NewThinkingSpinner(theme),
		markdownWidth: 80,
	}
	m.initRenderer()
	return m
}

// initRenderer builds the markdown renderer for the current width.
func (m *Model) initRenderer() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.markdownWidth),
	)
	if err != nil {
		// Replies fall back to plain text.
		m.renderer = nil
		return
	}
	m.renderer = renderer
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	inputHeight := 4
	m.viewport.Width = width
	m.viewport.Height = height - inputHeight
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.input.SetWidth(width)

	mdWidth := width - 10
	if mdWidth < 20 {
		mdWidth = 20
	}
	if mdWidth != m.markdownWidth {
		m.markdownWidth = mdWidth
		m.initRenderer()
	}
	m.refreshViewport(false)
}

// SetUser sets the user sent on chat requests and owning the cached history
// rows. Called on session change.
func (m *Model) SetUser(userID string) {
	m.userID = userID
}

// Focus gives the input focus.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Blur removes input focus.
func (m *Model) Blur() {
	m.input.Blur()
}

// Busy reports whether a send is awaiting its reply.
func (m *Model) Busy() bool {
	return m.busy
}

// Transcript exposes the panel's transcript for the root model.
func (m *Model) Transcript() *model.Transcript {
	return m.transcript
}

// LoadHistory replaces the transcript with remote history and mirrors it
// into the offline cache.
func (m *Model) LoadHistory(turns []model.ChatTurn) tea.Cmd {
	m.transcript.ReplaceAll(turns)
	m.refreshViewport(true)

	if m.cache == nil || m.userID == "" {
		return nil
	}
	cache, userID := m.cache, m.userID
	snapshot := m.transcript.Turns()
	return func() tea.Msg {
		if err := cache.ReplaceAll(context.Background(), userID, snapshot); err != nil {
			log.Printf("history cache replace failed: %v", err)
		}
		return CachedMsg{}
	}
}

// Clear drops the transcript. Called on sign-out.
func (m *Model) Clear() {
	m.transcript.Clear()
	m.busy = false
	m.spinner.Stop()
	m.input.Reset()
	m.refreshViewport(false)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles panel messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if cmd := m.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		case "pgup":
			m.viewport.HalfViewUp()
		case "pgdown":
			m.viewport.HalfViewDown()
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case ReplyMsg:
		cmds = append(cmds, m.resolve(msg)...)

	default:
		if cmd := m.spinner.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// submit appends an optimistic turn and fires the send. A send already in
// flight or an empty input is a no-op.
func (m *Model) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}

	turn := model.NewPendingTurn(text)
	m.transcript.Append(turn)
	m.input.Reset()
	m.busy = true
	m.refreshViewport(true)

	return tea.Batch(m.spinner.Start(), m.sendCmd(turn.ID, text))
}

// sendCmd calls the backend. Error text becomes the reply so the transcript
// always resolves.
func (m *Model) sendCmd(turnID, text string) tea.Cmd {
	client, userID := m.apiClient, m.userID
	return func() tea.Msg {
		reply, err := client.Chat(context.Background(), text, userID, nil)
		if err != nil {
			return ReplyMsg{TurnID: turnID, Reply: api.DisplayError(err), Failed: true}
		}
		return ReplyMsg{TurnID: turnID, Reply: reply}
	}
}

// resolve fills in the pending turn the reply belongs to.
func (m *Model) resolve(msg ReplyMsg) []tea.Cmd {
	m.busy = false
	m.spinner.Stop()

	if !m.transcript.Resolve(msg.TurnID, msg.Reply) {
		// The transcript was cleared while the send was in flight
		// (sign-out); drop the reply.
		return nil
	}
	m.refreshViewport(true)

	if msg.Failed || m.cache == nil || m.userID == "" {
		return nil
	}

	// Persist the completed turn off the UI loop.
	var resolved model.ChatTurn
	for _, turn := range m.transcript.Turns() {
		if turn.ID == msg.TurnID {
			resolved = turn
			break
		}
	}
	cache, userID := m.cache, m.userID
	return []tea.Cmd{func() tea.Msg {
		if err := cache.Append(context.Background(), userID, resolved); err != nil {
			log.Printf("history cache append failed: %v", err)
		}
		return CachedMsg{}
	}}
}
