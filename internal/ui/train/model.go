// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package train provides the training panel: submit text to the backend
// /train endpoint and poll /status while the panel is visible.
package train

import (
	"context"
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/supabase"
	"github.com/jeranaias/voidai-tui/internal/ui/components"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SubmitResultMsg carries the backend's raw /train response. The payload is
// shown verbatim; there is no success path distinct from the failure path.
type SubmitResultMsg struct {
	Raw string
}

// RecordedMsg reports that the training session row insert finished. The
// insert is best-effort; failures are already logged.
type RecordedMsg struct{}

// pollTickMsg fires one poll interval. Gen ties the tick to the poll
// generation that scheduled it, so stale loops die on arrival.
type pollTickMsg struct {
	Gen int
}

// statusMsg carries one /status response.
type statusMsg struct {
	Gen    int
	Status api.StatusResponse
}

// =============================================================================
// TRAIN MODEL
// =============================================================================

// Model is the Bubble Tea model for the training panel.
type Model struct {
	theme  *styles.Theme
	width  int
	height int

	apiClient *api.Client
	data      supabase.Data
	userID    string

	input  *components.InputArea
	notice string // transient line under the input
	result string // raw /train response, shown verbatim

	busy bool // one /train submission at a time

	// Poll loop state. generation invalidates outstanding ticks and
	// responses; inFlight caps the loop at one outstanding request.
	statusLine  string // what the panel shows
	statusState string // raw status value, drives the color
	generation  int
	inFlight    bool
	interval    time.Duration
}

// New creates a training panel. interval is the /status poll cadence.
func New(theme *styles.Theme, apiClient *api.Client, data supabase.Data, interval time.Duration) Model {
	input := components.NewInputArea(theme, "Paste text to train on...")
	input.SetMaxChars(8192)

	return Model{
		theme:     theme,
		width:     80,
		height:    24,
		apiClient: apiClient,
		data:      data,
		input:     input,
		interval:  interval,
	}
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width)
}

// SetUser sets the user the training rows belong to.
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

// Busy reports whether a submission is awaiting its response.
func (m *Model) Busy() bool {
	return m.busy
}

// =============================================================================
// POLL LOOP
// =============================================================================

// StartPolling begins the /status loop. Each call supersedes earlier loops:
// outstanding ticks from the previous generation are dropped on arrival.
func (m *Model) StartPolling() tea.Cmd {
	m.generation++
	m.inFlight = false
	return m.tickCmd()
}

// StopPolling invalidates the running loop. Outstanding ticks and responses
// still arrive but are ignored.
func (m *Model) StopPolling() {
	m.generation++
	m.inFlight = false
	m.statusLine = ""
	m.statusState = ""
}

func (m *Model) tickCmd() tea.Cmd {
	gen := m.generation
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollTickMsg{Gen: gen}
	})
}

func (m *Model) statusCmd() tea.Cmd {
	gen := m.generation
	client := m.apiClient
	return func() tea.Msg {
		status, err := client.TrainingStatus(context.Background())
		if err != nil {
			log.Printf("status poll: %v", err)
		}
		return statusMsg{Gen: gen, Status: status}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles panel messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "enter" {
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case pollTickMsg:
		if msg.Gen != m.generation {
			return m, nil // stale loop, let it die
		}
		cmds := []tea.Cmd{m.tickCmd()}
		if !m.inFlight {
			m.inFlight = true
			cmds = append(cmds, m.statusCmd())
		}
		return m, tea.Batch(cmds...)

	case statusMsg:
		if msg.Gen != m.generation {
			return m, nil
		}
		m.inFlight = false
		m.statusLine = msg.Status.Display()
		m.statusState = msg.Status.Status
		return m, nil

	case SubmitResultMsg:
		m.busy = false
		m.result = msg.Raw
		// The submitted text stays visible while the request runs; clear it
		// only once the backend has answered.
		m.input.Reset()
		return m, nil
	}

	return m, nil
}

// submit fires the training request. The notice appears immediately; the
// response lands later as SubmitResultMsg.
func (m *Model) submit() tea.Cmd {
	if m.busy {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		m.notice = "Enter some text first."
		return nil
	}

	m.busy = true
	m.notice = "Training started..."
	m.result = ""

	cmds := []tea.Cmd{m.trainCmd(text)}
	if m.data != nil && m.userID != "" {
		cmds = append(cmds, m.recordCmd(text))
	}
	return tea.Batch(cmds...)
}

// trainCmd posts to /train. The client folds failures into an error-shaped
// payload, so there is always something to show.
func (m *Model) trainCmd(text string) tea.Cmd {
	client := m.apiClient
	return func() tea.Msg {
		raw, err := client.Train(context.Background(), text)
		if err != nil {
			log.Printf("train submit: %v", err)
		}
		return SubmitResultMsg{Raw: string(raw)}
	}
}

// recordCmd inserts the training session row. Best-effort: the submission
// proceeds whether or not the row lands.
func (m *Model) recordCmd(text string) tea.Cmd {
	data, userID := m.data, m.userID
	return func() tea.Msg {
		row := model.NewTrainingSession(userID, text)
		if err := data.InsertTrainingSession(context.Background(), row); err != nil {
			log.Printf("training session insert failed: %v", err)
		}
		return RecordedMsg{}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the training panel.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.theme.TrainTitle.Render("Train the void"))
	sb.WriteString("\n\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n")

	if m.notice != "" {
		sb.WriteString(m.theme.FormNotice.Render(m.notice))
		sb.WriteString("\n")
	}
	if m.result != "" {
		sb.WriteString(m.theme.TrainResponse.Render(m.result))
		sb.WriteString("\n")
	}
	if m.statusLine != "" {
		sb.WriteString(m.statusStyle().Render("status: " + m.statusLine))
		sb.WriteString("\n")
	}

	return m.theme.TrainBox.Width(m.width - 4).Render(sb.String())
}

// statusStyle colors the status line by the reported state.
func (m Model) statusStyle() lipgloss.Style {
	switch model.TrainingStatus(m.statusState) {
	case model.TrainingComplete:
		return m.theme.TrainStatusDone
	case model.TrainingError:
		return m.theme.TrainStatusError
	case model.TrainingStarted, model.TrainingRunning:
		return m.theme.TrainStatusRunning
	default:
		return m.theme.TrainStatusIdle
	}
}
