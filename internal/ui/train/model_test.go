// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package train

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/supabase"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

type recordingData struct {
	inserted atomic.Int64
}

func (r *recordingData) ListChats(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	return nil, nil
}

func (r *recordingData) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	return nil, supabase.ErrNoRows
}

func (r *recordingData) InsertTrainingSession(ctx context.Context, row model.TrainingSession) error {
	r.inserted.Add(1)
	return nil
}

func newTestModel(backendURL string, data supabase.Data) Model {
	return New(styles.NewTheme("dark"), api.NewClient(backendURL), data, 2*time.Second)
}

func submitText(t *testing.T, m *Model, text string) tea.Cmd {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	*m = next
	return cmd
}

// drain invokes a command, flattening one level of batch, and returns all
// produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, sub := range batch {
		if got := sub(); got != nil {
			out = append(out, got)
		}
	}
	return out
}

func TestSubmitShowsImmediateNotice(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1", nil)
	submitText(t, &m, "learn this")

	if !m.Busy() {
		t.Error("panel should be busy after submit")
	}
	if !strings.Contains(m.View(), "Training started...") {
		t.Error("notice should show before the response arrives")
	}
	if m.input.Value() != "learn this" {
		t.Error("submitted text should stay visible while the request runs")
	}
}

func TestSubmitGuards(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1", nil)

	if cmd := submitText(t, &m, "   "); cmd != nil {
		t.Error("empty input should not submit")
	}
	if m.Busy() {
		t.Error("panel should stay idle on empty input")
	}

	submitText(t, &m, "first")
	if cmd := submitText(t, &m, "second"); cmd != nil {
		t.Error("submit while busy should be dropped")
	}
}

func TestTrainResponseShownVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"Training job queued","job_id":"j-42"}`))
	}))
	defer srv.Close()

	m := newTestModel(srv.URL, nil)
	cmd := submitText(t, &m, "learn this")

	for _, msg := range drain(cmd) {
		m, _ = m.Update(msg)
	}

	if m.Busy() {
		t.Error("panel should be idle after the response")
	}
	if m.input.Value() != "" {
		t.Error("input should clear once the response arrives")
	}
	view := m.View()
	if !strings.Contains(view, "Training job queued") {
		t.Errorf("response payload should render verbatim:\n%s", view)
	}
}

func TestTrainFailureShownVerbatim(t *testing.T) {
	// Unreachable backend: the client synthesizes an error payload and the
	// panel shows it exactly like a success payload.
	m := newTestModel("http://127.0.0.1:1", nil)
	cmd := submitText(t, &m, "learn this")

	for _, msg := range drain(cmd) {
		m, _ = m.Update(msg)
	}

	view := m.View()
	if !strings.Contains(view, "error") {
		t.Errorf("synthesized error payload should render:\n%s", view)
	}
}

func TestSubmitRecordsTrainingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	data := &recordingData{}
	m := newTestModel(srv.URL, data)
	m.SetUser("user-1")

	cmd := submitText(t, &m, "learn this")
	drain(cmd)

	if data.inserted.Load() != 1 {
		t.Errorf("inserted %d rows, want 1", data.inserted.Load())
	}
}

func TestPollLoopGenerations(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1", nil)

	if cmd := m.StartPolling(); cmd == nil {
		t.Fatal("StartPolling should schedule a tick")
	}
	gen := m.generation

	// A tick from the current generation issues a request and reschedules.
	next, cmd := m.Update(pollTickMsg{Gen: gen})
	m = next
	if cmd == nil {
		t.Fatal("live tick should produce commands")
	}
	if !m.inFlight {
		t.Error("tick should mark a request in flight")
	}

	// A second tick while in flight reschedules without a second request:
	// the returned batch carries exactly one command.
	next, cmd = m.Update(pollTickMsg{Gen: gen})
	m = next
	if cmd == nil {
		t.Fatal("tick should always reschedule")
	}

	// Stale ticks after StopPolling are dropped entirely.
	m.StopPolling()
	next, cmd = m.Update(pollTickMsg{Gen: gen})
	m = next
	if cmd != nil {
		t.Error("stale tick should not reschedule")
	}

	// Stale status responses are ignored too.
	next, _ = m.Update(statusMsg{Gen: gen, Status: api.StatusResponse{Status: "running"}})
	m = next
	if m.statusLine != "" {
		t.Error("stale status should not update the panel")
	}
}

func TestStatusDisplayed(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1", nil)
	m.StartPolling()

	next, _ := m.Update(statusMsg{
		Gen:    m.generation,
		Status: api.StatusResponse{Status: "running", Message: "epoch 3/10"},
	})
	m = next

	if !strings.Contains(m.View(), "epoch 3/10") {
		t.Errorf("status message should render:\n%s", m.View())
	}
	if m.inFlight {
		t.Error("status arrival should clear the in-flight flag")
	}
}
