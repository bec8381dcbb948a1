// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
)

func newTestModel(backendURL string) Model {
	return New(styles.NewTheme("dark"), api.NewClient(backendURL), nil)
}

// submitText types text into the input and presses enter, returning the
// send command.
func submitText(t *testing.T, m *Model, text string) tea.Cmd {
	t.Helper()
	m.input.SetValue(text)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	*m = next
	return cmd
}

func TestSubmitAppendsPendingTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"hello back"}`))
	}))
	defer srv.Close()

	m := newTestModel(srv.URL)
	cmd := submitText(t, &m, "hello")

	if cmd == nil {
		t.Fatal("submit should return a command")
	}
	if !m.Busy() {
		t.Error("panel should be busy while the send is in flight")
	}

	turns := m.Transcript().Turns()
	if len(turns) != 1 {
		t.Fatalf("got %d turns, want 1", len(turns))
	}
	if !turns[0].Pending || turns[0].AI != model.PendingReply {
		t.Errorf("turn should be pending with placeholder, got %+v", turns[0])
	}
	if turns[0].User != "hello" {
		t.Errorf("prompt = %q", turns[0].User)
	}
	if m.input.Value() != "" {
		t.Error("input should clear on submit")
	}
}

func TestSendCarriesUserID(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	m := newTestModel(srv.URL)
	m.SetUser("user-7")
	cmd := submitText(t, &m, "hello")

	reply := findReply(t, cmd())
	if reply.Failed {
		t.Fatalf("send failed: %q", reply.Reply)
	}
	if gotBody["prompt"] != "hello" || gotBody["user_id"] != "user-7" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestSubmitWhileBusyIsIgnored(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1")
	submitText(t, &m, "first")

	if cmd := submitText(t, &m, "second"); cmd != nil {
		t.Error("second submit should be dropped while busy")
	}
	if got := m.Transcript().Len(); got != 1 {
		t.Errorf("transcript has %d turns, want 1", got)
	}
}

func TestSubmitEmptyIsIgnored(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1")
	if cmd := submitText(t, &m, "   "); cmd != nil {
		t.Error("whitespace-only input should not send")
	}
	if m.Busy() {
		t.Error("panel should stay idle")
	}
}

func TestReplyResolvesMatchingTurn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"the reply"}`))
	}))
	defer srv.Close()

	m := newTestModel(srv.URL)
	cmd := submitText(t, &m, "question")

	// Run the send synchronously and feed the reply back.
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if ok {
		// The batch holds the spinner tick and the send; find the reply.
		for _, sub := range batch {
			if got := sub(); got != nil {
				if reply, isReply := got.(ReplyMsg); isReply {
					msg = reply
					break
				}
			}
		}
	}

	reply, ok := msg.(ReplyMsg)
	if !ok {
		t.Fatalf("expected ReplyMsg, got %T", msg)
	}
	if reply.Failed || reply.Reply != "the reply" {
		t.Fatalf("unexpected reply: %+v", reply)
	}

	m, _ = m.Update(reply)
	if m.Busy() {
		t.Error("panel should be idle after resolve")
	}
	turns := m.Transcript().Turns()
	if turns[0].Pending || turns[0].AI != "the reply" {
		t.Errorf("turn not resolved: %+v", turns[0])
	}
}

func TestBackendErrorShownAsReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"model is still loading"}`))
	}))
	defer srv.Close()

	m := newTestModel(srv.URL)
	cmd := submitText(t, &m, "question")

	reply := findReply(t, cmd())
	if !reply.Failed {
		t.Error("backend error should mark the reply failed")
	}
	if reply.Reply != "model is still loading" {
		t.Errorf("error text should become the reply, got %q", reply.Reply)
	}

	m, _ = m.Update(reply)
	turns := m.Transcript().Turns()
	if turns[0].AI != "model is still loading" {
		t.Errorf("transcript should show the error text: %+v", turns[0])
	}
}

func TestTransportFailureShownAsGenericError(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1")
	cmd := submitText(t, &m, "question")

	reply := findReply(t, cmd())
	if !reply.Failed {
		t.Error("transport failure should mark the reply failed")
	}
	if reply.Reply != "Error: could not reach AI" {
		t.Errorf("reply = %q", reply.Reply)
	}
}

func TestStaleReplyAfterClearIsDropped(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1")
	submitText(t, &m, "question")

	turnID := m.Transcript().Turns()[0].ID
	m.Clear()

	m, _ = m.Update(ReplyMsg{TurnID: turnID, Reply: "late"})
	if m.Transcript().Len() != 0 {
		t.Error("reply for a cleared transcript should be dropped")
	}
	if m.Busy() {
		t.Error("clear should reset the busy flag")
	}
}

func TestLoadHistoryReplacesTranscript(t *testing.T) {
	m := newTestModel("http://127.0.0.1:1")
	m.LoadHistory([]model.ChatTurn{
		{ID: "h1", User: "old prompt", AI: "old reply"},
	})

	turns := m.Transcript().Turns()
	if len(turns) != 1 || turns[0].ID != "h1" {
		t.Errorf("history not loaded: %+v", turns)
	}

	view := m.View()
	if !strings.Contains(view, "old prompt") {
		t.Error("view should show loaded history")
	}
}

// findReply unwraps a command result to the ReplyMsg inside, following one
// level of batching.
func findReply(t *testing.T, msg tea.Msg) ReplyMsg {
	t.Helper()
	if reply, ok := msg.(ReplyMsg); ok {
		return reply
	}
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, sub := range batch {
			if got := sub(); got != nil {
				if reply, ok := got.(ReplyMsg); ok {
					return reply
				}
			}
		}
	}
	t.Fatalf("no ReplyMsg in %T", msg)
	return ReplyMsg{}
}
