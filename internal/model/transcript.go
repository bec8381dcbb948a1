// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// MaxTurns is the maximum number of turns kept in a transcript. When
// exceeded, the oldest turns are pruned to prevent unbounded memory growth.
const MaxTurns = 1000

// PendingReply is the placeholder shown while a reply is in flight.
const PendingReply = "..."

// =============================================================================
// CHAT TURN
// =============================================================================

// ChatTurn is one prompt/reply exchange. While the reply is in flight the
// turn is Pending and AI holds a placeholder; resolution targets the turn by
// ID so a stale response can never land on the wrong turn.
type ChatTurn struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	AI        string    `json:"ai"`
	Pending   bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPendingTurn creates a turn for a just-sent prompt with a placeholder
// reply and a generated ID.
func NewPendingTurn(prompt string) ChatTurn {
	return ChatTurn{
		ID:        uuid.NewString(),
		User:      prompt,
		AI:        PendingReply,
		Pending:   true,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// Transcript is the ordered list of turns shown in the chat panel. It is not
// safe for concurrent use; all mutation happens on the UI event loop.
type Transcript struct {
	turns []ChatTurn
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{turns: make([]ChatTurn, 0)}
}

// Append adds a turn to the end of the transcript and returns its ID.
func (t *Transcript) Append(turn ChatTurn) string {
	t.turns = append(t.turns, turn)
	t.prune()
	return turn.ID
}

// Resolve replaces the placeholder reply of the turn with the given ID and
// clears its pending flag. Returns false if no turn has that ID (the
// transcript was cleared while the request was in flight).
func (t *Transcript) Resolve(id, reply string) bool {
	for i := range t.turns {
		if t.turns[i].ID == id {
			t.turns[i].AI = reply
			t.turns[i].Pending = false
			return true
		}
	}
	return false
}

// ReplaceAll swaps the entire transcript for the given turns, preserving
// their order. Used when remote history loads.
func (t *Transcript) ReplaceAll(turns []ChatTurn) {
	t.turns = make([]ChatTurn, len(turns))
	copy(t.turns, turns)
	t.prune()
}

// Clear removes every turn.
func (t *Transcript) Clear() {
	t.turns = make([]ChatTurn, 0)
}

// Turns returns the turns in order. The slice must not be mutated.
func (t *Transcript) Turns() []ChatTurn {
	return t.turns
}

// Len returns the number of turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// IsEmpty reports whether the transcript has no turns.
func (t *Transcript) IsEmpty() bool {
	return len(t.turns) == 0
}

// HasPending reports whether any turn is still awaiting its reply.
func (t *Transcript) HasPending() bool {
	for i := range t.turns {
		if t.turns[i].Pending {
			return true
		}
	}
	return false
}

func (t *Transcript) prune() {
	if len(t.turns) > MaxTurns {
		t.turns = t.turns[len(t.turns)-MaxTurns:]
	}
}
