// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat panel for the TUI: an optimistic transcript
// over the backend /chat endpoint.
package chat

// ReplyMsg delivers the AI reply (or its error text) for a pending turn.
// Failed marks transport or backend errors; the text is shown either way.
type ReplyMsg struct {
	TurnID string
	Reply  string
	Failed bool
}

// CachedMsg reports the outcome of a best-effort history-cache write. It
// exists so the write runs off the UI loop; failures are already logged.
type CachedMsg struct{}
