// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// TRAINING STATUS
// =============================================================================

// TrainingStatus is the lifecycle state reported by the trainer backend.
type TrainingStatus string

const (
	TrainingIdle     TrainingStatus = "idle"
	TrainingStarted  TrainingStatus = "started"
	TrainingRunning  TrainingStatus = "running"
	TrainingComplete TrainingStatus = "complete"
	TrainingError    TrainingStatus = "error"
)

// IsTerminal reports whether polling can stop at this status.
func (s TrainingStatus) IsTerminal() bool {
	return s == TrainingComplete || s == TrainingError
}

// =============================================================================
// TRAINING SESSION
// =============================================================================

// TrainingSession is a row recorded in the training_sessions table when a
// user submits training text. The insert is best effort; the trainer backend
// does not read it.
type TrainingSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionPending is the status a training_sessions row starts in. The
// trainer moves it through training, completed or failed.
const SessionPending = "pending"

// NewTrainingSession creates a pending row for the given user and text with
// a generated ID.
func NewTrainingSession(userID, text string) TrainingSession {
	return TrainingSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Text:      text,
		Status:    SessionPending,
		CreatedAt: time.Now(),
	}
}
