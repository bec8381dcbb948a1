// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides a local SQLite cache of the chat history, so the
// history command works offline and the chat view can render before the
// remote fetch completes.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed        = errors.New("history cache closed")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// HISTORY CACHE
// =============================================================================

// HistoryCache persists completed chat turns per user. It mirrors the remote
// history: a fresh remote fetch replaces the cached rows wholesale, and each
// completed send appends one row. The cache is best-effort; callers log
// failures and carry on.
type HistoryCache struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	prompt     TEXT NOT NULL,
	response   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_user ON turns(user_id, created_at);
`

// OpenHistoryCache opens (or creates) the cache database at path.
func OpenHistoryCache(path string) (*HistoryCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &HistoryCache{db: db}, nil
}

// Close releases the database handle.
func (c *HistoryCache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// ReplaceAll swaps the cached history for a user with a fresh remote copy.
// The delete and inserts run in one transaction so a failure leaves the
// previous cache intact.
func (c *HistoryCache) ReplaceAll(ctx context.Context, userID string, turns []model.ChatTurn) error {
	if c.db == nil {
		return ErrClosed
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM turns WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear cached turns: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO turns (id, user_id, prompt, response, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer stmt.Close()

	for _, turn := range turns {
		if turn.Pending {
			continue // never cache an unresolved turn
		}
		createdAt := turn.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, turn.ID, userID, turn.User, turn.AI, createdAt.Unix()); err != nil {
			return fmt.Errorf("failed to cache turn: %w", err)
		}
	}

	return tx.Commit()
}

// Append caches one completed turn. Re-appending the same turn ID is a no-op.
func (c *HistoryCache) Append(ctx context.Context, userID string, turn model.ChatTurn) error {
	if c.db == nil {
		return ErrClosed
	}
	if turn.Pending {
		return nil
	}

	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO turns (id, user_id, prompt, response, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, turn.ID, userID, turn.User, turn.AI, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to cache turn: %w", err)
	}
	return nil
}

// Clear drops all cached turns for a user. Called on sign-out.
func (c *HistoryCache) Clear(ctx context.Context, userID string) error {
	if c.db == nil {
		return ErrClosed
	}
	_, err := c.db.ExecContext(ctx, "DELETE FROM turns WHERE user_id = ?", userID)
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// List returns a user's cached turns, oldest first.
func (c *HistoryCache) List(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	if c.db == nil {
		return nil, ErrClosed
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT id, prompt, response, created_at
		FROM turns WHERE user_id = ?
		ORDER BY created_at ASC, id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var turns []model.ChatTurn
	for rows.Next() {
		var turn model.ChatTurn
		var createdAt int64
		if err := rows.Scan(&turn.ID, &turn.User, &turn.AI, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		turn.CreatedAt = time.Unix(createdAt, 0)
		turns = append(turns, turn)
	}
	return turns, rows.Err()
}

// Count returns the number of cached turns for a user.
func (c *HistoryCache) Count(ctx context.Context, userID string) (int, error) {
	if c.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM turns WHERE user_id = ?", userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatHistory renders cached turns as a readable transcript for the
// history command.
func FormatHistory(turns []model.ChatTurn) string {
	if len(turns) == 0 {
		return "No chat history."
	}

	var sb strings.Builder
	for i, turn := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(turn.CreatedAt.Format("2006-01-02 15:04") + "\n")
		sb.WriteString("You: " + util.CollapseNewlines(turn.User) + "\n")
		sb.WriteString("AI:  " + turn.AI + "\n")
	}
	return sb.String()
}

// ExportMarkdown renders cached turns as Markdown for piping to a file.
func ExportMarkdown(turns []model.ChatTurn) string {
	var sb strings.Builder
	sb.WriteString("# Chat History\n\n")

	for _, turn := range turns {
		sb.WriteString("**You** (" + turn.CreatedAt.Format(time.RFC3339) + "):\n\n")
		sb.WriteString(turn.User)
		sb.WriteString("\n\n**AI**:\n\n")
		sb.WriteString(turn.AI)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}
