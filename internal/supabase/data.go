// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jeranaias/voidai-tui/internal/model"
)

// Data is the database capability consumed by the session controller and
// the panels.
type Data interface {
	// ListChats returns the user's chat rows in ascending creation order.
	ListChats(ctx context.Context, userID string) ([]model.ChatTurn, error)
	// GetProfile returns the user's profile row, or ErrNoRows when absent.
	GetProfile(ctx context.Context, userID string) (*model.Profile, error)
	// InsertTrainingSession records a training submission. Best effort.
	InsertTrainingSession(ctx context.Context, row model.TrainingSession) error
}

// =============================================================================
// DATA CLIENT
// =============================================================================

// DataClient talks to the PostgREST API under {project}/rest/v1. Requests
// carry the anon key plus the user's access token, so row-level security
// scopes every query to the signed-in user.
type DataClient struct {
	baseURL string
	anonKey string
	// tokenFn supplies the current access token per request so the client
	// never holds a stale one across refreshes.
	tokenFn func() string
}

// NewDataClient creates a data client for the given project URL and anon
// key. tokenFn returns the current access token, or empty when signed out.
func NewDataClient(projectURL, anonKey string, tokenFn func() string) *DataClient {
	return &DataClient{
		baseURL: strings.TrimSuffix(projectURL, "/") + "/rest/v1",
		anonKey: anonKey,
		tokenFn: tokenFn,
	}
}

// chatRow is the chats table shape.
type chatRow struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// ListChats returns the user's chat history ordered oldest-first, ready to
// replace the transcript wholesale.
func (c *DataClient) ListChats(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("select", "*")
	query.Set("order", "created_at.asc")

	body, err := c.do(ctx, http.MethodGet, "/chats?"+query.Encode(), nil, "")
	if err != nil {
		return nil, err
	}

	var rows []chatRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse chats: %w", err)
	}

	turns := make([]model.ChatTurn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, model.ChatTurn{
			ID:        row.ID,
			User:      row.Message,
			AI:        row.Response,
			CreatedAt: row.CreatedAt,
		})
	}
	return turns, nil
}

// GetProfile fetches the user's profile row. A missing row comes back as
// ErrNoRows; callers display the email instead, they do not error.
func (c *DataClient) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := url.Values{}
	query.Set("id", "eq."+userID)
	query.Set("select", "*")

	// The single-object Accept header makes PostgREST 406 on zero rows,
	// which maps onto ErrNoRows below.
	body, err := c.do(ctx, http.MethodGet, "/profiles?"+query.Encode(), nil, "application/vnd.pgrst.object+json")
	if err != nil {
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// InsertTrainingSession records a training submission in the
// training_sessions table.
func (c *DataClient) InsertTrainingSession(ctx context.Context, row model.TrainingSession) error {
	payload := map[string]interface{}{
		"id":      row.ID,
		"user_id": row.UserID,
		"text":    row.Text,
		"status":  row.Status,
	}
	_, err := c.do(ctx, http.MethodPost, "/training_sessions", payload, "")
	return err
}

// =============================================================================
// TRANSPORT
// =============================================================================

// pgrstError is PostgREST's error body.
type pgrstError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// do performs a PostgREST request with auth headers attached.
func (c *DataClient) do(ctx context.Context, method, path string, body interface{}, accept string) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if method == http.MethodPost {
		req.Header.Set("Prefer", "return=minimal")
	}

	token := c.anonKey
	if c.tokenFn != nil {
		if t := c.tokenFn(); t != "" {
			token = t
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	log.Printf("Data Request: %s %s", method, strings.SplitN(path, "?", 2)[0])
	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("data request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("Data Response: %d (%v)", resp.StatusCode, time.Since(start))

	respBody, err := readLimited(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.mapError(resp.StatusCode, respBody)
	}
	return respBody, nil
}

// mapError converts PostgREST error responses, distinguishing the "zero
// rows for a single-object request" case.
func (c *DataClient) mapError(status int, body []byte) error {
	var pge pgrstError
	_ = json.Unmarshal(body, &pge)

	// PGRST116 is "JSON object requested, multiple (or no) rows returned".
	// A 406 on a single-object GET means the same thing.
	if pge.Code == "PGRST116" || status == http.StatusNotAcceptable {
		return ErrNoRows
	}

	msg := pge.Message
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	return &DataError{Code: pge.Code, Message: msg, Status: status}
}
