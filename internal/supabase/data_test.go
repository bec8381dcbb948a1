// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voidai-tui/internal/model"
)

func newTestDataClient(srvURL string) *DataClient {
	return NewDataClient(srvURL, "anon-key", func() string { return "user-token" })
}

// =============================================================================
// LIST CHATS TESTS
// =============================================================================

func TestListChats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/chats", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "eq.user-1", q.Get("user_id"))
		assert.Equal(t, "created_at.asc", q.Get("order"))
		assert.Equal(t, "anon-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))

		w.Write([]byte(`[
			{"id":"c1","user_id":"user-1","message":"hi","response":"hello","created_at":"2025-08-01T10:00:00Z"},
			{"id":"c2","user_id":"user-1","message":"more","response":"sure","created_at":"2025-08-01T10:01:00Z"}
		]`))
	}))
	defer srv.Close()

	data := newTestDataClient(srv.URL)
	turns, err := data.ListChats(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "c1", turns[0].ID)
	assert.Equal(t, "hi", turns[0].User)
	assert.Equal(t, "hello", turns[0].AI)
	assert.False(t, turns[0].Pending)
}

func TestListChatsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	data := newTestDataClient(srv.URL)
	turns, err := data.ListChats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Empty(t, turns)
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestGetProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/v1/profiles", r.URL.Path)
		assert.Equal(t, "application/vnd.pgrst.object+json", r.Header.Get("Accept"))
		w.Write([]byte(`{"id":"user-1","username":"void_user","full_name":"Void User","avatar_url":"https://cdn.example/a.png","website":"https://example.com","updated_at":"2025-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	data := newTestDataClient(srv.URL)
	profile, err := data.GetProfile(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, "void_user", profile.Username)
	assert.Equal(t, "Void User", profile.FullName)
	assert.Equal(t, "https://cdn.example/a.png", profile.AvatarURL)
	assert.Equal(t, "https://example.com", profile.Website)
	assert.False(t, profile.UpdatedAt.IsZero())
}

func TestGetProfileNoRows(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"406 not acceptable", http.StatusNotAcceptable, `{"message":"JSON object requested, multiple (or no) rows returned"}`},
		{"PGRST116 code", http.StatusBadRequest, `{"code":"PGRST116","message":"no rows"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			data := newTestDataClient(srv.URL)
			profile, err := data.GetProfile(context.Background(), "user-1")

			assert.Nil(t, profile)
			// A missing profile is the distinguished ErrNoRows, never a
			// generic failure.
			assert.True(t, errors.Is(err, ErrNoRows))
		})
	}
}

func TestGetProfileServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"connection pool exhausted"}`))
	}))
	defer srv.Close()

	data := newTestDataClient(srv.URL)
	_, err := data.GetProfile(context.Background(), "user-1")

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoRows))

	var de *DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "connection pool exhausted", de.Message)
}

// =============================================================================
// TRAINING SESSION TESTS
// =============================================================================

func TestInsertTrainingSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/rest/v1/training_sessions", r.URL.Path)
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user-1", body["user_id"])
		assert.Equal(t, "training text", body["text"])
		assert.Equal(t, "pending", body["status"])

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	data := newTestDataClient(srv.URL)
	row := model.NewTrainingSession("user-1", "training text")
	err := data.InsertTrainingSession(context.Background(), row)

	require.NoError(t, err)
}

func TestInsertTrainingSessionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"JWT expired"}`))
	}))
	defer srv.Close()

	data := newTestDataClient(srv.URL)
	err := data.InsertTrainingSession(context.Background(), model.NewTrainingSession("user-1", "text"))

	// The panel logs this and moves on; it just has to be an error.
	require.Error(t, err)
}

// =============================================================================
// TOKEN SUPPLIER TESTS
// =============================================================================

func TestAnonFallbackWhenSignedOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer anon-key", r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	data := NewDataClient(srv.URL, "anon-key", func() string { return "" })
	_, err := data.ListChats(context.Background(), "user-1")
	require.NoError(t, err)
}
