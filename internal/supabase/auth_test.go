// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supabase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voidai-tui/internal/model"
)

func grantResponse(userID string) tokenResponse {
	return tokenResponse{
		AccessToken:  "access-token",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		RefreshToken: "refresh-token",
		User:         model.User{ID: userID, Email: "me@example.com"},
	}
}

// =============================================================================
// SIGN IN TESTS
// =============================================================================

func TestSignInWithPassword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/token", r.URL.Path)
		require.Equal(t, "password", r.URL.Query().Get("grant_type"))
		require.Equal(t, "anon-key", r.Header.Get("apikey"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "me@example.com", body["email"])
		assert.Equal(t, "hunter2", body["password"])

		json.NewEncoder(w).Encode(grantResponse("user-1"))
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")
	sess, err := auth.SignInWithPassword(context.Background(), "me@example.com", "hunter2")

	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "access-token", sess.AccessToken)
	assert.Equal(t, "user-1", sess.User.ID)
	assert.False(t, sess.IsExpired())

	// The session is now the client's current session.
	assert.Equal(t, sess, auth.GetSession(context.Background()))
}

func TestSignInInvalidCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")
	sess, err := auth.SignInWithPassword(context.Background(), "me@example.com", "wrong")

	require.Error(t, err)
	assert.Nil(t, sess)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusBadRequest, ae.Status)
	assert.Equal(t, "Invalid login credentials", AuthMessage(err))
}

func TestAuthMessageFallback(t *testing.T) {
	auth := NewAuthClient("http://127.0.0.1:1", "anon-key")
	_, err := auth.SignInWithPassword(context.Background(), "a@b.c", "pw")

	require.Error(t, err)
	assert.Equal(t, "Authentication failed. Please try again.", AuthMessage(err))
}

// =============================================================================
// SIGN UP TESTS
// =============================================================================

func TestSignUpWithUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/v1/signup", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		meta, ok := body["data"].(map[string]interface{})
		require.True(t, ok, "signup metadata missing")
		assert.Equal(t, "void_user", meta["username"])

		json.NewEncoder(w).Encode(grantResponse("user-2"))
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")
	sess, err := auth.SignUp(context.Background(), "new@example.com", "hunter2", "void_user")

	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "user-2", sess.User.ID)
}

func TestSignUpEmailConfirmationPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Projects with confirmation enabled return a user but no tokens.
		w.Write([]byte(`{"id":"user-3","email":"new@example.com"}`))
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")
	sess, err := auth.SignUp(context.Background(), "new@example.com", "hunter2", "void_user")

	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Nil(t, auth.GetSession(context.Background()))
}

// =============================================================================
// SIGN OUT TESTS
// =============================================================================

func TestSignOutClearsLocalStateEvenOnServerError(t *testing.T) {
	grant := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if grant {
			grant = false
			json.NewEncoder(w).Encode(grantResponse("user-1"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")
	_, err := auth.SignInWithPassword(context.Background(), "me@example.com", "pw")
	require.NoError(t, err)

	err = auth.SignOut(context.Background())
	require.Error(t, err)

	// The local session must be gone regardless of the server response.
	assert.Nil(t, auth.GetSession(context.Background()))
}

// =============================================================================
// LISTENER TESTS
// =============================================================================

func TestOnAuthStateChange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(grantResponse("user-1"))
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")

	var events []*model.Session
	unsubscribe := auth.OnAuthStateChange(func(s *model.Session) {
		events = append(events, s)
	})

	_, err := auth.SignInWithPassword(context.Background(), "me@example.com", "pw")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.NotNil(t, events[0])

	// After unsubscribing, no further notifications arrive.
	unsubscribe()
	auth.SignOut(context.Background())
	assert.Len(t, events, 1)

	// Double unsubscribe is harmless.
	unsubscribe()
}

func TestSignOutNotifiesListenersWithNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(grantResponse("user-1"))
	}))
	defer srv.Close()

	auth := NewAuthClient(srv.URL, "anon-key")
	_, err := auth.SignInWithPassword(context.Background(), "me@example.com", "pw")
	require.NoError(t, err)

	var got []*model.Session
	defer auth.OnAuthStateChange(func(s *model.Session) {
		got = append(got, s)
	})()

	require.NoError(t, auth.SignOut(context.Background()))
	require.Len(t, got, 1)
	assert.Nil(t, got[0])
}
