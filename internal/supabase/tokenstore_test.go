// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supabase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/voidai-tui/internal/model"
)

func testSession() *model.Session {
	return &model.Session{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		TokenType:    "bearer",
		ExpiresIn:    3600,
		ExpiresAt:    time.Now().Add(time.Hour).Truncate(time.Second),
		User:         model.User{ID: "user-1", Email: "me@example.com"},
	}
}

func TestTokenStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewTokenStore(path, nil)

	sess := testSession()
	require.NoError(t, store.Save(sess))

	// The file on disk must not contain the tokens in the clear.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "ENC:"))
	assert.NotContains(t, string(raw), "access-token")
	assert.NotContains(t, string(raw), "refresh-token")

	loaded, err := store.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sess.AccessToken, loaded.AccessToken)
	assert.Equal(t, sess.RefreshToken, loaded.RefreshToken)
	assert.Equal(t, sess.User.ID, loaded.User.ID)
}

func TestTokenStoreMissingFile(t *testing.T) {
	store := NewTokenStore(filepath.Join(t.TempDir(), "absent.json"), nil)

	sess, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestTokenStoreTamperedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewTokenStore(path, nil)
	require.NoError(t, store.Save(testSession()))

	// Flip a byte in the ciphertext: the GCM tag must reject it.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[len(raw)-2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, raw, 0600))

	_, err = store.Load()
	assert.Error(t, err)
}

func TestTokenStoreGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not encrypted at all"), 0600))

	store := NewTokenStore(path, nil)
	_, err := store.Load()
	assert.Error(t, err)
}

func TestTokenStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewTokenStore(path, nil)
	require.NoError(t, store.Save(testSession()))

	require.NoError(t, store.Clear())
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Clearing an already-clear store is fine.
	require.NoError(t, store.Clear())
}
