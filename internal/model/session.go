// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "time"

// =============================================================================
// SESSION TYPE
// =============================================================================

// Session is an authenticated user session as issued by the auth backend.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// User identifies the account a session belongs to.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// IsExpired reports whether the access token has passed its expiry.
// A zero ExpiresAt means the expiry is unknown and the token is assumed live.
func (s *Session) IsExpired() bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(s.ExpiresAt)
}

// =============================================================================
// PROFILE TYPE
// =============================================================================

// Profile is the per-user row from the profiles table. It may be absent for
// accounts created before profiles existed; callers must treat "no profile"
// as a normal state, not an error.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL string    `json:"avatar_url"`
	Website   string    `json:"website"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the username, falling back to the given email.
func (p *Profile) DisplayName(fallbackEmail string) string {
	if p != nil && p.Username != "" {
		return p.Username
	}
	return fallbackEmail
}
