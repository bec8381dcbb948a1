// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the authenticated-session lifecycle: the initial
// session fetch, auth-state subscription, profile loading, and sign-out.
package session

import (
	"context"
	"log"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/supabase"
)

// =============================================================================
// SESSION CONTROLLER
// =============================================================================

// Controller mediates between the auth/data clients and the UI event loop.
// All session state transitions flow through it: the initial restore, the
// auth-state subscription, profile loading, and sign-out.
//
// The controller holds its subscription for its whole lifetime and releases
// it exactly once in Close.
type Controller struct {
	mu sync.Mutex

	auth supabase.Auth
	data supabase.Data

	session *model.Session
	profile *model.Profile

	// profileUser is the user ID the profile was last fetched for. The
	// profile is fetched once per session transition, not per render.
	profileUser string

	// changes queues auth-state events from the client's goroutines onto
	// the UI event loop via WaitForChange.
	changes chan *model.Session

	unsubscribe func()
	closed      bool
}

// NewController creates a controller over the given clients.
func NewController(auth supabase.Auth, data supabase.Data) *Controller {
	return &Controller{
		auth:    auth,
		data:    data,
		changes: make(chan *model.Session, 16),
	}
}

// =============================================================================
// MESSAGES
// =============================================================================

// InitialSessionMsg carries the result of the startup session fetch. A nil
// session means signed out; fetch failures degrade to nil.
type InitialSessionMsg struct {
	Session *model.Session
}

// ChangedMsg is delivered whenever the auth state transitions. A nil
// session means the user signed out.
type ChangedMsg struct {
	Session *model.Session
}

// ProfileMsg carries the loaded profile. Nil means no profile row exists;
// the UI falls back to the account email.
type ProfileMsg struct {
	Profile *model.Profile
}

// HistoryMsg carries the remote chat history, oldest first. A load failure
// arrives as an empty slice.
type HistoryMsg struct {
	Turns []model.ChatTurn
}

// SignInResultMsg carries the outcome of a sign-in attempt.
type SignInResultMsg struct {
	Session *model.Session
	Err     error
}

// SignUpResultMsg carries the outcome of a sign-up attempt. Pending means
// the account was created but needs email confirmation before sign-in.
type SignUpResultMsg struct {
	Session *model.Session
	Pending bool
	Err     error
}

// SignOutDoneMsg indicates sign-out finished. Local state is already clear
// by the time it arrives.
type SignOutDoneMsg struct{}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start subscribes to auth-state changes and kicks off the initial session
// fetch. The returned command resolves to InitialSessionMsg; callers stay
// in their loading state until it arrives.
func (c *Controller) Start(ctx context.Context) tea.Cmd {
	c.mu.Lock()
	if c.unsubscribe == nil && !c.closed {
		c.unsubscribe = c.auth.OnAuthStateChange(func(sess *model.Session) {
			select {
			case c.changes <- sess:
			default:
				// A full queue means the UI is wedged; dropping the
				// event is better than deadlocking an HTTP goroutine.
				log.Printf("auth change dropped: queue full")
			}
		})
	}
	c.mu.Unlock()

	return tea.Batch(
		func() tea.Msg {
			sess := c.auth.GetSession(ctx)
			c.setSession(sess)
			return InitialSessionMsg{Session: sess}
		},
		c.WaitForChange(),
	)
}

// WaitForChange returns a command that blocks until the next auth-state
// event. The root model re-issues it after handling each ChangedMsg so
// there is always exactly one outstanding wait.
func (c *Controller) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		sess, ok := <-c.changes
		if !ok {
			return nil
		}
		c.setSession(sess)
		return ChangedMsg{Session: sess}
	}
}

// Close releases the auth subscription. Safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
	close(c.changes)
}

// =============================================================================
// STATE ACCESSORS
// =============================================================================

// Session returns the current session, or nil when signed out.
func (c *Controller) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Profile returns the loaded profile, or nil when absent or not yet loaded.
func (c *Controller) Profile() *model.Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// DisplayName returns what the header shows for the signed-in user: the
// profile username when present, else the account email.
func (c *Controller) DisplayName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.profile.DisplayName(c.session.User.Email)
}

// AccessToken returns the current access token, or empty when signed out.
// Handed to the data client as its token supplier.
func (c *Controller) AccessToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Controller) setSession(sess *model.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	if sess == nil {
		c.profile = nil
		c.profileUser = ""
	} else if sess.User.ID != c.profileUser {
		// New user: the cached profile no longer applies.
		c.profile = nil
		c.profileUser = ""
	}
}

// =============================================================================
// DATA COMMANDS
// =============================================================================

// LoadProfile returns a command fetching the signed-in user's profile. The
// fetch happens once per session transition; repeat calls for the same user
// resolve immediately from the cache. A missing row is a nil profile, not
// an error; other failures are logged and also degrade to nil.
func (c *Controller) LoadProfile(ctx context.Context) tea.Cmd {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return nil
	}
	if c.profileUser == sess.User.ID {
		profile := c.profile
		c.mu.Unlock()
		return func() tea.Msg { return ProfileMsg{Profile: profile} }
	}
	userID := sess.User.ID
	c.mu.Unlock()

	return func() tea.Msg {
		profile, err := c.data.GetProfile(ctx, userID)
		if err != nil {
			if err != supabase.ErrNoRows {
				log.Printf("profile load failed: %v", err)
			}
			profile = nil
		}

		c.mu.Lock()
		// Guard against the session changing while the fetch was in
		// flight; a stale profile must not attach to the new user.
		if c.session != nil && c.session.User.ID == userID {
			c.profile = profile
			c.profileUser = userID
		}
		c.mu.Unlock()

		return ProfileMsg{Profile: profile}
	}
}

// LoadHistory returns a command fetching the user's chat history. Failures
// are logged and arrive as an empty history.
func (c *Controller) LoadHistory(ctx context.Context) tea.Cmd {
	sess := c.Session()
	if sess == nil {
		return nil
	}
	userID := sess.User.ID

	return func() tea.Msg {
		turns, err := c.data.ListChats(ctx, userID)
		if err != nil {
			log.Printf("history load failed: %v", err)
			turns = nil
		}
		return HistoryMsg{Turns: turns}
	}
}

// =============================================================================
// AUTH COMMANDS
// =============================================================================

// SignIn returns a command performing a password sign-in.
func (c *Controller) SignIn(ctx context.Context, email, password string) tea.Cmd {
	return func() tea.Msg {
		sess, err := c.auth.SignInWithPassword(ctx, email, password)
		return SignInResultMsg{Session: sess, Err: err}
	}
}

// SignUp returns a command registering a new account.
func (c *Controller) SignUp(ctx context.Context, email, password, username string) tea.Cmd {
	return func() tea.Msg {
		sess, err := c.auth.SignUp(ctx, email, password, username)
		return SignUpResultMsg{
			Session: sess,
			Pending: err == nil && sess == nil,
			Err:     err,
		}
	}
}

// SignOut returns a command signing the user out. The auth client clears
// local state unconditionally; the subscription then delivers a nil
// session, which is what tears down transcripts and poll loops.
func (c *Controller) SignOut(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		if err := c.auth.SignOut(ctx); err != nil {
			log.Printf("sign-out: %v", err)
		}
		return SignOutDoneMsg{}
	}
}
