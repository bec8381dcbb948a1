// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/supabase"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeAuth struct {
	session   *model.Session
	listeners []func(*model.Session)
	signOuts  int
}

func (f *fakeAuth) GetSession(ctx context.Context) *model.Session { return f.session }

func (f *fakeAuth) OnAuthStateChange(fn func(*model.Session)) func() {
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	return func() { f.listeners[idx] = nil }
}

func (f *fakeAuth) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	if password != "correct" {
		return nil, &supabase.AuthError{Message: "Invalid login credentials", Status: 400}
	}
	f.session = sessionFor("user-1")
	f.emit(f.session)
	return f.session, nil
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password, username string) (*model.Session, error) {
	return nil, nil // confirmation pending
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.signOuts++
	f.session = nil
	f.emit(nil)
	return nil
}

func (f *fakeAuth) emit(sess *model.Session) {
	for _, fn := range f.listeners {
		if fn != nil {
			fn(sess)
		}
	}
}

type fakeData struct {
	profiles     map[string]*model.Profile
	profileCalls int
	chats        []model.ChatTurn
	chatsErr     error
	inserted     []model.TrainingSession
}

func (f *fakeData) ListChats(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	return f.chats, f.chatsErr
}

func (f *fakeData) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	f.profileCalls++
	p, ok := f.profiles[userID]
	if !ok {
		return nil, supabase.ErrNoRows
	}
	return p, nil
}

func (f *fakeData) InsertTrainingSession(ctx context.Context, row model.TrainingSession) error {
	f.inserted = append(f.inserted, row)
	return nil
}

func sessionFor(userID string) *model.Session {
	return &model.Session{
		AccessToken: "tok-" + userID,
		User:        model.User{ID: userID, Email: userID + "@example.com"},
	}
}

// runStart runs the controller's startup batch and returns the message from
// the initial session fetch. The blocking WaitForChange half of the batch is
// left alone; tests drive it explicitly.
func runStart(t *testing.T, ctrl *Controller) tea.Msg {
	t.Helper()
	msg := ctrl.Start(context.Background())()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected tea.BatchMsg, got %T", msg)
	}
	if len(batch) < 2 {
		t.Fatalf("startup batch has %d commands, want 2", len(batch))
	}
	return batch[0]()
}

// =============================================================================
// INITIAL FETCH TESTS
// =============================================================================

func TestStartDeliversInitialSession(t *testing.T) {
	auth := &fakeAuth{session: sessionFor("user-1")}
	ctrl := NewController(auth, &fakeData{})
	defer ctrl.Close()

	msg := runStart(t, ctrl)

	initial, ok := msg.(InitialSessionMsg)
	if !ok {
		t.Fatalf("expected InitialSessionMsg, got %T", msg)
	}
	if initial.Session == nil || initial.Session.User.ID != "user-1" {
		t.Errorf("unexpected initial session: %+v", initial.Session)
	}
	if ctrl.Session() == nil {
		t.Error("controller should hold the restored session")
	}
	if got := ctrl.AccessToken(); got != "tok-user-1" {
		t.Errorf("AccessToken = %q", got)
	}
}

func TestStartSignedOut(t *testing.T) {
	ctrl := NewController(&fakeAuth{}, &fakeData{})
	defer ctrl.Close()

	msg := runStart(t, ctrl)

	initial := msg.(InitialSessionMsg)
	if initial.Session != nil {
		t.Error("expected nil session when signed out")
	}
	if got := ctrl.AccessToken(); got != "" {
		t.Errorf("AccessToken = %q, want empty", got)
	}
}

// =============================================================================
// AUTH CHANGE TESTS
// =============================================================================

func TestAuthChangeFlowsThroughWait(t *testing.T) {
	auth := &fakeAuth{}
	ctrl := NewController(auth, &fakeData{})
	defer ctrl.Close()

	runStart(t, ctrl)

	// A sign-in on the auth client surfaces as a ChangedMsg.
	auth.session = sessionFor("user-1")
	auth.emit(auth.session)

	msg := ctrl.WaitForChange()()
	changed, ok := msg.(ChangedMsg)
	if !ok {
		t.Fatalf("expected ChangedMsg, got %T", msg)
	}
	if changed.Session == nil || changed.Session.User.ID != "user-1" {
		t.Errorf("unexpected session: %+v", changed.Session)
	}
	if ctrl.Session() == nil {
		t.Error("controller should adopt the new session")
	}
}

func TestSignOutClearsProfile(t *testing.T) {
	auth := &fakeAuth{session: sessionFor("user-1")}
	data := &fakeData{profiles: map[string]*model.Profile{
		"user-1": {ID: "user-1", Username: "void_user"},
	}}
	ctrl := NewController(auth, data)
	defer ctrl.Close()

	runStart(t, ctrl)
	ctrl.LoadProfile(context.Background())()

	if ctrl.Profile() == nil {
		t.Fatal("profile should be loaded")
	}

	if msg := ctrl.SignOut(context.Background())(); msg != (SignOutDoneMsg{}) {
		t.Fatalf("unexpected sign-out message: %v", msg)
	}
	ctrl.WaitForChange()()

	if auth.signOuts != 1 {
		t.Errorf("auth.SignOut called %d times, want 1", auth.signOuts)
	}
	if ctrl.Session() != nil {
		t.Error("session should be nil after sign-out")
	}
	if ctrl.Profile() != nil {
		t.Error("profile should clear on sign-out")
	}
	if ctrl.DisplayName() != "" {
		t.Error("display name should be empty when signed out")
	}
}

// =============================================================================
// PROFILE TESTS
// =============================================================================

func TestLoadProfileOncePerSession(t *testing.T) {
	auth := &fakeAuth{session: sessionFor("user-1")}
	data := &fakeData{profiles: map[string]*model.Profile{
		"user-1": {ID: "user-1", Username: "void_user"},
	}}
	ctrl := NewController(auth, data)
	defer ctrl.Close()

	runStart(t, ctrl)

	ctrl.LoadProfile(context.Background())()
	ctrl.LoadProfile(context.Background())()
	ctrl.LoadProfile(context.Background())()

	if data.profileCalls != 1 {
		t.Errorf("profile fetched %d times, want 1", data.profileCalls)
	}
	if got := ctrl.DisplayName(); got != "void_user" {
		t.Errorf("DisplayName = %q, want void_user", got)
	}
}

func TestLoadProfileNoRows(t *testing.T) {
	auth := &fakeAuth{session: sessionFor("user-1")}
	data := &fakeData{profiles: map[string]*model.Profile{}}
	ctrl := NewController(auth, data)
	defer ctrl.Close()

	runStart(t, ctrl)

	msg := ctrl.LoadProfile(context.Background())()
	pm := msg.(ProfileMsg)
	if pm.Profile != nil {
		t.Error("missing profile row should load as nil")
	}
	// Email fallback when there is no profile.
	if got := ctrl.DisplayName(); got != "user-1@example.com" {
		t.Errorf("DisplayName = %q, want email fallback", got)
	}
}

func TestLoadProfileSignedOut(t *testing.T) {
	ctrl := NewController(&fakeAuth{}, &fakeData{})
	defer ctrl.Close()
	runStart(t, ctrl)

	if cmd := ctrl.LoadProfile(context.Background()); cmd != nil {
		t.Error("LoadProfile should be a no-op when signed out")
	}
}

// =============================================================================
// HISTORY TESTS
// =============================================================================

func TestLoadHistory(t *testing.T) {
	auth := &fakeAuth{session: sessionFor("user-1")}
	data := &fakeData{chats: []model.ChatTurn{
		{ID: "c1", User: "hi", AI: "hello"},
	}}
	ctrl := NewController(auth, data)
	defer ctrl.Close()
	runStart(t, ctrl)

	msg := ctrl.LoadHistory(context.Background())()
	hm := msg.(HistoryMsg)
	if len(hm.Turns) != 1 || hm.Turns[0].ID != "c1" {
		t.Errorf("unexpected history: %+v", hm.Turns)
	}
}

func TestLoadHistoryFailureIsEmpty(t *testing.T) {
	auth := &fakeAuth{session: sessionFor("user-1")}
	data := &fakeData{chatsErr: errors.New("boom")}
	ctrl := NewController(auth, data)
	defer ctrl.Close()
	runStart(t, ctrl)

	msg := ctrl.LoadHistory(context.Background())()
	hm := msg.(HistoryMsg)
	if hm.Turns != nil {
		t.Error("history load failure should arrive as empty history")
	}
}

func TestLoadHistorySignedOut(t *testing.T) {
	ctrl := NewController(&fakeAuth{}, &fakeData{})
	defer ctrl.Close()
	runStart(t, ctrl)

	if cmd := ctrl.LoadHistory(context.Background()); cmd != nil {
		t.Error("LoadHistory should be a no-op when signed out")
	}
}

// =============================================================================
// AUTH COMMAND TESTS
// =============================================================================

func TestSignInResult(t *testing.T) {
	auth := &fakeAuth{}
	ctrl := NewController(auth, &fakeData{})
	defer ctrl.Close()
	runStart(t, ctrl)

	msg := ctrl.SignIn(context.Background(), "me@example.com", "wrong")()
	res := msg.(SignInResultMsg)
	if res.Err == nil {
		t.Fatal("expected sign-in error")
	}
	if got := supabase.AuthMessage(res.Err); got != "Invalid login credentials" {
		t.Errorf("AuthMessage = %q", got)
	}

	msg = ctrl.SignIn(context.Background(), "me@example.com", "correct")()
	res = msg.(SignInResultMsg)
	if res.Err != nil || res.Session == nil {
		t.Fatalf("sign-in failed: %+v", res)
	}
}

func TestSignUpPending(t *testing.T) {
	ctrl := NewController(&fakeAuth{}, &fakeData{})
	defer ctrl.Close()

	msg := ctrl.SignUp(context.Background(), "new@example.com", "pw", "name")()
	res := msg.(SignUpResultMsg)
	if !res.Pending || res.Err != nil || res.Session != nil {
		t.Errorf("expected pending confirmation, got %+v", res)
	}
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestCloseIsIdempotent(t *testing.T) {
	ctrl := NewController(&fakeAuth{}, &fakeData{})
	runStart(t, ctrl)

	ctrl.Close()
	ctrl.Close()

	// After close the wait command drains to nil instead of blocking.
	if msg := ctrl.WaitForChange()(); msg != nil {
		t.Errorf("expected nil after close, got %v", msg)
	}
}
