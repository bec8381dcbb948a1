// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package supabase provides clients for the Supabase auth (GoTrue) and data
// (PostgREST) APIs backing the Void AI product.
//
// Both clients are plain injected values, not globals: the session
// controller owns one of each and everything downstream receives them as
// interfaces.
package supabase

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/voidai-tui/internal/model"
)

// MaxResponseSize is the maximum allowed response body size.
// SECURITY: Response size limit prevents memory exhaustion attacks.
const MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all Supabase requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: 30 * time.Second,
}

// Auth is the authentication capability consumed by the session controller.
type Auth interface {
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) *model.Session
	// OnAuthStateChange registers a listener for session transitions and
	// returns its unsubscribe function.
	OnAuthStateChange(fn func(*model.Session)) func()
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	SignUp(ctx context.Context, email, password, username string) (*model.Session, error)
	SignOut(ctx context.Context) error
}

// =============================================================================
// AUTH CLIENT
// =============================================================================

// AuthClient talks to the GoTrue REST API under {project}/auth/v1.
type AuthClient struct {
	baseURL string
	anonKey string
	store   *TokenStore

	mu         sync.Mutex
	session    *model.Session
	listeners  map[int]func(*model.Session)
	nextListID int
	loaded     bool
}

// NewAuthClient creates an auth client for the given project URL and anon key.
func NewAuthClient(projectURL, anonKey string) *AuthClient {
	return &AuthClient{
		baseURL:   strings.TrimSuffix(projectURL, "/") + "/auth/v1",
		anonKey:   anonKey,
		listeners: make(map[int]func(*model.Session)),
	}
}

// WithStore attaches a token store so sessions survive restarts. The store
// is best effort: persistence failures are logged and never surfaced.
func (c *AuthClient) WithStore(store *TokenStore) *AuthClient {
	c.store = store
	return c
}

// =============================================================================
// SESSION STATE
// =============================================================================

// GetSession returns the current session, restoring it from the token store
// on first call and refreshing it if the access token has expired. Any
// failure degrades to nil: the caller presents the auth page.
func (c *AuthClient) GetSession(ctx context.Context) *model.Session {
	c.mu.Lock()
	if !c.loaded {
		c.loaded = true
		if c.store != nil {
			if sess, err := c.store.Load(); err == nil && sess != nil {
				c.session = sess
			} else if err != nil {
				log.Printf("session restore failed: %v", err)
			}
		}
	}
	sess := c.session
	c.mu.Unlock()

	if sess == nil {
		return nil
	}
	if !sess.IsExpired() {
		return sess
	}

	refreshed, err := c.refresh(ctx, sess.RefreshToken)
	if err != nil {
		log.Printf("session refresh failed: %v", err)
		c.setSession(nil)
		return nil
	}
	c.setSession(refreshed)
	return refreshed
}

// OnAuthStateChange registers fn to be called with the new session (nil on
// sign-out) after every transition. The returned function unsubscribes it;
// calling it more than once is harmless.
func (c *AuthClient) OnAuthStateChange(fn func(*model.Session)) func() {
	c.mu.Lock()
	id := c.nextListID
	c.nextListID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// setSession replaces the current session, persists it, and notifies
// listeners. Listeners run outside the lock so they can call back in.
func (c *AuthClient) setSession(sess *model.Session) {
	c.mu.Lock()
	c.session = sess
	c.loaded = true
	fns := make([]func(*model.Session), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	if c.store != nil {
		var err error
		if sess == nil {
			err = c.store.Clear()
		} else {
			err = c.store.Save(sess)
		}
		if err != nil {
			log.Printf("session persistence failed: %v", err)
		}
	}

	for _, fn := range fns {
		fn(sess)
	}
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// tokenResponse is GoTrue's session grant body.
type tokenResponse struct {
	AccessToken  string     `json:"access_token"`
	TokenType    string     `json:"token_type"`
	ExpiresIn    int        `json:"expires_in"`
	RefreshToken string     `json:"refresh_token"`
	User         model.User `json:"user"`
}

func (r *tokenResponse) toSession() *model.Session {
	return &model.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresIn:    r.ExpiresIn,
		ExpiresAt:    time.Now().Add(time.Duration(r.ExpiresIn) * time.Second),
		User:         r.User,
	}
}

// SignInWithPassword exchanges email/password for a session.
func (c *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var tok tokenResponse
	if err := c.post(ctx, "/token?grant_type=password", body, "", &tok); err != nil {
		return nil, err
	}

	sess := tok.toSession()
	c.setSession(sess)
	return sess, nil
}

// SignUp registers a new account. The username travels in the signup
// metadata, where the backend's profile trigger picks it up. Projects with
// email confirmation enabled return no session; the caller then shows the
// sign-in form.
func (c *AuthClient) SignUp(ctx context.Context, email, password, username string) (*model.Session, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"username": username},
	}

	var tok tokenResponse
	if err := c.post(ctx, "/signup", body, "", &tok); err != nil {
		return nil, err
	}

	if tok.AccessToken == "" {
		// Email confirmation pending; signed up but not signed in.
		return nil, nil
	}

	sess := tok.toSession()
	c.setSession(sess)
	return sess, nil
}

// SignOut revokes the session server-side and always clears local state,
// even when the revocation request fails.
func (c *AuthClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	sess := c.session
	c.mu.Unlock()

	var err error
	if sess != nil {
		err = c.post(ctx, "/logout", nil, sess.AccessToken, nil)
		if err != nil {
			log.Printf("sign-out revocation failed: %v", err)
		}
	}

	// Local state clears no matter what the server said.
	c.setSession(nil)
	return err
}

// refresh exchanges a refresh token for a new session.
func (c *AuthClient) refresh(ctx context.Context, refreshToken string) (*model.Session, error) {
	if refreshToken == "" {
		return nil, ErrSessionExpired
	}

	body := map[string]string{"refresh_token": refreshToken}

	var tok tokenResponse
	if err := c.post(ctx, "/token?grant_type=refresh_token", body, "", &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	return tok.toSession(), nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// authErrorBody covers the error shapes GoTrue has used across versions.
type authErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (b *authErrorBody) text() string {
	switch {
	case b.ErrorDescription != "":
		return b.ErrorDescription
	case b.Msg != "":
		return b.Msg
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}

// post sends a JSON request to an auth endpoint. An empty accessToken sends
// only the anon key, which is what the grant endpoints expect.
func (c *AuthClient) post(ctx context.Context, path string, body interface{}, accessToken string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}

	log.Printf("Auth Request: POST %s", path)
	start := time.Now()
	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("Auth Response: %d (%v)", resp.StatusCode, time.Since(start))

	respBody, err := readLimited(resp)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody authErrorBody
		_ = json.Unmarshal(respBody, &errBody)
		return &AuthError{Message: errBody.text(), Status: resp.StatusCode}
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse auth response: %w", err)
		}
	}
	return nil
}

// readLimited reads a response body with size limits.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readLimited(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}
