// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the client for the Void AI inference and training
// backend.
//
// The backend exposes three endpoints: POST /chat for generation, POST
// /train to submit training text, and GET /status for trainer progress.
// Train and TrainingStatus never fail from the caller's point of view; a
// transport error is folded into the same JSON shape the backend would
// return, so panels render one thing either way.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the backend API.
const (
	// DefaultBaseURL is the default backend root.
	DefaultBaseURL = "http://localhost:8000"

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared transport for all backend requests; per-client timeouts are set on
// the http.Client so generation requests can run unbounded while the shared
// pool is reused.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// Error variables for common backend errors.
var (
	// ErrNotConfigured indicates the backend base URL is not set.
	ErrNotConfigured = errors.New("backend base URL not configured")

	// ErrUnreachable indicates the backend could not be reached at all.
	ErrUnreachable = errors.New("could not reach AI")
)

// BackendError represents a non-2xx response from the backend.
type BackendError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (HTTP %d)", e.Status)
}

// DisplayError converts a Chat error into the text shown in place of the
// reply. Backend-provided messages pass through; transport failures collapse
// to a generic line.
func DisplayError(err error) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	return "Error: could not reach AI"
}

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// ChatRequest is the body for POST /chat. The backend rejects requests
// without a user_id; it scopes the model's memory lookup to that user.
type ChatRequest struct {
	Prompt       string  `json:"prompt"`
	UserID       string  `json:"user_id"`
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

// ChatResponse is a successful POST /chat body.
type ChatResponse struct {
	Text string `json:"text"`
}

// errorResponse is the backend's error body shape.
type errorResponse struct {
	Error string `json:"error"`
}

// TrainRequest is the body for POST /train.
type TrainRequest struct {
	Text string `json:"text"`
}

// StatusResponse is the GET /status body. Extra fields the trainer may add
// are ignored; Status/Message are the only ones the UI reads.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Display returns the line shown in the training panel: the message when
// present, else the bare status, else empty.
func (s StatusResponse) Display() string {
	if s.Message != "" {
		return s.Message
	}
	return s.Status
}

// =============================================================================
// CLIENT
// =============================================================================

// GenOptions are the per-request generation parameters. Zero values fall
// back to the client defaults.
type GenOptions struct {
	MaxNewTokens int
	Temperature  float64
}

// Client is a client for the Void AI backend.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Defaults injected from config; used when the caller passes no override.
	maxNewTokens int
	temperature  float64
}

// NewClient creates a backend client for the given base URL. Generation
// defaults start at the service's documented values; use WithDefaults to
// inject configured ones.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			// No timeout: chat generation can be long-running. Callers
			// bound requests via context or WithTimeout.
		},
		maxNewTokens: 100,
		temperature:  0.8,
	}
}

// WithTimeout sets the per-request timeout. Zero disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithDefaults sets the generation defaults used when a request passes no
// override.
func (c *Client) WithDefaults(maxNewTokens int, temperature float64) *Client {
	if maxNewTokens > 0 {
		c.maxNewTokens = maxNewTokens
	}
	if temperature > 0 {
		c.temperature = temperature
	}
	return c
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// IsConfigured returns true if the client has a base URL.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// logRequest logs an API request without exposing the body.
func (c *Client) logRequest(method, path string) {
	log.Printf("API Request: %s %s", method, path)
}

// logResponse logs an API response with duration.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// readResponse reads the response body with size limits.
//
// SECURITY: Response size limit prevents memory exhaustion attacks.
func readResponse(resp *http.Response) ([]byte, error) {
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

// =============================================================================
// CHAT
// =============================================================================

// Chat sends a prompt to POST /chat and returns the generated reply.
//
// A non-2xx response becomes a *BackendError carrying the backend's error
// message; a transport failure wraps ErrUnreachable. There are no retries:
// the send path is serialized by the UI's busy flag and a duplicate request
// could double-generate.
func (c *Client) Chat(ctx context.Context, prompt, userID string, opts *GenOptions) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	reqBody := ChatRequest{
		Prompt:       prompt,
		UserID:       userID,
		MaxNewTokens: c.maxNewTokens,
		Temperature:  c.temperature,
	}
	if opts != nil {
		if opts.MaxNewTokens > 0 {
			reqBody.MaxNewTokens = opts.MaxNewTokens
		}
		if opts.Temperature > 0 {
			reqBody.Temperature = opts.Temperature
		}
	}

	body, err := c.post(ctx, "/chat", reqBody)
	if err != nil {
		return "", err
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	return chatResp.Text, nil
}

// =============================================================================
// TRAIN
// =============================================================================

// Train submits training text to POST /train. The returned payload is the
// backend's JSON verbatim, or a synthesized {"error": ...} object when the
// request could not complete. The error return is for logging only; the
// payload is always renderable.
func (c *Client) Train(ctx context.Context, text string) (json.RawMessage, error) {
	if !c.IsConfigured() {
		return synthesizeError(ErrNotConfigured.Error()), ErrNotConfigured
	}

	payload, err := json.Marshal(TrainRequest{Text: text})
	if err != nil {
		return synthesizeError(err.Error()), err
	}

	resp, err := c.do(ctx, http.MethodPost, "/train", payload)
	if err != nil {
		return synthesizeError("could not reach AI"), fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return synthesizeError(err.Error()), err
	}

	// The training response is opaque to the client: success and failure
	// bodies are displayed the same way, so the status code only matters
	// for the logged error.
	if !json.Valid(body) {
		return synthesizeError("invalid response from trainer"), fmt.Errorf("invalid JSON from /train (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return json.RawMessage(body), &BackendError{Status: resp.StatusCode, Message: extractErrorMessage(body)}
	}
	return json.RawMessage(body), nil
}

// synthesizeError builds the {"error": msg} shape used when /train fails.
func synthesizeError(msg string) json.RawMessage {
	out, _ := json.Marshal(errorResponse{Error: msg})
	return out
}

// =============================================================================
// STATUS
// =============================================================================

// TrainingStatus fetches GET /status. A transport failure is folded into a
// {"status":"error"} response so the poll loop renders it like any other
// status; the error return is for logging only.
func (c *Client) TrainingStatus(ctx context.Context) (StatusResponse, error) {
	if !c.IsConfigured() {
		return StatusResponse{Status: "error", Message: ErrNotConfigured.Error()}, ErrNotConfigured
	}

	resp, err := c.do(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return StatusResponse{Status: "error", Message: "could not reach AI"}, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return StatusResponse{Status: "error", Message: err.Error()}, err
	}

	var status StatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return StatusResponse{Status: "error", Message: "invalid response from trainer"}, fmt.Errorf("failed to parse status: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return status, &BackendError{Status: resp.StatusCode, Message: status.Message}
	}
	return status, nil
}

// =============================================================================
// TRANSPORT HELPERS
// =============================================================================

// post sends a JSON body and returns the response bytes, mapping non-2xx
// responses to *BackendError.
func (c *Client) post(ctx context.Context, path string, reqBody interface{}) ([]byte, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &BackendError{
			Status:  resp.StatusCode,
			Message: extractErrorMessage(body),
		}
	}

	return body, nil
}

// do performs a single HTTP request against the backend.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "voidai/1.0")

	c.logRequest(method, path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.logResponse(resp, time.Since(start))
	return resp, nil
}

// extractErrorMessage pulls the "error" field from an error body, falling
// back to the raw text.
func extractErrorMessage(body []byte) string {
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		return apiErr.Error
	}
	return strings.TrimSpace(string(body))
}
