// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package supabase

import (
	"errors"
	"fmt"
)

// Error variables for common Supabase errors.
var (
	// ErrNoRows indicates a single-row query matched nothing. Callers treat
	// this as "absent", not as a failure.
	ErrNoRows = errors.New("no rows found")

	// ErrNoSession indicates there is no authenticated session.
	ErrNoSession = errors.New("no active session")

	// ErrSessionExpired indicates the stored session could not be refreshed.
	ErrSessionExpired = errors.New("session expired")
)

// AuthError represents an error from the auth endpoints. Its Message is
// what the auth form displays in its banner.
type AuthError struct {
	Message string
	Status  int
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth error (HTTP %d)", e.Status)
}

// DataError represents an error from the PostgREST endpoints.
type DataError struct {
	Message string
	Code    string
	Status  int
}

// Error implements the error interface.
func (e *DataError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("data error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("data error (HTTP %d): %s", e.Status, e.Message)
}

// Is lets errors.Is match PostgREST's "no rows" code against ErrNoRows.
func (e *DataError) Is(target error) bool {
	return target == ErrNoRows && e.Code == "PGRST116"
}

// AuthMessage extracts the user-facing message from an auth error, falling
// back to a generic line for transport failures.
func AuthMessage(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "Authentication failed. Please try again."
}
