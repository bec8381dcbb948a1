// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// helpers.go - Shared plumbing for the CLI command handlers.

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/config"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/supabase"
	"github.com/jeranaias/voidai-tui/internal/util"
)

// LoadConfig loads the configuration and applies per-run flag overrides.
// A missing or broken config file falls back to defaults with a warning.
func LoadConfig(args Args) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = config.Default()
	}

	if args.Backend != "" {
		cfg.Backend.BaseURL = args.Backend
	}
	if args.Theme != "" {
		cfg.UI.Theme = args.Theme
	}

	return cfg
}

// BackendClient builds the inference client from config and flags.
func BackendClient(cfg *config.Config, args Args) *api.Client {
	client := api.NewClient(cfg.Backend.BaseURL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second).
		WithDefaults(cfg.Backend.MaxNewTokens, cfg.Backend.Temperature)
	return client
}

// genOptions converts ask flags into per-request generation options.
// Returns nil when nothing was overridden so the client defaults apply.
func genOptions(args Args) *api.GenOptions {
	if args.MaxNewTokens == 0 && !args.TempSet {
		return nil
	}
	opts := &api.GenOptions{}
	if args.MaxNewTokens > 0 {
		opts.MaxNewTokens = args.MaxNewTokens
	}
	if args.TempSet {
		opts.Temperature = args.Temperature
	}
	return opts
}

// sessionStore returns the encrypted on-disk session store.
func sessionStore() (*supabase.TokenStore, error) {
	path, err := config.SessionPath()
	if err != nil {
		return nil, err
	}
	return supabase.NewTokenStore(path, util.AtomicWriteFile), nil
}

// loadSession returns the persisted session, or nil when signed out.
func loadSession() *model.Session {
	store, err := sessionStore()
	if err != nil {
		return nil
	}
	sess, err := store.Load()
	if err != nil {
		return nil
	}
	return sess
}

// sessionUserID returns the signed-in user's id, or empty when signed out.
// The chat backend refuses requests without one.
func sessionUserID() string {
	if sess := loadSession(); sess != nil {
		return sess.User.ID
	}
	return ""
}

// authClient builds the auth client wired to the persisted session store.
// Fails when the Supabase project is not configured.
func authClient(cfg *config.Config) (*supabase.AuthClient, error) {
	if err := cfg.RequireSupabase(); err != nil {
		return nil, err
	}
	store, err := sessionStore()
	if err != nil {
		return nil, err
	}
	return supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.AnonKey).WithStore(store), nil
}

// readQueryInput resolves the command's text from positionals and --file.
// File contents are appended after the inline text.
func readQueryInput(args Args) (string, error) {
	text := strings.TrimSpace(args.Query)

	if args.File != "" {
		data, err := os.ReadFile(args.File)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", args.File, err)
		}
		if text != "" {
			text += "\n\n"
		}
		text += string(data)
	}

	return strings.TrimSpace(text), nil
}
