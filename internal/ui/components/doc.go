// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable visual pieces of the voidai TUI:
// the header, status bar, text input, spinner, and error banner. Components
// hold no domain state; panels own the state and feed it in through setters.
package components
