// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and manages voidai client configuration from
// ~/.voidai/config.toml, the environment, and an optional .env file.
package config
