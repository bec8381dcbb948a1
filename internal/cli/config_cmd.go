// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config command implementation.
//
// Command: config [subcommand]
// Short:   View and modify configuration
//
// Subcommands:
//   show (default)      Display current configuration
//   get <key>           Print one value
//   set <key> <value>   Set a configuration value
//   keys                List settable keys
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Keys use dot notation, e.g. supabase.url, backend.base_url, ui.theme,
// history.enabled.

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/voidai-tui/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args)

	case "get":
		return handleConfigGet(args.ConfigKey)

	case "set":
		return handleConfigSet(args.ConfigKey, args.ConfigVal)

	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Println(key)
		}
		return nil

	case "reset":
		return handleConfigReset()

	case "path":
		return handleConfigPath()

	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Subcommand)
	}
}

// handleConfigShow displays the current configuration.
func handleConfigShow(args Args) error {
	cfg := LoadConfig(args)

	fmt.Println()
	fmt.Println(TitleStyle.Render("voidai Configuration"))
	fmt.Println(Separator(41))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[supabase]"))
	printKV("url:", cfg.Supabase.URL)
	printKV("anon_key:", maskKey(cfg.Supabase.AnonKey))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[backend]"))
	printKV("base_url:", cfg.Backend.BaseURL)
	printKV("max_new_tokens:", fmt.Sprintf("%d", cfg.Backend.MaxNewTokens))
	printKV("temperature:", fmt.Sprintf("%g", cfg.Backend.Temperature))
	printKV("poll_interval:", fmt.Sprintf("%d seconds", cfg.Backend.PollIntervalSecs))
	printKV("timeout:", fmt.Sprintf("%d seconds", cfg.Backend.TimeoutSecs))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[ui]"))
	printKV("theme:", cfg.UI.Theme)
	printKV("compact_mode:", fmt.Sprintf("%t", cfg.UI.CompactMode))
	printKV("markdown_width:", fmt.Sprintf("%d", cfg.UI.MarkdownWidth))
	fmt.Println()

	fmt.Println(SectionStyle.Render("[history]"))
	printKV("enabled:", fmt.Sprintf("%t", cfg.History.Enabled))
	dbPath, _ := cfg.HistoryDBPath()
	printKV("db_path:", dbPath)
	fmt.Println()

	path, _ := config.ConfigPath()
	fmt.Println(Separator(41))
	fmt.Printf("Config file: %s\n", MutedStyle.Render(path))
	fmt.Println()

	return nil
}

func printKV(key, value string) {
	fmt.Printf("  %s%s\n", LabelStyle.Render(key), ValueStyle.Render(value))
}

// handleConfigGet prints a single value.
func handleConfigGet(key string) error {
	if key == "" {
		return fmt.Errorf("no config key provided\nUsage: voidai config get <key>")
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.Default()
	}

	value, err := cfg.Get(key)
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

// handleConfigSet sets a configuration value and saves the file.
func handleConfigSet(key, value string) error {
	if key == "" {
		return fmt.Errorf("no config key provided\nUsage: voidai config set <key> <value>")
	}
	if value == "" {
		return fmt.Errorf("no config value provided\nUsage: voidai config set %s <value>", key)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
		cfg = config.Default()
	}

	if err := cfg.Set(key, value); err != nil {
		return fmt.Errorf("%w\n\nRun: voidai config keys", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("%s %s = %s\n", SuccessStyle.Render("[OK]"), key, maskIfSecret(key, value))
	return nil
}

// handleConfigReset restores the default configuration.
func handleConfigReset() error {
	if err := config.Save(config.Default()); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	path, _ := config.ConfigPath()
	fmt.Printf("%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	fmt.Printf("Config file: %s\n", MutedStyle.Render(path))
	return nil
}

// handleConfigPath shows where the config file lives.
func handleConfigPath() error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, MutedStyle.Render("Note: file does not exist yet, it is created on first save"))
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// maskKey shortens a key for display. Only presence matters here.
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskIfSecret masks values whose keys look secret.
func maskIfSecret(key, value string) string {
	lower := strings.ToLower(key)
	for _, s := range []string{"key", "secret", "token", "password"} {
		if strings.Contains(lower, s) {
			return maskKey(value)
		}
	}
	return value
}
