// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// the voidai client.
//
// Configuration sources (in order of precedence):
//   - VOIDAI_* environment variables
//   - A .env file in the working directory (loaded into the environment)
//   - ~/.voidai/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/voidai-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete voidai configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Supabase auth/data backend
	Supabase SupabaseConfig `toml:"supabase" json:"supabase"`

	// Inference/training backend
	Backend BackendConfig `toml:"backend" json:"backend"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Local history cache
	History HistoryConfig `toml:"history" json:"history"`
}

// SupabaseConfig identifies the auth/data project.
type SupabaseConfig struct {
	// URL is the project base URL, e.g. https://xyz.supabase.co
	URL string `toml:"url" json:"url"`
	// AnonKey is the project's public (anon) API key
	AnonKey string `toml:"anon_key" json:"anon_key"`
}

// BackendConfig contains the inference/training backend settings.
type BackendConfig struct {
	// BaseURL is the root of the chat/train/status API
	BaseURL string `toml:"base_url" json:"base_url"`
	// MaxNewTokens is the default generation length sent with chat requests
	MaxNewTokens int `toml:"max_new_tokens" json:"max_new_tokens"`
	// Temperature is the default sampling temperature sent with chat requests
	Temperature float64 `toml:"temperature" json:"temperature"`
	// PollIntervalSecs is the training status poll interval in seconds
	PollIntervalSecs int `toml:"poll_interval_secs" json:"poll_interval_secs"`
	// TimeoutSecs is the per-request timeout in seconds (0 = no timeout,
	// matching the backend's long-running chat generation)
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// MarkdownWidth is the word-wrap width for rendered replies
	MarkdownWidth int `toml:"markdown_width" json:"markdown_width"`
}

// HistoryConfig contains the local transcript cache settings.
type HistoryConfig struct {
	// Enabled controls whether the local cache is written at all
	Enabled bool `toml:"enabled" json:"enabled"`
	// DBPath overrides the cache location (empty = ~/.voidai/history.db)
	DBPath string `toml:"db_path" json:"db_path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Supabase: SupabaseConfig{
			URL:     "",
			AnonKey: "",
		},

		Backend: BackendConfig{
			BaseURL:          "http://localhost:8000",
			MaxNewTokens:     100,
			Temperature:      0.8,
			PollIntervalSecs: 2,
			TimeoutSecs:      0,
		},

		UI: UIConfig{
			Theme:         "dark",
			CompactMode:   false,
			MarkdownWidth: 80,
		},

		History: HistoryConfig{
			Enabled: true,
			DBPath:  "",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the voidai configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".voidai"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SessionPath returns the path to the persisted session file.
func SessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// HistoryDBPath returns the transcript cache location, honoring the
// history.db_path override.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect
// the anon key and backend URL.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads a .env file from the working directory into the process
// environment, if one exists. Existing environment variables win.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env: %v\n", err)
	}
}

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load config: %w", err)
			} else {
				cfg.ApplyEnvOverrides()
				cfg.SetDefaults()
				if err := cfg.Validate(); err != nil {
					return nil, fmt.Errorf("invalid config: %w", err)
				}
				return cfg, nil
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Used by the --config flag.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("# voidai configuration file\n")
	buf.WriteString("# Generated by voidai - edit with care\n")
	buf.WriteString("\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors. Missing
// Supabase credentials are not a validation error here; commands that need
// them call RequireSupabase.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Supabase.URL != "" {
		if _, err := url.ParseRequestURI(c.Supabase.URL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "supabase.url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	if c.Backend.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Backend.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "backend.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	if c.Backend.MaxNewTokens <= 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.max_new_tokens",
			Message: "must be positive",
		})
	}

	if c.Backend.Temperature < 0 || c.Backend.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "backend.temperature",
			Message: "must be between 0 and 2",
		})
	}

	if c.Backend.PollIntervalSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "backend.poll_interval_secs",
			Message: "must be at least 1",
		})
	}

	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: "cannot be negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if c.UI.Theme != "" && !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// RequireSupabase returns an error if the Supabase URL or anon key is not
// configured. Commands that touch auth or data call this at startup and
// treat a non-nil result as fatal.
func (c *Config) RequireSupabase() error {
	if c.Supabase.URL == "" {
		return errors.New("supabase.url is not configured (set VOIDAI_SUPABASE_URL or edit ~/.voidai/config.toml)")
	}
	if c.Supabase.AnonKey == "" {
		return errors.New("supabase.anon_key is not configured (set VOIDAI_SUPABASE_ANON_KEY or edit ~/.voidai/config.toml)")
	}
	return nil
}

// SetDefaults fills in zero values with defaults after loading.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if c.Backend.MaxNewTokens == 0 {
		c.Backend.MaxNewTokens = defaults.Backend.MaxNewTokens
	}
	if c.Backend.Temperature == 0 {
		c.Backend.Temperature = defaults.Backend.Temperature
	}
	if c.Backend.PollIntervalSecs == 0 {
		c.Backend.PollIntervalSecs = defaults.Backend.PollIntervalSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.MarkdownWidth == 0 {
		c.UI.MarkdownWidth = defaults.UI.MarkdownWidth
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies VOIDAI_* environment variables on top of the
// loaded configuration. The VITE_* names the web client used are accepted
// as fallbacks so a shared .env keeps working.
func (c *Config) ApplyEnvOverrides() {
	// VOIDAI_SUPABASE_URL / VITE_SUPABASE_URL
	if u := firstEnv("VOIDAI_SUPABASE_URL", "VITE_SUPABASE_URL"); u != "" {
		c.Supabase.URL = u
	}

	// VOIDAI_SUPABASE_ANON_KEY / VITE_SUPABASE_ANON_KEY
	if key := firstEnv("VOIDAI_SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"); key != "" {
		c.Supabase.AnonKey = key
	}

	// VOIDAI_BACKEND_URL
	if u := os.Getenv("VOIDAI_BACKEND_URL"); u != "" {
		c.Backend.BaseURL = u
	}

	// VOIDAI_MAX_NEW_TOKENS
	if v := os.Getenv("VOIDAI_MAX_NEW_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.MaxNewTokens = n
		}
	}

	// VOIDAI_TEMPERATURE
	if v := os.Getenv("VOIDAI_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Backend.Temperature = f
		}
	}

	// VOIDAI_POLL_INTERVAL_SECS
	if v := os.Getenv("VOIDAI_POLL_INTERVAL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Backend.PollIntervalSecs = n
		}
	}

	// VOIDAI_THEME
	if theme := os.Getenv("VOIDAI_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	// VOIDAI_HISTORY_DB
	if path := os.Getenv("VOIDAI_HISTORY_DB"); path != "" {
		c.History.DBPath = path
	}
}

// firstEnv returns the first non-empty value among the named variables.
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "backend.temperature").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "backend.max_new_tokens").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)

		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}

	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	// Handle string input with type conversion
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"supabase.url",
		"supabase.anon_key",
		"backend.base_url",
		"backend.max_new_tokens",
		"backend.temperature",
		"backend.poll_interval_secs",
		"backend.timeout_secs",
		"ui.theme",
		"ui.compact_mode",
		"ui.markdown_width",
		"history.enabled",
		"history.db_path",
	}
}

// =============================================================================
// REDACTION
// =============================================================================

// String returns a string representation of the config for debugging.
// SECURITY: Redacts the anon key to keep it out of logs and error output.
func (c *Config) String() string {
	safe := *c
	if safe.Supabase.AnonKey != "" {
		safe.Supabase.AnonKey = "[REDACTED]"
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(&safe); err != nil {
		return fmt.Sprintf("config encode error: %v", err)
	}
	return buf.String()
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
