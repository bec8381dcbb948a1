// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command-line parsing for voidai.
//
// The binary defaults to the full-screen TUI. Subcommands expose the same
// backend operations for scripting: ask a single question, submit training
// text, poll training status, inspect the local history cache, and manage
// the persisted session and configuration.

package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Build information, set via ldflags at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies which top-level command was requested.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdTrain
	CmdStatus
	CmdHistory
	CmdLogin
	CmdLogout
	CmdSignup
	CmdWhoami
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool
	Theme   string // override ui.theme for this run
	Backend string // override backend.base_url for this run
	Page    string // TUI start page: landing, about, chat

	// Command-specific
	Query        string // ask/train text
	File         string // read ask/train input from a file
	MaxNewTokens int    // ask generation length override
	Temperature  float64
	TempSet      bool
	Subcommand   string
	ConfigKey    string
	ConfigVal    string
	Email        string
	OutputPath   string // history export target

	// Raw holds the unparsed remainder for the command
	Raw []string
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `voidai - terminal client for the Void AI backend

Usage:
  voidai [command] [flags]

Commands:
  (none), tui        Start the full-screen interface
  ask QUESTION       Ask a single question and print the reply
    -f, --file PATH    Include file contents with the question
    --max-tokens N     Generation length override
    --temperature T    Sampling temperature override
    --plain            Skip markdown rendering
  chat               Interactive chat in the current terminal
  train [TEXT]       Submit text to the training endpoint
    -f, --file PATH    Read training text from a file
  status             Show the current training status
  history            Show the cached chat history
    voidai history clear            Delete the cached history
    voidai history export FILE      Write history as Markdown
  login [EMAIL]      Sign in and persist the session
  logout             Sign out and clear the persisted session
  signup EMAIL       Create an account
  whoami             Show the signed-in account
  config             View and modify configuration
    voidai config show              Show current configuration
    voidai config get KEY           Print one value
    voidai config set KEY VALUE     Set a value
    voidai config keys              List settable keys
    voidai config path              Show the config file location
  version            Print version information
  help               Show this help

Global Flags:
  -q, --quiet        Minimal output
  -v, --verbose      Debug output
  --json             Machine-readable output where supported
  --theme NAME       UI theme for this run: dark, light, auto
  --backend URL      Backend base URL override
  --page NAME        TUI start page: landing, about, chat

Examples:
  voidai                              Start the TUI
  voidai ask "Who are you?"           One-shot question
  voidai train --file corpus.txt      Submit a file for training
  voidai status                       Poll the training job once
  voidai history export chat.md       Export cached history
  voidai config set ui.theme light    Switch themes

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("voidai version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// =============================================================================
// PARSING
// =============================================================================

// Parse parses os.Args and returns the command and its arguments.
func Parse() (Command, Args) {
	return ParseArgs(os.Args[1:])
}

// ParseArgs parses an argument list. Split out from Parse for tests.
func ParseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, args

	case "ask":
		parseAskArgs(&args, remaining)
		return CmdAsk, args

	case "chat":
		return CmdChat, args

	case "train":
		parseTrainArgs(&args, remaining)
		return CmdTrain, args

	case "status", "s":
		return CmdStatus, args

	case "history", "hist":
		parseHistoryArgs(&args, remaining)
		return CmdHistory, args

	case "login", "signin":
		p := NewArgParser(remaining)
		args.Email = p.Positional(0)
		return CmdLogin, args

	case "logout", "signout":
		return CmdLogout, args

	case "signup", "register":
		p := NewArgParser(remaining)
		args.Email = p.Positional(0)
		return CmdSignup, args

	case "whoami":
		return CmdWhoami, args

	case "config", "cfg":
		parseConfigArgs(&args, remaining)
		return CmdConfig, args

	case "version", "-v", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		// Unknown word: treat the whole line as a question.
		parseAskArgs(&args, append([]string{cmd}, remaining...))
		return CmdAsk, args
	}
}

// parseGlobalFlags extracts global flags and returns the remaining args.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var remaining []string
	args := Args{}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]

		switch arg {
		case "-q", "--quiet":
			args.Quiet = true
		case "-v", "--verbose":
			args.Verbose = true
		case "--json":
			args.JSON = true
		case "--theme":
			if i+1 < len(argv) {
				i++
				args.Theme = argv[i]
			}
		case "--backend":
			if i+1 < len(argv) {
				i++
				args.Backend = argv[i]
			}
		case "--page":
			if i+1 < len(argv) {
				i++
				args.Page = argv[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--theme="):
				args.Theme = strings.TrimPrefix(arg, "--theme=")
			case strings.HasPrefix(arg, "--backend="):
				args.Backend = strings.TrimPrefix(arg, "--backend=")
			case strings.HasPrefix(arg, "--page="):
				args.Page = strings.TrimPrefix(arg, "--page=")
			default:
				remaining = append(remaining, arg)
			}
		}
	}

	return remaining, args
}

// parseAskArgs parses the ask command arguments.
func parseAskArgs(args *Args, remaining []string) {
	var query []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		case "--plain":
			args.Quiet = true
		case "--max-tokens":
			if i+1 < len(remaining) {
				i++
				if n, err := strconv.Atoi(remaining[i]); err == nil && n > 0 {
					args.MaxNewTokens = n
				}
			}
		case "--temperature":
			if i+1 < len(remaining) {
				i++
				if t, err := strconv.ParseFloat(remaining[i], 64); err == nil && t >= 0 {
					args.Temperature = t
					args.TempSet = true
				}
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--file="):
				args.File = strings.TrimPrefix(arg, "--file=")
			case strings.HasPrefix(arg, "--max-tokens="):
				if n, err := strconv.Atoi(strings.TrimPrefix(arg, "--max-tokens=")); err == nil && n > 0 {
					args.MaxNewTokens = n
				}
			case strings.HasPrefix(arg, "--temperature="):
				if t, err := strconv.ParseFloat(strings.TrimPrefix(arg, "--temperature="), 64); err == nil && t >= 0 {
					args.Temperature = t
					args.TempSet = true
				}
			case !strings.HasPrefix(arg, "-"):
				query = append(query, arg)
			}
		}
	}

	args.Query = strings.Join(query, " ")
}

// parseTrainArgs parses the train command arguments.
func parseTrainArgs(args *Args, remaining []string) {
	var text []string

	for i := 0; i < len(remaining); i++ {
		arg := remaining[i]

		switch arg {
		case "-f", "--file":
			if i+1 < len(remaining) {
				i++
				args.File = remaining[i]
			}
		default:
			switch {
			case strings.HasPrefix(arg, "--file="):
				args.File = strings.TrimPrefix(arg, "--file=")
			case !strings.HasPrefix(arg, "-"):
				text = append(text, arg)
			}
		}
	}

	args.Query = strings.Join(text, " ")
}

// parseHistoryArgs parses the history command arguments.
func parseHistoryArgs(args *Args, remaining []string) {
	p := NewArgParser(remaining)
	args.Subcommand = p.Subcommand()
	if args.Subcommand == "export" {
		args.OutputPath = p.Positional(1)
	}
}

// parseConfigArgs parses the config command arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) == 0 {
		return
	}
	args.Subcommand = remaining[0]
	if len(remaining) > 1 {
		args.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		args.ConfigVal = strings.Join(remaining[2:], " ")
	}
}
