// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command (line-oriented, no full-screen UI).
//
// Command: chat
// Short:   Interactive chat in the current terminal
//
// Slash commands inside the session:
//   /help      Show available commands
//   /clear     Clear the on-screen conversation
//   /history   Show the cached chat history
//   /quit      Exit (also /exit, ctrl+d)

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/config"
	"github.com/jeranaias/voidai-tui/internal/storage"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput wraps liner with a persisted input history.
// USABILITY: arrow keys navigate previous prompts across sessions.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	in := &chatInput{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}

	if f, err := os.Open(in.historyFile); err == nil {
		in.line.ReadHistory(f)
		f.Close()
	}

	return in
}

// read prompts for one line and records non-empty input in the history.
func (c *chatInput) read(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// close persists the input history and releases the terminal.
func (c *chatInput) close() {
	if err := config.EnsureConfigDir(); err == nil {
		// 0600: input history can contain anything the user typed
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// HANDLE CHAT
// =============================================================================

// HandleChat handles the "chat" command.
func HandleChat(args Args) error {
	if err := RequireTTY("chat"); err != nil {
		return err
	}

	userID := sessionUserID()
	if userID == "" {
		return fmt.Errorf("not signed in\nRun: voidai login")
	}

	cfg := LoadConfig(args)
	client := BackendClient(cfg, args)

	input := newChatInput()
	defer input.close()

	fmt.Println(TitleStyle.Render("VOID AI"))
	fmt.Println(MutedStyle.Render("Type /help for commands, /quit to exit."))
	fmt.Println()

	for {
		text, err := input.read(PromptStyle.Render("you> "))
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Println()
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if strings.HasPrefix(text, "/") {
			if done := handleSlashCommand(text, cfg); done {
				return nil
			}
			continue
		}

		reply := askOnce(client, userID, text)
		fmt.Println()
		displayResponse(reply, args.Quiet)
		fmt.Println()
	}
}

// askOnce sends one chat turn. Failures become the reply text, matching the
// TUI's behavior of showing the backend error in place of the AI response.
func askOnce(client *api.Client, userID, text string) string {
	reply, err := client.Chat(context.Background(), text, userID, nil)
	if err != nil {
		return api.DisplayError(err)
	}
	return reply
}

// handleSlashCommand runs one in-session command. Returns true to exit.
func handleSlashCommand(text string, cfg *config.Config) bool {
	switch strings.ToLower(strings.Fields(text)[0]) {
	case "/quit", "/exit", "/q":
		return true

	case "/help", "/?":
		fmt.Println("  /help      Show this help")
		fmt.Println("  /clear     Clear the screen")
		fmt.Println("  /history   Show cached chat history")
		fmt.Println("  /quit      Exit chat")

	case "/clear":
		// ANSI clear screen + home
		fmt.Print("\033[2J\033[H")

	case "/history":
		printCachedHistory(cfg)

	default:
		fmt.Println(WarnStyle.Render("Unknown command. Type /help."))
	}
	return false
}

// printCachedHistory shows the signed-in user's cached transcript.
func printCachedHistory(cfg *config.Config) {
	sess := loadSession()
	if sess == nil {
		fmt.Println(MutedStyle.Render("Not signed in; no cached history."))
		return
	}

	path, err := cfg.HistoryDBPath()
	if err != nil {
		fmt.Println(ErrorStyle.Render("history: " + err.Error()))
		return
	}

	cache, err := storage.OpenHistoryCache(path)
	if err != nil {
		fmt.Println(ErrorStyle.Render("history: " + err.Error()))
		return
	}
	defer cache.Close()

	turns, err := cache.List(context.Background(), sess.User.ID)
	if err != nil {
		fmt.Println(ErrorStyle.Render("history: " + err.Error()))
		return
	}

	fmt.Println(storage.FormatHistory(turns))
}
