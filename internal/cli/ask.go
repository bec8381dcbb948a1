// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - One-shot question command.
//
// Command: ask QUESTION
// Short:   Ask a single question and print the reply
//
// Examples:
//   voidai ask "Who are you?"
//   voidai ask "Review this:" --file main.go
//   voidai ask --plain "What is Go?" > reply.txt

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer renders AI replies for TTY output. A nil renderer means
// rendering is unavailable and replies are printed raw.
var markdownRenderer *glamour.TermRenderer

func init() {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(GetTerminalWidth()),
	)
	if err == nil {
		markdownRenderer = renderer
	}
}

// renderMarkdown renders markdown for terminal display, falling back to the
// raw text when the renderer is unavailable or fails.
func renderMarkdown(text string) string {
	if markdownRenderer == nil {
		return text
	}
	out, err := markdownRenderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

// displayResponse prints a reply, with markdown rendering only when stdout
// is a terminal. Piped output stays byte-clean.
func displayResponse(text string, plain bool) {
	if plain || !IsStdoutTTY() {
		fmt.Println(text)
		return
	}
	fmt.Print(renderMarkdown(text))
}

// HandleAsk handles the "ask" command.
func HandleAsk(args Args) error {
	question, err := readQueryInput(args)
	if err != nil {
		return err
	}
	if question == "" {
		return fmt.Errorf("no question provided\nUsage: voidai ask \"your question\"")
	}

	userID := sessionUserID()
	if userID == "" {
		return fmt.Errorf("not signed in\nRun: voidai login")
	}

	cfg := LoadConfig(args)
	client := BackendClient(cfg, args)

	if !args.Quiet && IsStderrTTY() {
		fmt.Fprintln(os.Stderr, MutedStyle.Render("thinking..."))
	}

	reply, err := client.Chat(context.Background(), question, userID, genOptions(args))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	displayResponse(reply, args.Quiet)
	return nil
}
