// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Local history cache commands.
//
// Command: history [subcommand]
// Short:   Show the cached chat history
//
// Subcommands:
//   show (default)     Print the cached transcript
//   clear              Delete the signed-in user's cached history
//   export FILE        Write the transcript as Markdown
//
// The cache holds the last server-confirmed transcript per user. It is a
// read replica of the backend's chats table, so clearing it only affects
// this machine.

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jeranaias/voidai-tui/internal/storage"
	"github.com/jeranaias/voidai-tui/internal/util"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	sess := loadSession()
	if sess == nil {
		return fmt.Errorf("not signed in\nRun: voidai login")
	}

	cfg := LoadConfig(args)
	path, err := cfg.HistoryDBPath()
	if err != nil {
		return err
	}

	cache, err := storage.OpenHistoryCache(path)
	if err != nil {
		return fmt.Errorf("failed to open history cache: %w", err)
	}
	defer cache.Close()

	ctx := context.Background()

	switch args.Subcommand {
	case "", "show":
		turns, err := cache.List(ctx, sess.User.ID)
		if err != nil {
			return err
		}
		fmt.Println(storage.FormatHistory(turns))
		return nil

	case "clear":
		if err := cache.Clear(ctx, sess.User.ID); err != nil {
			return err
		}
		fmt.Println(SuccessStyle.Render("[OK]") + " Cached history cleared")
		return nil

	case "export":
		if args.OutputPath == "" {
			return fmt.Errorf("no output file provided\nUsage: voidai history export FILE")
		}
		turns, err := cache.List(ctx, sess.User.ID)
		if err != nil {
			return err
		}
		md := storage.ExportMarkdown(turns)
		if err := util.AtomicWriteFile(args.OutputPath, []byte(md), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", args.OutputPath, err)
		}
		fmt.Printf("%s Exported %d turns to %s\n",
			SuccessStyle.Render("[OK]"), len(turns), args.OutputPath)
		return nil

	case "count":
		n, err := cache.Count(ctx, sess.User.ID)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil

	default:
		fmt.Fprintf(os.Stderr, "unknown history subcommand: %s\n", args.Subcommand)
		return fmt.Errorf("valid subcommands: show, clear, export, count")
	}
}
