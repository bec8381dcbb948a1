// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - Account commands: login, logout, signup, whoami.
//
// Sessions persist in the encrypted session file under the config
// directory, so the TUI and the one-shot commands share a sign-in.

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/voidai-tui/internal/supabase"
)

// promptLine reads one trimmed line from stdin.
func promptLine(label string) (string, error) {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo.
// SECURITY: never echo credentials back to the terminal.
func promptPassword(label string) (string, error) {
	fmt.Print(label)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

// HandleLogin handles the "login" command.
func HandleLogin(args Args) error {
	if err := RequireTTY("login"); err != nil {
		return err
	}

	cfg := LoadConfig(args)
	auth, err := authClient(cfg)
	if err != nil {
		return err
	}

	email := args.Email
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	sess, err := auth.SignInWithPassword(context.Background(), email, password)
	if err != nil {
		return fmt.Errorf("%s", supabase.AuthMessage(err))
	}

	fmt.Printf("%s Signed in as %s\n", SuccessStyle.Render("[OK]"), sess.User.Email)
	return nil
}

// HandleLogout handles the "logout" command. Local state is cleared even
// when the server-side revoke fails.
func HandleLogout(args Args) error {
	cfg := LoadConfig(args)
	auth, err := authClient(cfg)
	if err != nil {
		return err
	}

	if err := auth.SignOut(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", WarnStyle.Render("[!]"), err)
	}

	fmt.Println(SuccessStyle.Render("[OK]") + " Signed out")
	return nil
}

// HandleSignup handles the "signup" command.
func HandleSignup(args Args) error {
	if err := RequireTTY("signup"); err != nil {
		return err
	}

	cfg := LoadConfig(args)
	auth, err := authClient(cfg)
	if err != nil {
		return err
	}

	email := args.Email
	if email == "" {
		email, err = promptLine("Email: ")
		if err != nil {
			return err
		}
	}
	username, err := promptLine("Username (optional): ")
	if err != nil {
		return err
	}
	password, err := promptPassword("Password: ")
	if err != nil {
		return err
	}
	if email == "" || password == "" {
		return fmt.Errorf("email and password are required")
	}

	sess, err := auth.SignUp(context.Background(), email, password, username)
	if err != nil {
		return fmt.Errorf("%s", supabase.AuthMessage(err))
	}

	// A nil session means the project requires email confirmation.
	if sess == nil {
		fmt.Println(SuccessStyle.Render("[OK]") +
			" Account created. Check your email to confirm, then run: voidai login")
		return nil
	}

	fmt.Printf("%s Signed up and signed in as %s\n",
		SuccessStyle.Render("[OK]"), sess.User.Email)
	return nil
}

// HandleWhoami handles the "whoami" command.
func HandleWhoami(args Args) error {
	sess := loadSession()
	if sess == nil {
		fmt.Println("Not signed in")
		return nil
	}

	if args.JSON {
		fmt.Printf("{\"id\":%q,\"email\":%q}\n", sess.User.ID, sess.User.Email)
		return nil
	}

	fmt.Printf("%s%s\n", LabelStyle.Render("Email:"), ValueStyle.Render(sess.User.Email))
	fmt.Printf("%s%s\n", LabelStyle.Render("User ID:"), ValueStyle.Render(sess.User.ID))
	if sess.IsExpired() {
		fmt.Println(WarnStyle.Render("Session expired; it will refresh on next use."))
	}
	return nil
}
