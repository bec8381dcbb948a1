// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// train.go - Training submission and status commands.
//
// Command: train [TEXT]
// Short:   Submit text to the training endpoint
//
// Command: status
// Short:   Show the current training status
//
// The backend's /train response is printed verbatim: the service folds its
// own failures into an error-shaped JSON payload, so success and failure
// share one display path.

package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/config"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/supabase"
)

// HandleTrain handles the "train" command.
func HandleTrain(args Args) error {
	text, err := readQueryInput(args)
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("no training text provided\nUsage: voidai train \"text\" or voidai train --file corpus.txt")
	}

	cfg := LoadConfig(args)
	client := BackendClient(cfg, args)

	if !args.Quiet {
		fmt.Println(SuccessStyle.Render("[OK]") + " Training started...")
	}

	raw, err := client.Train(context.Background(), text)
	if err != nil {
		// The payload already carries the error shape; log the cause only.
		log.Printf("train submit: %v", err)
	}
	fmt.Println(string(raw))

	recordTrainingSession(cfg, text)

	if args.Quiet || args.JSON {
		return nil
	}
	return pollUntilDone(client, cfg)
}

// pollUntilDone follows the training run, printing each status change until
// the job reaches a terminal state or the user interrupts.
func pollUntilDone(client *api.Client, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	interval := time.Duration(cfg.Backend.PollIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			fmt.Println(MutedStyle.Render("stopped watching; training continues on the backend"))
			return nil
		case <-ticker.C:
		}

		status, err := client.TrainingStatus(ctx)
		if err != nil {
			log.Printf("status poll: %v", err)
		}

		if line := status.Display(); line != last && line != "" {
			last = line
			fmt.Println(statusLineStyle(status.Status).Render(line))
		}

		if model.TrainingStatus(status.Status).IsTerminal() {
			return nil
		}
	}
}

// recordTrainingSession inserts the submission row for the signed-in user.
// Best-effort: the training request already went out.
func recordTrainingSession(cfg *config.Config, text string) {
	sess := loadSession()
	if sess == nil || cfg.RequireSupabase() != nil {
		return
	}

	data := supabase.NewDataClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, func() string {
		return sess.AccessToken
	})
	row := model.NewTrainingSession(sess.User.ID, text)
	if err := data.InsertTrainingSession(context.Background(), row); err != nil {
		log.Printf("training session insert failed: %v", err)
	}
}

// HandleStatus handles the "status" command.
func HandleStatus(args Args) error {
	cfg := LoadConfig(args)
	client := BackendClient(cfg, args)

	status, err := client.TrainingStatus(context.Background())
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	if args.JSON {
		fmt.Printf("{\"status\":%q,\"message\":%q}\n", status.Status, status.Message)
		return nil
	}

	fmt.Println(statusLineStyle(status.Status).Render(status.Display()))
	return nil
}

// statusLineStyle colors the status line by the reported state.
func statusLineStyle(state string) lipgloss.Style {
	switch model.TrainingStatus(state) {
	case model.TrainingComplete:
		return SuccessStyle
	case model.TrainingError:
		return ErrorStyle
	case model.TrainingStarted, model.TrainingRunning:
		return WarnStyle
	default:
		return MutedStyle
	}
}
