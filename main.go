// voidai - a terminal client for the Void AI backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/voidai-tui/internal/api"
	"github.com/jeranaias/voidai-tui/internal/cli"
	"github.com/jeranaias/voidai-tui/internal/config"
	"github.com/jeranaias/voidai-tui/internal/model"
	"github.com/jeranaias/voidai-tui/internal/session"
	"github.com/jeranaias/voidai-tui/internal/storage"
	"github.com/jeranaias/voidai-tui/internal/supabase"
	"github.com/jeranaias/voidai-tui/internal/ui/auth"
	"github.com/jeranaias/voidai-tui/internal/ui/chat"
	"github.com/jeranaias/voidai-tui/internal/ui/components"
	"github.com/jeranaias/voidai-tui/internal/ui/styles"
	"github.com/jeranaias/voidai-tui/internal/ui/train"
	"github.com/jeranaias/voidai-tui/internal/util"
)

// Version information (set at build time).
var (
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Program reference for messages originating outside the event loop
// (config reloads).
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	config.LoadDotEnv()

	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		exitOnError(cli.HandleAsk(args))
	case cli.CmdChat:
		exitOnError(cli.HandleChat(args))
	case cli.CmdTrain:
		exitOnError(cli.HandleTrain(args))
	case cli.CmdStatus:
		exitOnError(cli.HandleStatus(args))
	case cli.CmdHistory:
		exitOnError(cli.HandleHistory(args))
	case cli.CmdLogin:
		exitOnError(cli.HandleLogin(args))
	case cli.CmdLogout:
		exitOnError(cli.HandleLogout(args))
	case cli.CmdSignup:
		exitOnError(cli.HandleSignup(args))
	case cli.CmdWhoami:
		exitOnError(cli.HandleWhoami(args))
	case cli.CmdConfig:
		exitOnError(cli.HandleConfig(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		runTUI(args)
	}
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// TUI STARTUP
// =============================================================================

// setupLogging sends the standard logger to a file so log lines do not
// tear the alternate screen.
func setupLogging() {
	dir, err := config.ConfigDir()
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "voidai.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) {
	cfg := cli.LoadConfig(args)

	// The TUI needs the auth/data project; the one-shot backend commands
	// work without it, the full client does not.
	if err := cfg.RequireSupabase(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Set supabase.url and supabase.anon_key via 'voidai config set' or VOIDAI_SUPABASE_URL / VOIDAI_SUPABASE_ANON_KEY.\n")
		os.Exit(1)
	}

	setupLogging()

	theme := styles.NewTheme(cfg.UI.Theme)

	sessionPath, err := config.SessionPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store := supabase.NewTokenStore(sessionPath, util.AtomicWriteFile)
	authClient := supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.AnonKey).WithStore(store)

	// The data client authenticates with the controller's current access
	// token; the controller needs the data client for profile and history
	// loads. Late-bind through a closure to break the cycle.
	var ctrl *session.Controller
	dataClient := supabase.NewDataClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, func() string {
		if ctrl == nil {
			return ""
		}
		return ctrl.AccessToken()
	})
	ctrl = session.NewController(authClient, dataClient)
	defer ctrl.Close()

	apiClient := api.NewClient(cfg.Backend.BaseURL).
		WithTimeout(time.Duration(cfg.Backend.TimeoutSecs) * time.Second).
		WithDefaults(cfg.Backend.MaxNewTokens, cfg.Backend.Temperature)

	// Local history cache is best-effort: a broken cache degrades to
	// server-only history.
	var cache *storage.HistoryCache
	if cfg.History.Enabled {
		if path, err := cfg.HistoryDBPath(); err == nil {
			cache, err = storage.OpenHistoryCache(path)
			if err != nil {
				log.Printf("history cache unavailable: %v", err)
				cache = nil
			}
		}
	}
	if cache != nil {
		defer cache.Close()
	}

	m := newRootModel(theme, cfg, ctrl, dataClient, apiClient, cache, args.Page)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	// Hot-reload config edits into the running UI.
	watcher, err := config.NewWatcher(func(next *config.Config) {
		programMu.Lock()
		prog := programRef
		programMu.Unlock()
		if prog != nil {
			prog.Send(configReloadedMsg{cfg: next})
		}
	})
	if err == nil {
		if err := watcher.Watch(); err != nil {
			log.Printf("config watcher: %v", err)
		}
		defer watcher.Close()
	} else {
		log.Printf("config watcher: %v", err)
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running voidai: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// Page identifies which top-level screen is shown.
type Page int

const (
	PageLanding Page = iota
	PageAbout
	PageAuth
	PageApp
	PageNotFound
)

// Panel identifies which app panel has focus.
type Panel int

const (
	PanelChat Panel = iota
	PanelTrain
)

// configReloadedMsg carries a config picked up by the file watcher.
type configReloadedMsg struct {
	cfg *config.Config
}

// rootModel is the top-level Bubble Tea model.
type rootModel struct {
	theme  *styles.Theme
	width  int
	height int

	cfg  *config.Config
	ctrl *session.Controller

	page  Page
	panel Panel

	// True once InitialSessionMsg has arrived; page routing that depends
	// on sign-in state waits for it.
	sessionKnown bool

	header    *components.Header
	statusBar *components.StatusBar

	chatModel  chat.Model
	trainModel train.Model
	authModel  auth.Model
}

func newRootModel(
	theme *styles.Theme,
	cfg *config.Config,
	ctrl *session.Controller,
	data supabase.Data,
	apiClient *api.Client,
	cache *storage.HistoryCache,
	startPage string,
) *rootModel {
	header := components.NewHeader(theme)
	statusBar := components.NewStatusBar(theme)
	statusBar.Backend = apiClient.BaseURL()
	statusBar.Shortcuts = []components.Shortcut{
		{Key: "tab", Desc: "switch panel"},
		{Key: "ctrl+o", Desc: "sign out"},
		{Key: "ctrl+c", Desc: "quit"},
	}

	interval := time.Duration(cfg.Backend.PollIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &rootModel{
		theme:      theme,
		cfg:        cfg,
		ctrl:       ctrl,
		page:       resolveStartPage(startPage),
		header:     header,
		statusBar:  statusBar,
		chatModel:  chat.New(theme, apiClient, cache),
		trainModel: train.New(theme, apiClient, data, interval),
		authModel:  auth.New(theme, ctrl),
	}
}

// resolveStartPage maps the --page flag to a screen. Unknown names land on
// the not-found page rather than failing startup.
func resolveStartPage(name string) Page {
	switch strings.ToLower(name) {
	case "", "landing", "home":
		return PageLanding
	case "about":
		return PageAbout
	case "chat", "app":
		return PageApp
	default:
		return PageNotFound
	}
}

// Init starts the session controller.
func (m *rootModel) Init() tea.Cmd {
	return m.ctrl.Start(context.Background())
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and routes them to the active page.
func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case configReloadedMsg:
		m.applyConfig(msg.cfg)
		return m, nil

	case session.InitialSessionMsg:
		m.sessionKnown = true
		return m, m.applySession(msg.Session)

	case session.ChangedMsg:
		cmd := m.applySession(msg.Session)
		// Keep exactly one outstanding wait alive.
		return m, tea.Batch(cmd, m.ctrl.WaitForChange())

	case session.ProfileMsg:
		name := m.ctrl.DisplayName()
		m.header.SetUser(name)
		m.statusBar.SetUser(name)
		return m, nil

	case session.HistoryMsg:
		return m, m.chatModel.LoadHistory(msg.Turns)

	case session.SignInResultMsg:
		var cmd tea.Cmd
		m.authModel, cmd = m.authModel.Update(msg)
		return m, cmd

	case session.SignUpResultMsg:
		var cmd tea.Cmd
		m.authModel, cmd = m.authModel.Update(msg)
		return m, cmd

	case session.SignOutDoneMsg:
		return m, nil
	}

	// Everything else (ticks, replies, poll results) goes to the app
	// panels regardless of which one has focus.
	return m, m.updatePanels(msg)
}

// updateKey routes key presses by page.
func (m *rootModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.page {
	case PageLanding:
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "a":
			m.page = PageAbout
			return m, nil
		case "enter", " ":
			return m, m.enterApp()
		}
		return m, nil

	case PageAbout:
		switch msg.String() {
		case "esc", "q":
			m.page = PageLanding
		case "enter":
			return m, m.enterApp()
		}
		return m, nil

	case PageNotFound:
		m.page = PageLanding
		return m, nil

	case PageAuth:
		var cmd tea.Cmd
		m.authModel, cmd = m.authModel.Update(msg)
		return m, cmd

	case PageApp:
		switch msg.String() {
		case "tab":
			return m, m.switchPanel()
		case "ctrl+o":
			return m, m.ctrl.SignOut(context.Background())
		}
		return m, m.updateFocusedPanel(msg)
	}

	return m, nil
}

// enterApp moves from a static page into the client, via auth when
// signed out. Before the initial session fetch lands the landing page
// just waits.
func (m *rootModel) enterApp() tea.Cmd {
	if !m.sessionKnown {
		return nil
	}
	if m.ctrl.Session() == nil {
		m.page = PageAuth
		return nil
	}
	m.page = PageApp
	m.panel = PanelChat
	return m.chatModel.Focus()
}

// switchPanel toggles between the chat and train panels, starting and
// stopping the status poll loop with panel visibility.
func (m *rootModel) switchPanel() tea.Cmd {
	if m.panel == PanelChat {
		m.panel = PanelTrain
		m.chatModel.Blur()
		m.statusBar.SetStatus(components.StatusTraining)
		return tea.Batch(m.trainModel.Focus(), m.trainModel.StartPolling())
	}

	m.panel = PanelChat
	m.trainModel.Blur()
	m.trainModel.StopPolling()
	m.statusBar.SetStatus(components.StatusReady)
	return m.chatModel.Focus()
}

// updateFocusedPanel sends a key to whichever panel has focus.
func (m *rootModel) updateFocusedPanel(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if m.panel == PanelTrain {
		m.trainModel, cmd = m.trainModel.Update(msg)
	} else {
		m.chatModel, cmd = m.chatModel.Update(msg)
	}
	m.refreshStatus()
	return cmd
}

// updatePanels fans non-key messages out to both panels.
func (m *rootModel) updatePanels(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.chatModel, cmd = m.chatModel.Update(msg)
	cmds = append(cmds, cmd)
	m.trainModel, cmd = m.trainModel.Update(msg)
	cmds = append(cmds, cmd)

	m.refreshStatus()
	return tea.Batch(cmds...)
}

// applySession reacts to a sign-in state transition.
func (m *rootModel) applySession(sess *model.Session) tea.Cmd {
	if sess == nil {
		// Signed out: scrub per-user state and fall back to auth.
		m.chatModel.Clear()
		m.chatModel.SetUser("")
		m.trainModel.StopPolling()
		m.trainModel.SetUser("")
		m.header.SetUser("")
		m.statusBar.SetUser("")
		m.statusBar.SetStatus(components.StatusSignedOut)
		if m.page == PageApp {
			m.page = PageAuth
		}
		return nil
	}

	m.chatModel.SetUser(sess.User.ID)
	m.trainModel.SetUser(sess.User.ID)
	m.header.SetUser(sess.User.Email)
	m.statusBar.SetUser(sess.User.Email)
	m.statusBar.SetStatus(components.StatusReady)

	var cmds []tea.Cmd
	if m.page == PageAuth {
		m.page = PageApp
		m.panel = PanelChat
		cmds = append(cmds, m.chatModel.Focus())
	}

	ctx := context.Background()
	cmds = append(cmds, m.ctrl.LoadProfile(ctx), m.ctrl.LoadHistory(ctx))
	return tea.Batch(cmds...)
}

// applyConfig folds a reloaded config into the running UI. Theme and
// backend URL changes need a restart; the cheap knobs apply live.
func (m *rootModel) applyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	m.cfg = cfg
	log.Printf("config reloaded")
}

// refreshStatus derives the status bar state from panel activity.
func (m *rootModel) refreshStatus() {
	switch {
	case m.ctrl.Session() == nil:
		m.statusBar.SetStatus(components.StatusSignedOut)
	case m.chatModel.Busy():
		m.statusBar.SetStatus(components.StatusSending)
	case m.panel == PanelTrain:
		m.statusBar.SetStatus(components.StatusTraining)
	default:
		m.statusBar.SetStatus(components.StatusReady)
	}
}

// setSize propagates the terminal size to every component.
func (m *rootModel) setSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.statusBar.SetWidth(width)

	// Header and status bar each take one rendered block.
	contentHeight := height - lipgloss.Height(m.header.View()) - 1
	if contentHeight < 1 {
		contentHeight = 1
	}
	m.chatModel.SetSize(width, contentHeight)
	m.trainModel.SetSize(width, contentHeight)
	m.authModel.SetSize(width, contentHeight)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the active page between the header and the status bar.
func (m *rootModel) View() string {
	var body string

	switch m.page {
	case PageLanding:
		body = m.landingView()
	case PageAbout:
		body = m.aboutView()
	case PageNotFound:
		body = m.notFoundView()
	case PageAuth:
		body = m.authModel.View()
	case PageApp:
		if m.panel == PanelTrain {
			body = m.trainModel.View()
		} else {
			body = m.chatModel.View()
		}
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.header.View(),
		body,
		m.statusBar.View(),
	)
}

func (m *rootModel) landingView() string {
	var sb strings.Builder
	sb.WriteString(m.theme.PageTitle.Render("VOID AI"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.PageTagline.Render("an evolving mind"))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageBody.Render(
		"A self-training AI that learns from what you feed it.\nSign in to talk to the void."))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageKey.Render("enter") + m.theme.PageBody.Render("  continue"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.PageKey.Render("a") + m.theme.PageBody.Render("      about"))
	sb.WriteString("\n")
	sb.WriteString(m.theme.PageKey.Render("q") + m.theme.PageBody.Render("      quit"))

	return m.centerPage(m.theme.PageBox.Render(sb.String()))
}

func (m *rootModel) aboutView() string {
	var sb strings.Builder
	sb.WriteString(m.theme.PageTitle.Render("About"))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageBody.Render(
		"Void AI is a small language model that retrains on text its users\n" +
			"submit. Chat with it, feed it training text, and watch the status\n" +
			"of each training run as the model absorbs the input."))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageBody.Render("Version " + Version))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageKey.Render("esc") + m.theme.PageBody.Render(" back"))

	return m.centerPage(m.theme.PageBox.Render(sb.String()))
}

func (m *rootModel) notFoundView() string {
	var sb strings.Builder
	sb.WriteString(m.theme.PageTitle.Render("404"))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageBody.Render("This page does not exist in the void."))
	sb.WriteString("\n\n")
	sb.WriteString(m.theme.PageKey.Render("any key") + m.theme.PageBody.Render(" return"))

	return m.centerPage(m.theme.PageBox.Render(sb.String()))
}

// centerPage centers static page content in the available area.
func (m *rootModel) centerPage(content string) string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height - 4
	if height < lipgloss.Height(content) {
		height = lipgloss.Height(content)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
