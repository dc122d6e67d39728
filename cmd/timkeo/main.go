package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/timkeo/timkeo-client/internal/api"
	"github.com/timkeo/timkeo-client/internal/auth"
	"github.com/timkeo/timkeo-client/internal/config"
	"github.com/timkeo/timkeo-client/internal/localstore"
	"github.com/timkeo/timkeo-client/internal/logger"
	"github.com/timkeo/timkeo-client/internal/match"
	"github.com/timkeo/timkeo-client/internal/session"
	"github.com/timkeo/timkeo-client/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	dev := cfg.Env == "development"

	// logger, writing to a file so the TUI keeps the terminal
	if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
		fmt.Fprintf(os.Stderr, "state dir: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(logger.Config{
		Development: dev,
		OutputPath:  filepath.Join(cfg.StateDir, "timkeo.log"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// local state
	local, err := localstore.Open(cfg.StateDir)
	if err != nil {
		log.Fatalf("local store: %v", err)
	}
	sess := session.NewStore(local, log)
	onboarding := session.NewOnboarding(local)

	// REST client
	client := api.NewClient(api.ClientConfig{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.APITimeout,
		RetryMaxElapsed:    cfg.RetryMaxElapsed,
		BreakerOpen:        cfg.BreakerOpen,
		BreakerMaxFailures: cfg.API.BreakerMaxFailures,
		MaxIdleConns:       cfg.API.MaxIdleConns,
		IdleConnTimeout:    cfg.IdleConnTimeout,
	}, sess, log)

	// restore the session from the stored token, best-effort
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sess.Refresh(ctx, client); err != nil {
		log.Warnw("session restore failed", "err", err)
	}
	cancel()

	gate := match.NewRatingGate(client, local, log)
	login := auth.NewFlow(cfg.API.BaseURL, cfg.Auth.CallbackPort, sess, log)

	app := ui.NewApp(cfg, client, sess, onboarding, gate, login, log)
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("ui: %v", err)
	}
}
