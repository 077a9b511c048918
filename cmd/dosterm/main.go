package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/TigerQ/jsbasic/internal/console"
	"github.com/TigerQ/jsbasic/pkg/config"
	"github.com/TigerQ/jsbasic/pkg/dos"
	"github.com/TigerQ/jsbasic/pkg/store"
)

func main() {
	var (
		configPath string
		dataDir    string
		serveSSH   bool
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.StringVar(&dataDir, "data", "", "volume directory (overrides config; empty without config means in-memory)")
	flag.BoolVar(&serveSSH, "ssh", false, "serve the console over SSH instead of the local terminal")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			slog.Error("Failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if dataDir != "" {
		cfg.Volume.Directory = dataDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var backing store.Store
	if cfg.Volume.Directory != "" {
		badgerStore, err := store.NewBadgerStore(store.BadgerConfig{
			Logger:    logger,
			Directory: cfg.Volume.Directory,
		})
		if err != nil {
			slog.Error("Failed to open volume", "directory", cfg.Volume.Directory, "error", err)
			os.Exit(1)
		}
		defer badgerStore.Close()
		backing = badgerStore
	} else {
		backing = store.NewMemoryStore()
	}

	var source store.ContentSource
	if cfg.Source.BaseURL != "" {
		httpSource := store.NewHTTPSource(store.HTTPSourceConfig{
			Logger:        logger,
			BaseURL:       cfg.Source.BaseURL,
			CacheTTL:      cfg.Source.CacheTTL,
			RatePerSecond: cfg.Source.RatePerSecond,
			Burst:         cfg.Source.Burst,
		})
		defer httpSource.Stop()
		source = httpSource
	}

	newSession := func() console.Model {
		term := console.NewDisplayTerminal()
		machine := dos.New(dos.Config{
			Logger:   logger,
			Store:    backing,
			Source:   source,
			Terminal: term,
			AppCtx:   ctx,
		})
		return console.NewModel(console.NewSession(cfg.Console.Prompt), machine, term)
	}

	if serveSSH {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = "."
		}
		hostKeyPath, err := cfg.EnsureHostKey(homeDir)
		if err != nil {
			slog.Error("Failed to prepare SSH host key", "error", err)
			os.Exit(1)
		}

		err = console.ServeSSH(ctx, console.SSHConfig{
			Address:        cfg.SSH.Address,
			HostKeyPath:    hostKeyPath,
			AuthorizedKeys: cfg.SSH.AuthorizedKeys,
		}, newSession)
		if err != nil {
			slog.Error("SSH server exited with error", "error", err)
			os.Exit(1)
		}
		return
	}

	if _, err := tea.NewProgram(newSession(), tea.WithAltScreen()).Run(); err != nil {
		slog.Error("Console exited with error", "error", err)
		os.Exit(1)
	}
}
