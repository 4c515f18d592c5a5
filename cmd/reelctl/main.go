package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/mmcdole/reelctl/internal/adapter"
	"github.com/mmcdole/reelctl/internal/api"
	"github.com/mmcdole/reelctl/internal/auth"
	"github.com/mmcdole/reelctl/internal/cache"
	"github.com/mmcdole/reelctl/internal/cli"
	"github.com/mmcdole/reelctl/internal/drafts"
	"github.com/mmcdole/reelctl/internal/session"
	"github.com/mmcdole/reelctl/internal/store"
	"github.com/mmcdole/reelctl/internal/video"
	"golang.org/x/term"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	var configPath string
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.StringVar(&configPath, "config", "", "config file (default "+adapter.DefaultConfigPath()+")")
	flag.Parse()

	if showVersion {
		fmt.Printf("reelctl %s\n", Version)
		return
	}

	err := run(configPath, flag.Args())
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrUsage):
		os.Exit(2)
	case errors.Is(err, cli.ErrReported):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, logFile, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	} else {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	logger.Info("starting reelctl", "version", Version, "server", cfg.Server.URL)

	db, err := store.Open(cfg.Storage.Dir, cfg.Server.URL)
	if err != nil {
		return fmt.Errorf("failed to open local storage: %w", err)
	}
	defer db.Close()

	sess := session.Open(db, logger)
	draftStore := drafts.Open(db, logger)

	queries := cache.New(db, logger)
	if n, err := queries.Prune(cfg.Cache.GCAfter); err != nil {
		logger.Warn("cache prune failed", "error", err)
	} else if n > 0 {
		logger.Debug("pruned cache entries", "count", n)
	}

	apiCfg := api.DefaultConfig(cfg.Server.URL)
	apiCfg.Timeout = cfg.Server.Timeout
	apiCfg.MaxRetries = cfg.Server.MaxRetries
	apiCfg.RequestsPerSecond = cfg.Server.RequestsPerSecond
	client, err := api.NewClient(apiCfg, sess.AccessToken, db, logger)
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	terminal := adapter.NewTerminal(os.Stdout, os.Stderr)

	authSvc := auth.NewService(client, sess, queries, terminal, terminal, logger)
	authSvc.SetUserStale(cfg.Cache.UserStale)
	videoSvc := video.NewService(client, draftStore, queries, terminal, logger)
	videoSvc.SetListStale(cfg.Cache.ListStale)
	videoSvc.SetReauth(authSvc.Reauthenticate)

	stdinFD := int(os.Stdin.Fd())
	app := cli.New(cli.Options{
		Auth:        authSvc,
		Videos:      videoSvc,
		Session:     sess,
		Drafts:      draftStore,
		Terminal:    terminal,
		Prompt:      cli.NewPrompter(os.Stdin, os.Stderr, stdinFD, term.IsTerminal(stdinFD)),
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
		Interactive: term.IsTerminal(int(os.Stderr.Fd())),
		Timeout:     operationTimeout(apiCfg),
		RefreshSkew: cfg.Auth.RefreshSkew,
		Version:     Version,
		ServerURL:   cfg.Server.URL,
		SaveServerURL: func(url string) error {
			cfg.Server.URL = url
			if err := cfg.Validate(); err != nil {
				return err
			}
			return adapter.SaveConfig(cfg, configPath)
		},
		Logger: logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = app.Run(ctx, args)
	logger.Info("shutting down", "error", errString(err))
	return err
}

// operationTimeout leaves room for every retry of one request
func operationTimeout(cfg api.Config) time.Duration {
	attempts := time.Duration(cfg.MaxRetries + 1)
	backoff := cfg.RetryDelay * (1<<cfg.MaxRetries - 1)
	return cfg.Timeout*attempts + backoff
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
