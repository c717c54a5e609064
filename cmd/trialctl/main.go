package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"trialwatch.app/engine/core/config"
	"trialwatch.app/engine/internal/cli"
	"trialwatch.app/engine/internal/client"
	"trialwatch.app/engine/internal/taskview"
)

// version is set at build time using -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.ServiceTypeCLI)
	if err != nil {
		return err
	}
	// Keep command output clean; only warnings reach stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var (
		baseURL  = cfg.Client.BaseURL
		userID   = cfg.Client.UserID
		adminKey = cfg.AdminAPIKey
	)

	root := cli.NewRootCommand(cli.Options{
		API: func() (cli.API, error) {
			if baseURL == "" {
				return nil, errors.New("--api-url or API_BASE_URL is required")
			}
			return client.New(client.Config{
				BaseURL:     baseURL,
				UserID:      userID,
				AdminAPIKey: adminKey,
				Timeout:     cfg.Client.FetchTimeout,
			}), nil
		},
		Policy: taskview.Policy{
			MaxAttempts: cfg.Client.FetchMaxAttempts,
			Backoff:     cfg.Client.FetchBackoff,
			SettleDelay: cfg.Client.MarkReadSettle,
			Timeout:     cfg.Client.FetchTimeout,
		},
	}, version)

	flags := root.PersistentFlags()
	flags.StringVar(&baseURL, "api-url", baseURL, "trialwatch server URL")
	flags.StringVar(&userID, "user", userID, "acting user id")
	flags.StringVar(&adminKey, "admin-key", adminKey, "admin API key")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return root.ExecuteContext(ctx)
}
