package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/common/otel"
	"trialwatch.app/engine/core/config"
	"trialwatch.app/engine/core/db"
	"trialwatch.app/engine/internal/service"
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s\n", banner)

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger.Setup(cfg)

	slog.InfoContext(ctx, "trialwatch worker starting",
		"env", cfg.Env,
		"roles", cfg.Repair.Roles,
		"interval", cfg.Repair.Interval)

	if err := id.Init(id.NodeWorker); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	services := service.NewServices(service.ServicesConfig{
		Stores:      store.NewStores(database.Queries()),
		TxRunner:    service.NewTxRunner(database),
		DefaultRole: cfg.Tasks.DefaultRole,
	})
	repairer := services.Repair()

	sweeper := worker.NewRepairSweeper(repairer, worker.SweeperConfig{
		Roles:    cfg.Repair.Roles,
		Interval: cfg.Repair.Interval,
	})

	go sweeper.Run(ctx)

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Stop()
		close(done)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case <-done:
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}

const banner = `
 _        _       _                _       _                          _
| |_ _ __(_) __ _| |_      ____ _| |_ ___| |__   __      _____  _ __| | _____ _ __
| __| '__| |/ _' | \ \ /\ / / _' | __/ __| '_ \  \ \ /\ / / _ \| '__| |/ / _ \ '__|
| |_| |  | | (_| | |\ V  V / (_| | || (__| | | |  \ V  V / (_) | |  |   <  __/ |
 \__|_|  |_|\__,_|_| \_/\_/ \__,_|\__\___|_| |_|   \_/\_/ \___/|_|  |_|\_\___|_|
`
