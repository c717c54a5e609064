package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"trialwatch.app/engine/common/id"
	"trialwatch.app/engine/common/logger"
	"trialwatch.app/engine/common/otel"
	"trialwatch.app/engine/core/config"
	"trialwatch.app/engine/core/db"
	"trialwatch.app/engine/internal/http/middleware"
	httprouter "trialwatch.app/engine/internal/http/router"
	"trialwatch.app/engine/internal/service"
	"trialwatch.app/engine/internal/store"
	"trialwatch.app/engine/internal/viewcache"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "trialwatch server starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(id.NodeServer); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	if err := database.Migrate(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to apply migrations", "error", err)
		os.Exit(1)
	}

	servicesCfg := service.ServicesConfig{
		Stores:      store.NewStores(database.Queries()),
		TxRunner:    service.NewTxRunner(database),
		DefaultRole: cfg.Tasks.DefaultRole,
	}

	if cfg.Redis.Enabled() {
		redisClient, err := connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.InfoContext(ctx, "redis connected", "view_cache_ttl", cfg.Cache.TTL)

		servicesCfg.Cache = viewcache.NewRedis(redisClient, viewcache.RedisConfig{TTL: cfg.Cache.TTL})
	} else {
		slog.InfoContext(ctx, "redis disabled, using in-process comment cache")
	}

	services := service.NewServices(servicesCfg)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, services)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

func setupRouter(cfg config.Config, services *service.Services) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		AdminAPIKey: cfg.AdminAPIKey,
	})

	return router
}

const banner = `
 _        _       _                _       _
| |_ _ __(_) __ _| |_      ____ _| |_ ___| |__
| __| '__| |/ _' | \ \ /\ / / _' | __/ __| '_ \
| |_| |  | | (_| | |\ V  V / (_| | || (__| | | |
 \__|_|  |_|\__,_|_| \_/\_/ \__,_|\__\___|_| |_|
`
