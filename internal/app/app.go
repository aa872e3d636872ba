package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/harbor/internal/config"
	"github.com/MrSnakeDoc/harbor/internal/console"
	"github.com/MrSnakeDoc/harbor/internal/frontend"
	"github.com/MrSnakeDoc/harbor/internal/httpserver"
	"github.com/MrSnakeDoc/harbor/internal/httpserver/deps"
	"github.com/MrSnakeDoc/harbor/internal/inventory"
	"github.com/MrSnakeDoc/harbor/internal/logger"
	"github.com/MrSnakeDoc/harbor/internal/metrics"
	"github.com/MrSnakeDoc/harbor/internal/redis"
	"github.com/MrSnakeDoc/harbor/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/harbor/internal/store/redis"
	"github.com/MrSnakeDoc/harbor/internal/tasks"
	"github.com/MrSnakeDoc/harbor/internal/version"
)

// App owns every long-lived component of the service.
type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	resyncer    *scheduler.FrontendResyncer
	collector   *scheduler.FrontendCollector // nil when frontends are disabled
}

// New loads configuration and builds every component. It exits when Redis
// is unreachable.
func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Fail fast if the shared store is unreachable
	redisClient, err := redis.New(redis.Options{
		Addr:           cfg.RedisAddr(),
		Username:       cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}

	metrics.Register()

	store := redisstore.NewStore(redisClient)
	registry := inventory.NewRegistry()
	publisher := tasks.NewPublisher(store, cfg.HostTaskTTL, loggerClient)
	issuer := console.NewIssuer(store, cfg.ConsoleSessionTTL, loggerClient)

	frontends, err := frontend.New(cfg.FrontendEnabled, store, loggerClient)
	switch {
	case errors.Is(err, frontend.ErrDisabled):
		loggerClient.Info("frontend publishing disabled")
	case err != nil:
		loggerClient.Fatalf("failed to build frontend synchronizer: %v", err)
	}

	reloadTrigger := make(chan struct{}, 1)

	var frontendPublisher scheduler.FrontendPublisher
	if frontends != nil {
		frontendPublisher = frontends
	}
	resyncer := scheduler.NewFrontendResyncer(
		inventory.NewLoader(cfg.InventoryFile),
		registry,
		frontendPublisher,
		loggerClient,
		cfg.ResyncInterval,
		reloadTrigger,
	).AllowEmpty(cfg.AllowEmptyInventory)

	var collector *scheduler.FrontendCollector
	if frontends != nil {
		collector = scheduler.NewFrontendCollector(store, registry, frontends, loggerClient, cfg.GCSchedule)
	}

	d := deps.Deps{
		Logger:         loggerClient,
		StartTime:      time.Now(),
		Version:        version.Version,
		Commit:         version.Commit,
		BuildDate:      version.BuildDate,
		GoVersion:      version.GoVersion,
		AllowedHosts:   cfg.AllowedHosts,
		AllowedCIDRS:   cfg.AllowedCIDRS,
		TrustProxy:     cfg.TrustProxy,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Store:          store,
		Registry:       registry,
		Tasks:          publisher,
		Frontends:      frontends,
		Console:        issuer,
		ReloadTrigger:  reloadTrigger,
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		resyncer:    resyncer,
		collector:   collector,
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down in order.
func (a *App) Run() error {
	a.logger.Infof("Starting Harbor %s on %s (commit=%s, built=%s, go=%s)",
		version.Version, a.cfg.ListenPort, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Loads the inventory and publishes every frontend before serving
	if err := a.resyncer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start frontend resyncer: %w", err)
	}
	a.logger.Info("frontend resyncer started",
		logger.String("inventory", a.cfg.InventoryFile),
		logger.Duration("interval", a.cfg.ResyncInterval))

	if a.collector != nil {
		if err := a.collector.Start(ctx); err != nil {
			return fmt.Errorf("failed to start frontend collector: %w", err)
		}
		a.logger.Info("frontend collector started",
			logger.String("schedule", a.cfg.GCSchedule))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.resyncer.Stop()
	if a.collector != nil {
		a.collector.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("Redis closed cleanly")
	}

	a.logger.Info("Harbor stopped cleanly")
	_ = a.logger.Sync()
	return nil
}
