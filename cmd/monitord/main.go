package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/avenz/sandwich-monitor/internal/cache"
	"github.com/avenz/sandwich-monitor/internal/config"
	"github.com/avenz/sandwich-monitor/internal/feed"
	"github.com/avenz/sandwich-monitor/internal/gateway"
	"github.com/avenz/sandwich-monitor/internal/httpapi"
	"github.com/avenz/sandwich-monitor/internal/metrics"
	"github.com/avenz/sandwich-monitor/internal/series"
	"github.com/avenz/sandwich-monitor/internal/store"
	"github.com/avenz/sandwich-monitor/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/monitor.yaml", "path to config file")
	flag.Parse()

	// .env is optional; config env expansion picks up whatever it sets.
	_ = godotenv.Load()

	levelVar := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelVar,
	}))
	slog.SetDefault(logger)

	logger.Info("starting monitor",
		"build", version.String(),
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := levelVar.UnmarshalText([]byte(cfg.Instance.LogLevel)); err != nil {
		logger.Warn("unknown log level, keeping info", "level", cfg.Instance.LogLevel)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"feed_primary", cfg.Feed.PrimaryURL,
		"gateway", cfg.Metrics.GatewayURL,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Persistent cache. An unreachable Redis is not fatal: the store keeps
	// operating in memory and write-throughs are retried on each append.
	redisCache := cache.NewRedis(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("persistent cache unreachable, continuing in-memory", "error", err)
	}

	eventStore := store.New(redisCache, cfg.Cache.Key, logger.With("component", "store"))
	eventStore.Load(ctx)

	gw, err := gateway.NewClient(
		cfg.Metrics.GatewayURL,
		gateway.WithTimeout(cfg.Metrics.Timeout),
		gateway.WithLogger(logger.With("component", "gateway")),
	)
	if err != nil {
		logger.Error("failed to create gateway client", "error", err)
		os.Exit(1)
	}

	aggregator := series.New(series.Config{
		Lookback:     cfg.Series.Lookback,
		HistoryStep:  cfg.Series.HistoryStep,
		ProfitStep:   cfg.Series.ProfitStep,
		LiveGrace:    cfg.Series.LiveGrace,
		LiveInterval: cfg.Series.LiveInterval,
		RateInterval: cfg.Series.RateInterval,
		RateWindows:  cfg.Series.RateWindows,
	}, gw, logger.With("component", "series"))
	if err := aggregator.Start(ctx); err != nil {
		logger.Error("failed to start aggregator", "error", err)
		os.Exit(1)
	}

	feedClient := feed.NewClient(feed.Config{
		PrimaryURL:        cfg.Feed.PrimaryURL,
		SecondaryURL:      cfg.Feed.SecondaryURL,
		MaxAttempts:       cfg.Feed.MaxAttempts,
		ReconnectDelay:    cfg.Feed.ReconnectDelay,
		FallbackInterval:  cfg.Feed.FallbackInterval,
		PeriodicReconnect: cfg.Feed.PeriodicReconnect,
		HandshakeTimeout:  cfg.Feed.HandshakeTimeout,
	}, eventStore, gw, logger.With("component", "feed"))
	if err := feedClient.Start(ctx); err != nil {
		logger.Error("failed to start feed client", "error", err)
		os.Exit(1)
	}

	metricsSrv := metrics.Serve(cfg.Metrics.ListenAddr)
	logger.Info("metrics server listening", "addr", cfg.Metrics.ListenAddr)

	apiServer := httpapi.NewServer(
		cfg.HTTP.ListenAddr,
		eventStore,
		aggregator,
		func() string { return feedClient.State().String() },
		logger.With("component", "api"),
	)
	apiServer.Start()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Warn("api server shutdown failed", "error", err)
	}
	if err := feedClient.Stop(shutdownCtx); err != nil {
		logger.Warn("feed client shutdown failed", "error", err)
	}
	if err := aggregator.Stop(shutdownCtx); err != nil {
		logger.Warn("aggregator shutdown failed", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown failed", "error", err)
	}

	logger.Info("monitor stopped")
}
