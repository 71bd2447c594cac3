package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"go.uber.org/zap"

	"quote-tracker/internal/api"
	"quote-tracker/internal/bootstrap"
	"quote-tracker/internal/config"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_FILE", "configs/app.yaml"), "path to YAML config")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("dotenv error: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	app, err := bootstrap.Build(cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("close failed", zap.Error(err))
		}
	}()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	if err := app.Ping(pingCtx); err != nil {
		logger.Warn("store not reachable at startup", zap.Error(err))
	}
	cancelPing()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	h := server.Default(server.WithHostPorts(addr))

	api.RegisterRoutes(h.Engine, api.Deps{
		Query:        app.Query,
		Metrics:      app.Metrics,
		Log:          logger.Named("api"),
		Symbols:      cfg.Market.Symbols,
		AllowOrigins: cfg.Server.AllowOrigins,
		Pingers:      app.Pingers,
	})

	loopCtx, stopLoop := context.WithCancel(context.Background())
	h.OnShutdown = append(h.OnShutdown, func(context.Context) { stopLoop() })
	if cfg.Ingest.Enabled && cfg.Ingest.IntervalSec > 0 && len(cfg.Market.Symbols) > 0 {
		go app.Runner.Loop(loopCtx, cfg.Market.Symbols, time.Duration(cfg.Ingest.IntervalSec)*time.Second)
		logger.Info("ingest scheduler started",
			zap.Strings("symbols", cfg.Market.Symbols),
			zap.Int("interval_sec", cfg.Ingest.IntervalSec),
		)
	}

	logger.Info("server starting", zap.String("addr", addr), zap.String("log_level", cfg.Log.Level))
	h.Spin()
	stopLoop()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
