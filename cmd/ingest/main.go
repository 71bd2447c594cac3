// Command ingest runs a single ingestion cycle and prints its report as JSON.
// It exits non-zero when every symbol failed.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"quote-tracker/internal/bootstrap"
	"quote-tracker/internal/config"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_FILE", "configs/app.yaml"), "path to YAML config")
	tickers := flag.String("tickers", "", "comma separated symbols, overrides config")
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

	symbols := cfg.Market.Symbols
	if *tickers != "" {
		symbols = nil
		for _, s := range strings.Split(*tickers, ",") {
			if s = strings.TrimSpace(s); s != "" {
				symbols = append(symbols, s)
			}
		}
	}

	app, err := bootstrap.Build(cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	report := app.Runner.RunCycle(ctx, symbols)
	stop()

	if err := app.Close(); err != nil {
		logger.Warn("close failed", zap.Error(err))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("encode report failed", zap.Error(err))
	}
	if report.AllFailed() {
		_ = logger.Sync()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
