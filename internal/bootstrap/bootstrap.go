// Package bootstrap wires configured components for the server and one-shot commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quote-tracker/internal/alert"
	"quote-tracker/internal/api"
	"quote-tracker/internal/audit"
	"quote-tracker/internal/config"
	"quote-tracker/internal/ingest"
	"quote-tracker/internal/market"
	"quote-tracker/internal/metrics"
	"quote-tracker/internal/push/dingtalk"
	"quote-tracker/internal/query"
	"quote-tracker/internal/store"
)

type latestStore interface {
	ingest.LatestWriter
	ingest.RunMarker
	query.LatestReader
}

type historyStore interface {
	ingest.HistoryAppender
	query.HistoryReader
}

type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Runner  *ingest.Runner
	Query   *query.Service
	Pingers map[string]api.Pinger

	closers []func() error
}

func Build(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	a := &App{
		Config:  cfg,
		Log:     log,
		Metrics: metrics.New(),
		Pingers: map[string]api.Pinger{},
	}

	part, err := store.NewPartitioner(cfg.Store.History.Partition.Granularity, cfg.Store.History.Partition.Timezone)
	if err != nil {
		return nil, err
	}

	latest, err := a.openLatest(cfg.Store.Latest)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	history, err := a.openHistory(cfg.Store.History, part)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	timeout := time.Duration(cfg.Market.AlphaVantage.TimeoutMs) * time.Millisecond
	chain := []market.NamedProvider{{
		Name: market.SourceAlphaVantage,
		Provider: market.NewAlphaVantage(cfg.Market.AlphaVantage.APIKey, timeout,
			market.WithBaseURL(cfg.Market.AlphaVantage.BaseURL)),
	}}
	for _, fb := range cfg.Market.Fallbacks {
		name := fb.Name
		if name == "" {
			name = market.SourceAlphaVantage
		}
		chain = append(chain, market.NamedProvider{
			Name:     name,
			Provider: market.NewAlphaVantage(fb.APIKey, timeout, market.WithBaseURL(fb.BaseURL)),
		})
	}
	provider := market.NewRateLimited(
		market.NewMultiProvider(chain...),
		time.Duration(cfg.Market.MinRequestIntervalMs)*time.Millisecond,
		cfg.Market.Burst,
	)

	reporters := []ingest.Reporter{a.Metrics}
	if cfg.Alert.Enabled {
		dt := dingtalk.NewClient(
			cfg.Push.Dingtalk.Webhook,
			cfg.Push.Dingtalk.Secret,
			time.Duration(cfg.Push.Dingtalk.TimeoutMs)*time.Millisecond,
		)
		if dt.Enabled() {
			reporters = append(reporters, alert.NewNotifier(dt, alert.Config{
				PerMinute:   cfg.Alert.RateLimit.PerMinute,
				Burst:       cfg.Alert.RateLimit.Burst,
				DedupWindow: time.Duration(cfg.Alert.Dedup.WindowSec) * time.Second,
				MinFailures: cfg.Alert.MinFailures,
			}, log.Named("alert")))
		} else {
			log.Warn("alert enabled but dingtalk webhook is empty")
		}
	}
	if cfg.Audit.Kafka.Enabled {
		pub := audit.NewPublisher(audit.NewKafkaWriter(audit.Config{
			Brokers: cfg.Audit.Kafka.Brokers,
			Topic:   cfg.Audit.Kafka.Topic,
		}), log.Named("audit"))
		a.closers = append(a.closers, pub.Close)
		reporters = append(reporters, pub)
	}

	a.Runner = ingest.NewRunner(provider, latest, history, ingest.Options{
		Concurrency:  cfg.Ingest.Concurrency,
		FetchTimeout: time.Duration(cfg.Ingest.FetchTimeoutMs) * time.Millisecond,
		CycleTimeout: time.Duration(cfg.Ingest.CycleTimeoutSec) * time.Second,
		MaxRetries:   cfg.Ingest.MaxRetries,
		RetryBackoff: time.Duration(cfg.Ingest.RetryBackoffMs) * time.Millisecond,
		Cooldown:     time.Duration(cfg.Ingest.CooldownSec) * time.Second,
	},
		ingest.WithRunMarker(latest),
		ingest.WithReporters(reporters...),
		ingest.WithLogger(log.Named("ingest")),
	)
	a.Query = query.NewService(latest, history, cfg.Query.HistoryCap)
	return a, nil
}

func (a *App) openLatest(c config.LatestStoreConfig) (latestStore, error) {
	if c.Backend == config.BackendMemory {
		return store.NewMemoryLatest(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	a.closers = append(a.closers, rdb.Close)
	l := store.NewRedisLatest(rdb, c.Redis.KeyPrefix)
	a.Pingers["redis"] = l
	return l, nil
}

func (a *App) openHistory(c config.HistoryStoreConfig, part store.Partitioner) (historyStore, error) {
	if c.Backend == config.BackendMemory {
		return store.NewMemoryHistory(part), nil
	}
	h, err := store.OpenSQLiteHistory(c.Sqlite.Path, part)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	a.closers = append(a.closers, h.Close)
	a.Pingers["sqlite"] = h
	return h, nil
}

// Ping checks every backing store.
func (a *App) Ping(ctx context.Context) error {
	var errs []error
	for name, p := range a.Pingers {
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
