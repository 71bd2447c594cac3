package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Market MarketConfig `yaml:"market"`
	Ingest IngestConfig `yaml:"ingest"`
	Store  StoreConfig  `yaml:"store"`
	Query  QueryConfig  `yaml:"query"`
	Push   PushConfig   `yaml:"push"`
	Alert  AlertConfig  `yaml:"alert"`
	Audit  AuditConfig  `yaml:"audit"`
}

type ServerConfig struct {
	Port         int      `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MarketConfig struct {
	Symbols              []string           `yaml:"symbols"`
	MinRequestIntervalMs int                `yaml:"min_request_interval_ms"`
	Burst                int                `yaml:"burst"`
	AlphaVantage         AlphaVantageConfig `yaml:"alphavantage"`
	// Fallbacks are tried in order when the primary endpoint fails.
	Fallbacks []FallbackConfig `yaml:"fallbacks"`
}

// FallbackConfig is an Alpha Vantage compatible endpoint, such as a mirror
// or a second API key.
type FallbackConfig struct {
	Name    string `yaml:"name"`
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type AlphaVantageConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type IngestConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSec     int  `yaml:"interval_sec"`
	Concurrency     int  `yaml:"concurrency"`
	FetchTimeoutMs  int  `yaml:"fetch_timeout_ms"`
	CycleTimeoutSec int  `yaml:"cycle_timeout_sec"`
	MaxRetries      int  `yaml:"max_retries"`
	RetryBackoffMs  int  `yaml:"retry_backoff_ms"`
	CooldownSec     int  `yaml:"cooldown_sec"`
}

type StoreConfig struct {
	Latest  LatestStoreConfig  `yaml:"latest"`
	History HistoryStoreConfig `yaml:"history"`
}

type LatestStoreConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type HistoryStoreConfig struct {
	Backend   string          `yaml:"backend"`
	Sqlite    SqliteConfig    `yaml:"sqlite"`
	Partition PartitionConfig `yaml:"partition"`
}

type SqliteConfig struct {
	Path string `yaml:"path"`
}

type PartitionConfig struct {
	Granularity string `yaml:"granularity"`
	Timezone    string `yaml:"timezone"`
}

type QueryConfig struct {
	HistoryCap int `yaml:"history_cap"`
}

type PushConfig struct {
	Dingtalk DingtalkConfig `yaml:"dingtalk"`
}

type DingtalkConfig struct {
	Webhook   string `yaml:"webhook"`
	Secret    string `yaml:"secret"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type AlertConfig struct {
	Enabled     bool            `yaml:"enabled"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Dedup       DedupConfig     `yaml:"dedup"`
	MinFailures int             `yaml:"min_failures"`
}

type RateLimitConfig struct {
	PerMinute int `yaml:"per_minute"`
	Burst     int `yaml:"burst"`
}

type DedupConfig struct {
	WindowSec int `yaml:"window_sec"`
}

type AuditConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSqlite = "sqlite"
)

func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080, AllowOrigins: []string{"*"}},
		Log:    LogConfig{Level: "info", Format: "json"},
		Market: MarketConfig{
			Symbols:              []string{"NVDA", "MSFT", "AAPL", "AMZN", "GOOGL"},
			MinRequestIntervalMs: 1000,
			Burst:                1,
			AlphaVantage:         AlphaVantageConfig{TimeoutMs: 15000},
		},
		Ingest: IngestConfig{
			Enabled:         true,
			IntervalSec:     10 * 60 * 60,
			Concurrency:     1,
			FetchTimeoutMs:  15000,
			CycleTimeoutSec: 300,
			RetryBackoffMs:  500,
		},
		Store: StoreConfig{
			Latest: LatestStoreConfig{
				Backend: BackendRedis,
				Redis:   RedisConfig{Addr: "localhost:6379", KeyPrefix: "quote:"},
			},
			History: HistoryStoreConfig{
				Backend:   BackendSqlite,
				Sqlite:    SqliteConfig{Path: "data/history.db"},
				Partition: PartitionConfig{Granularity: "day", Timezone: "UTC"},
			},
		},
		Query: QueryConfig{HistoryCap: 50},
		Push: PushConfig{
			Dingtalk: DingtalkConfig{TimeoutMs: 5000},
		},
		Alert: AlertConfig{
			RateLimit:   RateLimitConfig{PerMinute: 6, Burst: 2},
			Dedup:       DedupConfig{WindowSec: 3600},
			MinFailures: 1,
		},
		Audit: AuditConfig{
			Kafka: KafkaConfig{Topic: "quote-cycles"},
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file leaves the defaults in place.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads variables from the given files (default .env) without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port: %d", c.Server.Port)
	}
	switch c.Store.Latest.Backend {
	case BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("invalid store.latest.backend: %q", c.Store.Latest.Backend)
	}
	switch c.Store.History.Backend {
	case BackendSqlite, BackendMemory:
	default:
		return fmt.Errorf("invalid store.history.backend: %q", c.Store.History.Backend)
	}
	switch c.Store.History.Partition.Granularity {
	case "", "day", "hour":
	default:
		return fmt.Errorf("invalid store.history.partition.granularity: %q", c.Store.History.Partition.Granularity)
	}
	if c.Query.HistoryCap <= 0 {
		return fmt.Errorf("invalid query.history_cap: %d", c.Query.HistoryCap)
	}
	if c.Ingest.Concurrency < 0 || c.Ingest.MaxRetries < 0 {
		return fmt.Errorf("ingest.concurrency and ingest.max_retries must not be negative")
	}
	if c.Audit.Kafka.Enabled && len(c.Audit.Kafka.Brokers) == 0 {
		return fmt.Errorf("audit.kafka.brokers is empty")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p <= 0 || p > 65535 {
			return fmt.Errorf("invalid PORT: %q", v)
		}
		cfg.Server.Port = p
	}
	if v := os.Getenv("TICKERS"); v != "" {
		cfg.Market.Symbols = splitCSV(v)
	}
	if v := os.Getenv("ALLOW_ORIGINS"); v != "" {
		cfg.Server.AllowOrigins = splitCSV(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ALPHAVANTAGE_API_KEY"); v != "" {
		cfg.Market.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("ALPHAVANTAGE_BASE_URL"); v != "" {
		cfg.Market.AlphaVantage.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Store.Latest.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Store.Latest.Redis.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Store.History.Sqlite.Path = v
	}
	if v := os.Getenv("COOLDOWN_SECS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid COOLDOWN_SECS: %q", v)
		}
		cfg.Ingest.CooldownSec = n
	}
	if v := os.Getenv("DINGTALK_WEBHOOK"); v != "" {
		cfg.Push.Dingtalk.Webhook = v
	}
	if v := os.Getenv("DINGTALK_SECRET"); v != "" {
		cfg.Push.Dingtalk.Secret = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Audit.Kafka.Brokers = splitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Audit.Kafka.Topic = v
	}
	return nil
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
