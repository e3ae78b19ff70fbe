package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Collector  CollectorConfig  `mapstructure:"collector"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Log        LogConfig        `mapstructure:"log"`
	Visualizer VisualizerConfig `mapstructure:"visualizer"`
}

type CollectorConfig struct {
	Exchange     string        `mapstructure:"exchange"`      // exchange identifier, e.g. "binance"
	APIKey       string        `mapstructure:"api_key"`       // passed through to the exchange client
	APISecret    string        `mapstructure:"api_secret"`    //
	Symbols      []string      `mapstructure:"symbols"`       // unified symbols, e.g. "BTC/USDT"
	Interval     time.Duration `mapstructure:"interval"`      // collection tick interval
	InitialDelay time.Duration `mapstructure:"initial_delay"` // delay before the first tick
	CycleTimeout time.Duration `mapstructure:"cycle_timeout"` // upper bound for one fetch-and-fan-out cycle
	DepthLimit   int           `mapstructure:"depth_limit"`   // order-book levels per side
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"` // HTTP timeout for a single exchange call
	LargeVolume  float64       `mapstructure:"large_volume"`  // log snapshots whose volume exceeds this (0 disables)
	Retry        RetryConfig   `mapstructure:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BaseDelay      time.Duration `mapstructure:"base_delay"`
	MaxDelay       time.Duration `mapstructure:"max_delay"`
	Multiplier     float64       `mapstructure:"multiplier"`
	RateLimitDelay time.Duration `mapstructure:"rate_limit_delay"` // minimum wait after a rate-limit rejection
}

type CacheConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"` // snapshot expiry, default 24h
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type VisualizerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	OutputDir string        `mapstructure:"output_dir"` // directory PNG charts are written to
	Interval  time.Duration `mapstructure:"interval"`   // rendering interval
	Lookback  time.Duration `mapstructure:"lookback"`   // how far back the trend window reaches
}

// Load reads application configuration using Viper: defaults, then an
// optional config.yaml, then environment variables (COLLECTOR_INTERVAL,
// CACHE_ADDR, ...). The result is validated before anything else is
// constructed; a startup with broken config must not get past this.
func Load() (*Config, error) {
	// Pull a local .env into the process environment if present.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	v := viper.New()
	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Support environment variables with dot notation (e.g., COLLECTOR_INTERVAL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v,
		"collector.exchange", "collector.api_key", "collector.api_secret",
		"collector.symbols", "collector.interval", "collector.initial_delay",
		"collector.cycle_timeout", "collector.depth_limit", "collector.fetch_timeout",
		"collector.large_volume",
		"collector.retry.max_attempts", "collector.retry.base_delay",
		"collector.retry.max_delay", "collector.retry.multiplier",
		"collector.retry.rate_limit_delay",
		"cache.addr", "cache.password", "cache.db", "cache.ttl",
		"postgres.host", "postgres.port", "postgres.user", "postgres.password",
		"postgres.dbname", "postgres.sslmode", "postgres.timezone",
		"log.level", "log.format", "log.output_file", "log.environment",
		"visualizer.enabled", "visualizer.output_dir", "visualizer.interval",
		"visualizer.lookback",
	)

	if err := v.ReadInConfig(); err != nil {
		// A config file is optional; env vars and defaults may be enough.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("collector.exchange", "binance")
	v.SetDefault("collector.symbols", []string{"BTC/USDT"})
	v.SetDefault("collector.interval", "10s")
	v.SetDefault("collector.initial_delay", "0s")
	v.SetDefault("collector.cycle_timeout", "30s")
	v.SetDefault("collector.depth_limit", 100)
	v.SetDefault("collector.fetch_timeout", "10s")
	v.SetDefault("collector.large_volume", 0.0)

	v.SetDefault("collector.retry.max_attempts", 3)
	v.SetDefault("collector.retry.base_delay", "500ms")
	v.SetDefault("collector.retry.max_delay", "10s")
	v.SetDefault("collector.retry.multiplier", 2.0)
	v.SetDefault("collector.retry.rate_limit_delay", "2s")

	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.dbname", "cryptocollector")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("visualizer.enabled", true)
	v.SetDefault("visualizer.output_dir", "charts")
	v.SetDefault("visualizer.interval", "5m")
	v.SetDefault("visualizer.lookback", "24h")
}

// bindEnv binds multiple keys at once so flat env vars map onto the
// nested struct.
func bindEnv(v *viper.Viper, keys ...string) {
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			log.Printf("could not bind env var for key %s: %v", key, err)
		}
	}
}

// Validate checks the loaded configuration for values that would break
// the collector at runtime.
func (c *Config) Validate() error {
	if len(c.Collector.Symbols) == 0 {
		return fmt.Errorf("collector.symbols must not be empty")
	}
	for _, s := range c.Collector.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("collector.symbols contains an empty symbol")
		}
	}
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("collector.interval must be positive, got %s", c.Collector.Interval)
	}
	if c.Collector.CycleTimeout <= 0 {
		return fmt.Errorf("collector.cycle_timeout must be positive, got %s", c.Collector.CycleTimeout)
	}
	if c.Collector.DepthLimit <= 0 {
		return fmt.Errorf("collector.depth_limit must be positive, got %d", c.Collector.DepthLimit)
	}
	if c.Collector.FetchTimeout <= 0 {
		return fmt.Errorf("collector.fetch_timeout must be positive, got %s", c.Collector.FetchTimeout)
	}
	if c.Collector.Retry.MaxAttempts < 1 {
		return fmt.Errorf("collector.retry.max_attempts must be at least 1, got %d", c.Collector.Retry.MaxAttempts)
	}
	if c.Collector.Retry.BaseDelay <= 0 {
		return fmt.Errorf("collector.retry.base_delay must be positive, got %s", c.Collector.Retry.BaseDelay)
	}
	if c.Collector.Retry.MaxDelay < c.Collector.Retry.BaseDelay {
		return fmt.Errorf("collector.retry.max_delay must be >= base_delay")
	}
	if c.Collector.Retry.Multiplier < 1 {
		return fmt.Errorf("collector.retry.multiplier must be >= 1, got %g", c.Collector.Retry.Multiplier)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Visualizer.Enabled {
		if c.Visualizer.OutputDir == "" {
			return fmt.Errorf("visualizer.output_dir must be set when the visualizer is enabled")
		}
		if c.Visualizer.Interval <= 0 {
			return fmt.Errorf("visualizer.interval must be positive, got %s", c.Visualizer.Interval)
		}
		if c.Visualizer.Lookback <= 0 {
			return fmt.Errorf("visualizer.lookback must be positive, got %s", c.Visualizer.Lookback)
		}
	}
	return nil
}
