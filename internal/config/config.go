package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Ledger sources
const (
	SourceSheets   = "sheets"
	SourceFile     = "file"
	SourcePostgres = "postgres"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LedgerConfig selects and configures the ledger source
type LedgerConfig struct {
	Source        string `yaml:"source"`
	SheetURL      string `yaml:"sheet_url"`
	File          string `yaml:"file"`
	DSN           string `yaml:"dsn"`
	Table         string `yaml:"table"`
	OrderColumn   string `yaml:"order_column"`
	ReportingYear int    `yaml:"reporting_year"`

	FetchMaxAttempts int           `yaml:"fetch_max_attempts"`
	FetchRetryDelay  time.Duration `yaml:"fetch_retry_delay"`
}

// AnalyticsConfig holds market attribution settings
type AnalyticsConfig struct {
	MarketBuckets   []string `yaml:"market_buckets"`
	AttributionMode string   `yaml:"attribution_mode"`
}

// RedisConfig holds the optional ledger cache connection. An empty URL disables caching.
type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Redis     RedisConfig     `yaml:"redis"`
	LogLevel  string          `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           ":8086",
			CORSOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
			RequestTimeout: 30 * time.Second,
		},
		Ledger: LedgerConfig{
			Source:           SourceSheets,
			Table:            "bet_ledger",
			OrderColumn:      "id",
			ReportingYear:    2025,
			FetchMaxAttempts: 3,
			FetchRetryDelay:  500 * time.Millisecond,
		},
		Analytics: AnalyticsConfig{
			MarketBuckets:   []string{"1X2", "AH", "Under", "Over"},
			AttributionMode: "independent",
		},
		Redis: RedisConfig{
			CacheTTL: 5 * time.Minute,
		},
		LogLevel: "info",
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file named by
// LEDGER_CONFIG_FILE, and environment variables, in increasing precedence
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("LEDGER_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (c *Config) loadEnv() error {
	c.Server.Addr = getEnv("LEDGER_ANALYTICS_ADDR", c.Server.Addr)
	c.Server.CORSOrigins = getEnvList("CORS_ORIGINS", c.Server.CORSOrigins)

	c.Ledger.Source = strings.ToLower(getEnv("LEDGER_SOURCE", c.Ledger.Source))
	c.Ledger.SheetURL = getEnv("LEDGER_SHEET_URL", c.Ledger.SheetURL)
	c.Ledger.File = getEnv("LEDGER_FILE", c.Ledger.File)
	c.Ledger.DSN = getEnv("LEDGER_DSN", c.Ledger.DSN)
	c.Ledger.Table = getEnv("LEDGER_TABLE", c.Ledger.Table)
	c.Ledger.OrderColumn = getEnv("LEDGER_ORDER_COLUMN", c.Ledger.OrderColumn)

	c.Analytics.MarketBuckets = getEnvList("MARKET_BUCKETS", c.Analytics.MarketBuckets)
	c.Analytics.AttributionMode = getEnv("ATTRIBUTION_MODE", c.Analytics.AttributionMode)

	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	var err error
	if c.Ledger.ReportingYear, err = getEnvInt("REPORTING_YEAR", c.Ledger.ReportingYear); err != nil {
		return err
	}
	if c.Ledger.FetchMaxAttempts, err = getEnvInt("FETCH_MAX_ATTEMPTS", c.Ledger.FetchMaxAttempts); err != nil {
		return err
	}
	if c.Ledger.FetchRetryDelay, err = getEnvDuration("FETCH_RETRY_DELAY", c.Ledger.FetchRetryDelay); err != nil {
		return err
	}
	if c.Redis.CacheTTL, err = getEnvDuration("LEDGER_CACHE_TTL", c.Redis.CacheTTL); err != nil {
		return err
	}
	if c.Server.RequestTimeout, err = getEnvDuration("REQUEST_TIMEOUT", c.Server.RequestTimeout); err != nil {
		return err
	}

	return nil
}

// Validate rejects configurations the service cannot start with
func (c *Config) Validate() error {
	switch c.Ledger.Source {
	case SourceSheets:
		if c.Ledger.SheetURL == "" {
			return fmt.Errorf("LEDGER_SHEET_URL is required for source %q", c.Ledger.Source)
		}
	case SourceFile:
		if c.Ledger.File == "" {
			return fmt.Errorf("LEDGER_FILE is required for source %q", c.Ledger.Source)
		}
	case SourcePostgres:
		if c.Ledger.DSN == "" {
			return fmt.Errorf("LEDGER_DSN is required for source %q", c.Ledger.Source)
		}
	default:
		return fmt.Errorf("unknown ledger source %q (want sheets, file or postgres)", c.Ledger.Source)
	}

	switch strings.ToLower(strings.TrimSpace(c.Analytics.AttributionMode)) {
	case "", "independent", "exclusive":
	default:
		return fmt.Errorf("unknown attribution mode %q", c.Analytics.AttributionMode)
	}

	if len(c.Analytics.MarketBuckets) == 0 {
		return fmt.Errorf("at least one market bucket is required")
	}
	if c.Ledger.ReportingYear < 1 {
		return fmt.Errorf("invalid reporting year %d", c.Ledger.ReportingYear)
	}
	if c.Ledger.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be at least 1, got %d", c.Ledger.FetchMaxAttempts)
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a comma-separated variable, dropping empty entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
