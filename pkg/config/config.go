package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// SSOT: every environment variable is read here and nowhere else.
type Config struct {
	Port string
	Env  string // development, staging, production

	Database  DatabaseConfig
	Redis     RedisConfig
	Source    SourceConfig
	Scheduler SchedulerConfig
	Telegram  TelegramConfig

	LogLevel  string
	LogFormat string

	MetricsEnabled bool
}

// RedisConfig is the optional Redis connection, off unless
// REDIS_ENABLED is set. Single-replica deployments run fine without.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration. DATABASE_URL wins
// when set; otherwise the URL is assembled from the discrete parts.
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SourceConfig holds the upstream USD/PHP reference-rate page configuration
type SourceConfig struct {
	BaseURL           string
	UserAgent         string
	RequestsPerMinute int
	BackfillDays      int
}

// SchedulerConfig holds cron schedules (6-field, with seconds)
type SchedulerConfig struct {
	IngestSpec string // daily rate pull
	SweepSpec  string // periodic alert re-evaluation
}

// TelegramConfig holds alert push configuration
type TelegramConfig struct {
	Enabled  bool
	BotToken string
	ChatID   int64
}

// Load reads configuration from environment variables.
// SSOT: this is the only function that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8099"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "pesowatch"),
			User:            getEnv("DB_USER", "pesowatch"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Source: SourceConfig{
			BaseURL:           getEnv("FX_SOURCE_BASE_URL", "https://www.exchange-rates.org"),
			UserAgent:         getEnv("FX_SOURCE_USER_AGENT", "pesowatch/1.0"),
			RequestsPerMinute: getEnvAsInt("FX_SOURCE_RPM", 10),
			BackfillDays:      getEnvAsInt("FX_BACKFILL_DAYS", 180),
		},

		// Default pull is 08:30 Manila time, after the reference rate
		// for the previous session is published.
		Scheduler: SchedulerConfig{
			IngestSpec: getEnv("INGEST_CRON", "0 30 8 * * *"),
			SweepSpec:  getEnv("SWEEP_CRON", "0 0 * * * *"),
		},

		Telegram: TelegramConfig{
			Enabled:  getEnvAsBool("TELEGRAM_ENABLED", false),
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnvAsInt64("TELEGRAM_CHAT_ID", 0),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = cfg.Database.connString()
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// connString assembles a postgres URL from the discrete DB_* parts.
func (d DatabaseConfig) connString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + d.Port,
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else if d.User != "" {
		u.User = url.User(d.User)
	}
	return u.String()
}

// validate rejects configurations the daemon cannot run with.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database connection is not configured")
	}

	switch c.Env {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENV must be development, staging, or production")
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("TELEGRAM_BOT_TOKEN is required when TELEGRAM_ENABLED=true")
		}
		if c.Telegram.ChatID == 0 {
			return fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_ENABLED=true")
		}
	}

	if c.Source.RequestsPerMinute <= 0 {
		return fmt.Errorf("FX_SOURCE_RPM must be positive")
	}

	return nil
}

// loadEnvFile loads the first .env found: the working directory, then
// next to the binary and up to two parents. Existing environment
// variables are never overridden.
func loadEnvFile() {
	candidates := []string{".env"}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, ".env"),
			filepath.Join(dir, "..", ".env"),
			filepath.Join(dir, "..", "..", ".env"),
		)
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// Env readers. Unset and unparseable values both fall back, so a
// typo'd variable degrades to the default instead of crashing.

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsInt64(key string, fallback int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvAsBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvAsDuration(key string, fallback string) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
