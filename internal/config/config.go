package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Telegram TelegramConfig `envPrefix:"TELEGRAM_"`
	Catalog  CatalogConfig  `envPrefix:"CATALOG_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	HTTP     HTTPConfig     `envPrefix:"HTTP_"`

	AdminIDs []int64 `env:"ADMIN_IDS" envSeparator:","`
}

type TelegramConfig struct {
	Token string `env:"TOKEN"`
	// Requests allowed per user within RateWindow.
	RateLimit  int64         `env:"RATE_LIMIT" envDefault:"20"`
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	// Scratch directory for Excel exports before they are sent.
	ReportsDir string `env:"REPORTS_DIR" envDefault:"reports"`
}

type CatalogConfig struct {
	// Path to a YAML catalog; the embedded catalog is used when empty.
	Path string `env:"PATH"`
	// Remote catalog service. Takes precedence over Path on reload.
	URL             string        `env:"URL"`
	APIKey          string        `env:"API_KEY"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"10m"`
}

type DatabaseConfig struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT" envDefault:"5432"`
	User            string        `env:"USER"`
	Password        string        `env:"PASSWORD"`
	Name            string        `env:"NAME"`
	SSLMode         string        `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
}

// Enabled reports whether a database was configured.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" }

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

type RedisConfig struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	DB       int           `env:"DB" envDefault:"0"`
	QuoteTTL time.Duration `env:"QUOTE_TTL" envDefault:"24h"`
}

func (r RedisConfig) Enabled() bool { return r.Addr != "" }

type HTTPConfig struct {
	Addr          string `env:"ADDR" envDefault:":8080"`
	MetricsAddr   string `env:"METRICS_ADDR" envDefault:":9090"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
}

// Load reads .env files (outside production) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.Token != "" && len(c.AdminIDs) == 0 {
		return fmt.Errorf("at least one admin ID is required when the bot is enabled")
	}
	if c.Catalog.RefreshInterval < 0 {
		return fmt.Errorf("catalog refresh interval must not be negative")
	}
	if c.Database.Enabled() && (c.Database.User == "" || c.Database.Name == "") {
		return fmt.Errorf("DB_USER and DB_NAME are required when DB_HOST is set")
	}
	return nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}
