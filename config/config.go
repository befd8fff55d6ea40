package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config represents the overall application configuration.
type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV" env-default:"local"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Alerts     AlertsConfig     `yaml:"alerts"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Seed       SeedConfig       `yaml:"seed"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port                  int           `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	RateLimitPerSec       float64       `yaml:"rate_limit_per_sec" env-default:"10"`
	RateLimitBurst        int           `yaml:"rate_limit_burst" env-default:"20"`
	SigninRateLimitPerMin float64       `yaml:"signin_rate_limit_per_min" env-default:"10"`
	CacheTTLSeconds       int           `yaml:"cache_ttl_seconds" env-default:"15"`
	ReadTimeout           time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout          time.Duration `yaml:"write_timeout" env-default:"10s"`
	IdleTimeout           time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"postgres"`
	DSN                    string `yaml:"dsn" env:"DATABASE_DSN" env-required:"true"`
	MaxOpenConns           int    `yaml:"max_open_conns" env-default:"10"`
	MaxIdleConns           int    `yaml:"max_idle_conns" env-default:"5"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes" env-default:"30"`
	LogLevel               string `yaml:"log_level" env-default:"warn"`
}

// AuthConfig holds the session token and password hashing settings.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
	Issuer     string        `yaml:"issuer" env-default:"coffee-fleet"`
	BcryptCost int           `yaml:"bcrypt_cost" env-default:"10"`
}

// AlertsConfig holds the thresholds used when deciding to notify.
type AlertsConfig struct {
	LowSupplyThreshold int `yaml:"low_supply_threshold" env-default:"30"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	Enabled    bool   `yaml:"enabled" env:"PUSH_ENABLED"`
	PublicKey  string `yaml:"vapid_public_key" env:"VAPID_PUBLIC_KEY"`
	PrivateKey string `yaml:"vapid_private_key" env:"VAPID_PRIVATE_KEY"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// TelemetryConfig holds the configuration of the upstream telemetry poller.
type TelemetryConfig struct {
	Enabled         bool              `yaml:"enabled" env:"TELEMETRY_ENABLED"`
	IntervalSeconds int               `yaml:"interval_seconds"`
	Interval        time.Duration     `yaml:"-"` // Ignored by YAML parser
	URL             string            `yaml:"url" env:"TELEMETRY_URL"`
	Headers         map[string]string `yaml:"headers"`
	PageSize        int               `yaml:"page_size"`
	HTTPProxy       string            `yaml:"http_proxy"`
}

// SeedConfig controls loading of sample users and machines at startup.
type SeedConfig struct {
	Enabled bool   `yaml:"enabled" env:"SEED_ENABLED"`
	Path    string `yaml:"path" env:"SEED_PATH"` // Empty uses the built-in fixture
}

// MustLoad loads the configuration or panics.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load reads the configuration from the given path. Environment variables
// override values from the file.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Telemetry.IntervalSeconds <= 0 {
		cfg.Telemetry.IntervalSeconds = 60
	}
	cfg.Telemetry.Interval = time.Duration(cfg.Telemetry.IntervalSeconds) * time.Second

	if cfg.Telemetry.PageSize <= 0 {
		cfg.Telemetry.PageSize = 100
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		slog.Warn("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = cfg.WorkerPool.Size * 16
	}

	if cfg.Alerts.LowSupplyThreshold <= 0 {
		cfg.Alerts.LowSupplyThreshold = 30
	}
}
