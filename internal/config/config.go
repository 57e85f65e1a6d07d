package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	AppEnv   string `env:"APP_ENV, default=development"`
	HTTPAddr string `env:"HTTP_ADDR, default=:3001"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	DatabaseDriver      string        `env:"DATABASE_DRIVER, default=postgres"`
	DatabaseURL         string        `env:"DATABASE_URL"`
	DatabaseAutoMigrate bool          `env:"DATABASE_AUTO_MIGRATE, default=true"`
	PersistenceTimeout  time.Duration `env:"PERSISTENCE_TIMEOUT, default=5s"`

	DecodeKey string `env:"DECODE_KEY"`
	VaultSalt string `env:"VAULT_SALT, default=salt"`

	SessionBackend       string        `env:"SESSION_BACKEND, default=memory"`
	SessionTTL           time.Duration `env:"SESSION_TTL, default=24h"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL, default=1h"`
	RedisAddr            string        `env:"REDIS_ADDR, default=localhost:6379"`
	RedisPassword        string        `env:"REDIS_PASSWORD"`
	RedisDB              int           `env:"REDIS_DB, default=0"`
	RedisPrefix          string        `env:"REDIS_PREFIX, default=shortlink"`

	AliasMissTTL time.Duration `env:"ALIAS_MISS_TTL, default=30s"`

	ResetTokenTimezone string `env:"RESET_TOKEN_TIMEZONE, default=UTC"`
	FrontendURL        string `env:"FRONTEND_URL, default=http://localhost:3000"`

	MailDriver   string        `env:"MAIL_DRIVER, default=log"`
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT, default=587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPassword string        `env:"SMTP_PASSWORD"`
	MailFrom     string        `env:"MAIL_FROM"`
	MailTimeout  time.Duration `env:"MAIL_TIMEOUT, default=10s"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS, default=*"`
	AuthRateLimitRPM   int      `env:"AUTH_RATE_LIMIT_RPM, default=30"`
	APIRateLimitRPM    int      `env:"API_RATE_LIMIT_RPM, default=600"`

	OTELServiceName           string        `env:"OTEL_SERVICE_NAME, default=shortlink-backend"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT, default=development"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT, default=localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE, default=true"`
	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED, default=false"`
	OTELTracingEnabled        bool          `env:"OTEL_TRACING_ENABLED, default=false"`
	OTELLogsEnabled           bool          `env:"OTEL_LOGS_ENABLED, default=false"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL, default=15s"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT, default=15s"`
}

// Load reads an optional dotenv file (variables already set in the
// environment win) and then decodes the environment into a Config.
func Load(ctx context.Context, envFile string) (*Config, error) {
	cfg, err := load(ctx, envFile)
	profile := os.Getenv("APP_ENV")
	if cfg != nil {
		profile = cfg.AppEnv
	}
	recordConfigLoad(ctx, profile, cfg, err)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(ctx context.Context, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w %s: %w", errEnvFile, envFile, err)
		}
	}
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", errParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return &cfg, fmt.Errorf("%w: %w", errInvalid, err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DecodeKey) == "" {
		errs = append(errs, errors.New("DECODE_KEY is required"))
	}
	switch c.DatabaseDriver {
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for postgres"))
		}
	case "sqlite":
		if c.DatabaseURL == "" {
			c.DatabaseURL = "file:shortlink.db?_foreign_keys=on"
		}
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver))
	}
	switch c.SessionBackend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND must be memory or redis, got %q", c.SessionBackend))
	}
	switch c.MailDriver {
	case "log":
	case "smtp":
		if c.SMTPHost == "" || c.MailFrom == "" {
			errs = append(errs, errors.New("SMTP_HOST and MAIL_FROM are required for smtp mail driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("MAIL_DRIVER must be smtp or log, got %q", c.MailDriver))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionSweepInterval <= 0 {
		errs = append(errs, errors.New("SESSION_SWEEP_INTERVAL must be positive"))
	}
	if _, err := time.LoadLocation(c.ResetTokenTimezone); err != nil {
		errs = append(errs, fmt.Errorf("RESET_TOKEN_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

func (c *Config) ResetLocation() *time.Location {
	loc, err := time.LoadLocation(c.ResetTokenTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
