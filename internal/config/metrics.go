package config

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	errEnvFile = errors.New("load env file")
	errParse   = errors.New("parse env")
	errInvalid = errors.New("validate config")
)

var (
	configMetricsOnce sync.Once
	configLoadCounter metric.Int64Counter
)

// recordConfigLoad counts config loads by profile and failure class, tagged
// with the selected storage, session and mail backends.
func recordConfigLoad(ctx context.Context, profile string, cfg *Config, err error) {
	configMetricsOnce.Do(func() {
		counter, cerr := otel.Meter("shortlink-backend").Int64Counter("config.load.events")
		if cerr == nil {
			configLoadCounter = counter
		}
	})
	if configLoadCounter == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := []attribute.KeyValue{
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("error_class", classifyConfigLoadError(err)),
	}
	if cfg != nil {
		attrs = append(attrs,
			attribute.String("database_driver", cfg.DatabaseDriver),
			attribute.String("session_backend", cfg.SessionBackend),
			attribute.String("mail_driver", cfg.MailDriver),
		)
	}
	configLoadCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func normalizeConfigProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	if v == "" {
		return "unknown"
	}
	return v
}

func classifyConfigLoadError(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, errInvalid):
		return "validation"
	case errors.Is(err, errParse):
		return "parse"
	case errors.Is(err, errEnvFile):
		return "env_file"
	default:
		return "load"
	}
}
