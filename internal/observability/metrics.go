package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sandeepkv93/shortlink-backend/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "shortlink-backend"

type AppMetrics struct {
	authCounter        metric.Int64Counter
	sessionCounter     metric.Int64Counter
	aliasCounter       metric.Int64Counter
	mailCounter        metric.Int64Counter
	repositoryCounter  metric.Int64Counter
	rateLimitCounter   metric.Int64Counter
	persistenceTimeout metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		if err := registerInstruments(mp.Meter(meterName)); err != nil {
			return nil, err
		}
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	if err := registerInstruments(mp.Meter(meterName)); err != nil {
		return nil, err
	}
	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func registerInstruments(meter metric.Meter) error {
	var (
		m   AppMetrics
		err error
	)
	if m.authCounter, err = meter.Int64Counter("auth.operations"); err != nil {
		return err
	}
	if m.sessionCounter, err = meter.Int64Counter("session.events"); err != nil {
		return err
	}
	if m.aliasCounter, err = meter.Int64Counter("alias.resolutions"); err != nil {
		return err
	}
	if m.mailCounter, err = meter.Int64Counter("mail.dispatches"); err != nil {
		return err
	}
	if m.repositoryCounter, err = meter.Int64Counter("repository.operations"); err != nil {
		return err
	}
	if m.rateLimitCounter, err = meter.Int64Counter("http.rate_limit.decisions"); err != nil {
		return err
	}
	if m.persistenceTimeout, err = meter.Int64Counter("persistence.timeouts"); err != nil {
		return err
	}
	metricsMu.Lock()
	appMetrics = &m
	metricsMu.Unlock()
	return nil
}

func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

// RecordAuthOperation counts signup, verify, login, forgot, reset and logout outcomes.
func RecordAuthOperation(ctx context.Context, operation, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.authCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordSessionEvent(ctx context.Context, event string, n int64) {
	if n == 0 {
		return
	}
	sessionEventsTotal.WithLabelValues(event).Add(float64(n))
	m := current()
	if m == nil {
		return
	}
	m.sessionCounter.Add(ctx, n, metric.WithAttributes(attribute.String("event", event)))
}

func RecordAliasResolution(ctx context.Context, outcome string) {
	aliasResolutionsTotal.WithLabelValues(outcome).Inc()
	m := current()
	if m == nil {
		return
	}
	m.aliasCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func RecordMailDispatch(ctx context.Context, kind, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.mailCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func RecordRepositoryOperation(ctx context.Context, entity, operation, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.repositoryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("entity", entity),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.rateLimitCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scope", scope),
		attribute.String("outcome", outcome),
	))
}

func RecordPersistenceTimeout(ctx context.Context, operation string) {
	m := current()
	if m == nil {
		return
	}
	m.persistenceTimeout.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}
