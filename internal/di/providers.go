package di

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gorm.io/gorm"

	"github.com/sandeepkv93/shortlink-backend/internal/app"
	"github.com/sandeepkv93/shortlink-backend/internal/config"
	"github.com/sandeepkv93/shortlink-backend/internal/health"
	"github.com/sandeepkv93/shortlink-backend/internal/http/handler"
	"github.com/sandeepkv93/shortlink-backend/internal/http/middleware"
	"github.com/sandeepkv93/shortlink-backend/internal/http/router"
	"github.com/sandeepkv93/shortlink-backend/internal/mail"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/repository"
	"github.com/sandeepkv93/shortlink-backend/internal/security"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

func provideLoggerProvider(ctx context.Context, cfg *config.Config) (*sdklog.LoggerProvider, error) {
	return observability.InitLogs(ctx, cfg)
}

func provideLogger(cfg *config.Config, lp *sdklog.LoggerProvider) *slog.Logger {
	logger := observability.NewLogger(os.Stdout, cfg.LogLevel, lp)
	slog.SetDefault(logger)
	return logger
}

// The runtime is flushed by App.Run, not by an injector cleanup.
func provideRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger, lp *sdklog.LoggerProvider) (*observability.Runtime, error) {
	rt, err := observability.InitRuntime(ctx, cfg, logger, lp)
	if err != nil {
		if lp != nil {
			_ = lp.Shutdown(ctx)
		}
		return nil, err
	}
	return rt, nil
}

func provideDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, func(), error) {
	db, err := repository.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseAutoMigrate {
		if err := repository.Migrate(db); err != nil {
			_ = repository.Close(db)
			return nil, nil, err
		}
	}
	cleanup := func() {
		if err := repository.Close(db); err != nil {
			logger.Warn("close database failed", "error", err)
		}
	}
	return db, cleanup, nil
}

// provideRedis returns nil when no component is configured to use Redis.
func provideRedis(cfg *config.Config, logger *slog.Logger) (*redis.Client, func(), error) {
	if cfg.SessionBackend != "redis" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("close redis failed", "error", err)
		}
	}
	return client, cleanup, nil
}

func provideVault(cfg *config.Config) (*security.Vault, error) {
	return security.NewVault(cfg.DecodeKey, cfg.VaultSalt)
}

func provideSessionStore(cfg *config.Config, client *redis.Client) service.SessionStore {
	if client != nil {
		return service.NewRedisSessionStore(client, cfg.RedisPrefix, cfg.SessionTTL)
	}
	return service.NewInMemorySessionStore(cfg.SessionTTL)
}

func provideAliasMissCache(cfg *config.Config, client *redis.Client) service.AliasMissCache {
	if cfg.AliasMissTTL <= 0 {
		return service.NewNoopAliasMissCache()
	}
	if client != nil {
		return service.NewRedisAliasMissCache(client, cfg.RedisPrefix)
	}
	return service.NewInMemoryAliasMissCache()
}

func provideComposer(cfg *config.Config) *mail.Composer {
	return mail.NewComposer(cfg.FrontendURL)
}

func provideAuthService(
	cfg *config.Config,
	users repository.UserRepository,
	vault *security.Vault,
	sessions service.SessionStore,
	mailer mail.Sender,
	composer *mail.Composer,
	logger *slog.Logger,
) *service.AuthService {
	return service.NewAuthService(users, vault, sessions, mailer, composer, service.AuthOptions{
		ResetLocation:      cfg.ResetLocation(),
		PersistenceTimeout: cfg.PersistenceTimeout,
		MailTimeout:        cfg.MailTimeout,
	}, logger)
}

func provideLinkService(cfg *config.Config, links repository.LinkRepository, misses service.AliasMissCache) *service.LinkService {
	return service.NewLinkService(links, misses, cfg.PersistenceTimeout)
}

func provideAliasResolver(cfg *config.Config, links repository.LinkRepository, misses service.AliasMissCache) *service.AliasResolver {
	return service.NewAliasResolver(links, misses, service.AliasResolverOptions{
		Timeout: cfg.PersistenceTimeout,
		MissTTL: cfg.AliasMissTTL,
	})
}

func provideReadiness(db *gorm.DB, client *redis.Client) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if client != nil {
		checkers = append(checkers, health.NewRedisChecker(client))
	}
	return health.NewProbeRunner(2*time.Second, time.Second, checkers...)
}

func provideAuthRateLimiter(cfg *config.Config, client *redis.Client) router.AuthRateLimiterFunc {
	if client == nil {
		return nil
	}
	limiter := middleware.NewRedisFixedWindowLimiter(client, cfg.RedisPrefix)
	return middleware.NewDistributedRateLimiter(limiter, cfg.AuthRateLimitRPM, time.Minute, middleware.FailClosed, "auth", nil).Middleware()
}

func provideRouter(
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	linkHandler *handler.LinkHandler,
	auth *service.AuthService,
	authLimiter router.AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	rt *observability.Runtime,
) http.Handler {
	return router.NewRouter(router.Dependencies{
		AuthHandler:      authHandler,
		LinkHandler:      linkHandler,
		Authenticator:    auth,
		CORSOrigins:      cfg.CORSAllowedOrigins,
		AuthRateLimitRPM: cfg.AuthRateLimitRPM,
		APIRateLimitRPM:  cfg.APIRateLimitRPM,
		AuthRateLimiter:  authLimiter,
		Readiness:        readiness,
		Metrics:          rt.MetricsHandler(),
		EnableOTelHTTP:   cfg.OTELTracingEnabled,
	})
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func provideSweeper(cfg *config.Config, sessions service.SessionStore, logger *slog.Logger) *service.SessionSweeper {
	return service.NewSessionSweeper(sessions, cfg.SessionSweepInterval, logger)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	rt *observability.Runtime,
	readiness *health.ProbeRunner,
	sweeper *service.SessionSweeper,
) *app.App {
	return app.New(cfg, logger, server, rt, readiness, sweeper)
}
