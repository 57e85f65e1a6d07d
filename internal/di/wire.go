//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/sandeepkv93/shortlink-backend/internal/app"
	"github.com/sandeepkv93/shortlink-backend/internal/config"
	"github.com/sandeepkv93/shortlink-backend/internal/http/handler"
	"github.com/sandeepkv93/shortlink-backend/internal/mail"
	"github.com/sandeepkv93/shortlink-backend/internal/repository"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

var infraSet = wire.NewSet(
	provideLoggerProvider,
	provideLogger,
	provideRuntime,
	provideDB,
	provideRedis,
	provideVault,
)

var serviceSet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewLinkRepository,
	provideSessionStore,
	provideAliasMissCache,
	mail.NewSender,
	provideComposer,
	provideAuthService,
	provideLinkService,
	provideAliasResolver,
	provideSweeper,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.LinkServiceInterface), new(*service.LinkService)),
	wire.Bind(new(service.AliasResolverInterface), new(*service.AliasResolver)),
)

var httpSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewLinkHandler,
	provideReadiness,
	provideAuthRateLimiter,
	provideRouter,
	provideHTTPServer,
)

func InitializeApp(ctx context.Context, cfg *config.Config) (*app.App, func(), error) {
	wire.Build(infraSet, serviceSet, httpSet, provideApp)
	return nil, nil, nil
}
