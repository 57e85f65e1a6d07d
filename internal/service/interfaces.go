package service

import (
	"context"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
)

type AuthServiceInterface interface {
	Signup(ctx context.Context, email, password string) (*domain.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Authenticate(ctx context.Context, token string) (uint, error)
	Logout(ctx context.Context, token string) error
}

type LinkServiceInterface interface {
	CreateLink(ctx context.Context, userID uint, target, customAlias string) (*domain.Link, error)
	Stats(ctx context.Context, userID uint, alias string) (*LinkStats, error)
}

type AliasResolverInterface interface {
	Resolve(ctx context.Context, alias string, meta AccessMetadata) (string, error)
}

var (
	_ AuthServiceInterface   = (*AuthService)(nil)
	_ LinkServiceInterface   = (*LinkService)(nil)
	_ AliasResolverInterface = (*AliasResolver)(nil)
	_ SessionStore           = (*InMemorySessionStore)(nil)
	_ SessionStore           = (*RedisSessionStore)(nil)
	_ AliasMissCache         = (*InMemoryAliasMissCache)(nil)
	_ AliasMissCache         = (*RedisAliasMissCache)(nil)
	_ AliasMissCache         = (*NoopAliasMissCache)(nil)
)
