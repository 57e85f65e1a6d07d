package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
	"github.com/sandeepkv93/shortlink-backend/internal/repository"
	"github.com/sandeepkv93/shortlink-backend/internal/security"
)

const (
	generatedAliasLength   = 6
	aliasGenerationRetries = 5
	maxAliasLength         = 64
)

type LinkStats struct {
	ID        uint      `json:"id"`
	URL       string    `json:"url"`
	Alias     string    `json:"alias"`
	Accessed  int64     `json:"accessed"`
	CreatedAt time.Time `json:"created_at"`
}

type LinkService struct {
	links   repository.LinkRepository
	misses  AliasMissCache
	timeout time.Duration
}

func NewLinkService(links repository.LinkRepository, misses AliasMissCache, timeout time.Duration) *LinkService {
	if misses == nil {
		misses = NewNoopAliasMissCache()
	}
	return &LinkService{links: links, misses: misses, timeout: timeout}
}

// CreateLink stores a link for userID. An empty customAlias gets a random
// alias; a taken custom alias is a conflict.
func (s *LinkService) CreateLink(ctx context.Context, userID uint, target, customAlias string) (*domain.Link, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, oops.Code(CodeValidation).Errorf("url is required")
	}
	if u, err := url.ParseRequestURI(target); err != nil || u.Host == "" {
		return nil, oops.Code(CodeValidation).With("url", target).Errorf("url is invalid")
	}
	customAlias = strings.TrimSpace(customAlias)
	if len(customAlias) > maxAliasLength {
		return nil, oops.Code(CodeValidation).Errorf("alias is too long")
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if customAlias != "" {
		link := &domain.Link{UserID: userID, URL: target, Alias: customAlias}
		err := s.links.Create(ctx, link)
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, oops.Code(CodeConflict).With("alias", customAlias).Errorf("alias already exists")
		}
		if err != nil {
			return nil, oops.Code(CodeInternal).Wrap(err)
		}
		s.forgetMiss(ctx, link.Alias)
		return link, nil
	}

	for attempt := 0; attempt < aliasGenerationRetries; attempt++ {
		alias, err := security.NewAlias(generatedAliasLength)
		if err != nil {
			return nil, oops.Code(CodeInternal).Wrap(err)
		}
		link := &domain.Link{UserID: userID, URL: target, Alias: alias}
		err = s.links.Create(ctx, link)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, oops.Code(CodeInternal).Wrap(err)
		}
		s.forgetMiss(ctx, link.Alias)
		return link, nil
	}
	return nil, oops.Code(CodeInternal).Errorf("could not allocate a unique alias")
}

func (s *LinkService) forgetMiss(ctx context.Context, alias string) {
	if err := s.misses.Forget(ctx, alias); err != nil {
		slog.WarnContext(ctx, "forget alias miss failed", "alias", alias, "error", err)
	}
}

// Stats returns the counters of a link owned by userID.
func (s *LinkService) Stats(ctx context.Context, userID uint, alias string) (*LinkStats, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	link, err := s.links.FindByAlias(ctx, alias)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, oops.Code(CodeNotFound).With("alias", alias).Errorf("link not found")
	}
	if err != nil {
		return nil, oops.Code(CodeInternal).Wrap(err)
	}
	if link.UserID != userID {
		return nil, oops.Code(CodeForbidden).With("alias", alias).Errorf("link belongs to another user")
	}
	return &LinkStats{
		ID:        link.ID,
		URL:       link.URL,
		Alias:     link.Alias,
		Accessed:  link.Accessed,
		CreatedAt: link.CreatedAt,
	}, nil
}
