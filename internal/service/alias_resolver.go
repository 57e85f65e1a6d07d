package service

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/samber/oops"

	"github.com/sandeepkv93/shortlink-backend/internal/domain"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/repository"
)

type AccessMetadata struct {
	IP        string
	UserAgent string
}

const aliasLockStripes = 64

// AliasResolver resolves an alias to its target URL and records the hit.
// Counting and logging are one atomic UPDATE in the repository; the striped
// lock only keeps log timestamps ordered for hits served by this process.
type AliasResolver struct {
	links   repository.LinkRepository
	misses  AliasMissCache
	timeout time.Duration
	missTTL time.Duration
	now     func() time.Time
	locks   [aliasLockStripes]sync.Mutex
}

type AliasResolverOptions struct {
	Timeout time.Duration
	MissTTL time.Duration
}

func NewAliasResolver(links repository.LinkRepository, misses AliasMissCache, opts AliasResolverOptions) *AliasResolver {
	if misses == nil {
		misses = NewNoopAliasMissCache()
	}
	return &AliasResolver{
		links:   links,
		misses:  misses,
		timeout: opts.Timeout,
		missTTL: opts.MissTTL,
		now:     time.Now,
	}
}

func (r *AliasResolver) Resolve(ctx context.Context, alias string, meta AccessMetadata) (string, error) {
	ctx, span := observability.StartSpan(ctx, "alias.resolve")
	defer span.End()

	url, err := r.resolve(ctx, alias, meta)
	outcome := "hit"
	if err != nil {
		outcome = strings.ToLower(ErrorCode(err))
	}
	observability.RecordAliasResolution(ctx, outcome)
	return url, err
}

func (r *AliasResolver) resolve(ctx context.Context, alias string, meta AccessMetadata) (string, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return "", oops.Code(CodeValidation).Errorf("alias is required")
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()
	// A cache failure falls through to the database.
	if missing, err := r.misses.IsMissing(ctx, alias); err == nil && missing {
		return "", oops.Code(CodeNotFound).With("alias", alias).Errorf("link not found")
	}

	mu := r.lockFor(alias)
	mu.Lock()
	defer mu.Unlock()

	entry := domain.AccessLogEntry{
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Timestamp: r.now().UTC(),
	}
	link, err := r.links.RecordAccess(ctx, alias, entry)
	switch {
	case errors.Is(err, repository.ErrLinkNotFound):
		r.markMissing(ctx, alias)
		return "", oops.Code(CodeNotFound).With("alias", alias).Errorf("link not found")
	case err != nil:
		if isTimeout(err) {
			observability.RecordPersistenceTimeout(ctx, "record_access")
		}
		return "", oops.Code(CodeInternal).With("alias", alias).Wrap(err)
	}
	return link.URL, nil
}

// markMissing caches a miss, then drops it again if a link claimed the alias
// between the failed UPDATE and the cache write. CreateLink forgets the miss
// only after its insert, so one of the two Forget calls always runs last.
func (r *AliasResolver) markMissing(ctx context.Context, alias string) {
	if err := r.misses.MarkMissing(ctx, alias, r.missTTL); err != nil {
		return
	}
	_, err := r.links.FindByAlias(ctx, alias)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return
	}
	// Lookup errors forget too.
	if err := r.misses.Forget(ctx, alias); err != nil {
		slog.WarnContext(ctx, "forget alias miss failed", "alias", alias, "error", err)
	}
}

func (r *AliasResolver) lockFor(alias string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(alias))
	return &r.locks[h.Sum32()%aliasLockStripes]
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
