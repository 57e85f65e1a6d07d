package service

import (
	"context"
	"sync"
	"time"
)

// AliasMissCache remembers aliases that recently resolved to nothing so
// repeated probes for unknown aliases do not reach the database.
type AliasMissCache interface {
	IsMissing(ctx context.Context, alias string) (bool, error)
	MarkMissing(ctx context.Context, alias string, ttl time.Duration) error
	Forget(ctx context.Context, alias string) error
}

type NoopAliasMissCache struct{}

func NewNoopAliasMissCache() *NoopAliasMissCache { return &NoopAliasMissCache{} }

func (NoopAliasMissCache) IsMissing(context.Context, string) (bool, error) { return false, nil }

func (NoopAliasMissCache) MarkMissing(context.Context, string, time.Duration) error { return nil }

func (NoopAliasMissCache) Forget(context.Context, string) error { return nil }

type InMemoryAliasMissCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewInMemoryAliasMissCache() *InMemoryAliasMissCache {
	return &InMemoryAliasMissCache{entries: make(map[string]time.Time), now: time.Now}
}

func (c *InMemoryAliasMissCache) IsMissing(_ context.Context, alias string) (bool, error) {
	now := c.now()
	c.mu.RLock()
	expiresAt, ok := c.entries[alias]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		c.mu.Lock()
		if cur, ok := c.entries[alias]; ok && now.After(cur) {
			delete(c.entries, alias)
		}
		c.mu.Unlock()
		return false, nil
	}
	return true, nil
}

func (c *InMemoryAliasMissCache) MarkMissing(_ context.Context, alias string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[alias] = c.now().Add(ttl)
	c.mu.Unlock()
	return nil
}

func (c *InMemoryAliasMissCache) Forget(_ context.Context, alias string) error {
	c.mu.Lock()
	delete(c.entries, alias)
	c.mu.Unlock()
	return nil
}
