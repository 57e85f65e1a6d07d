package service

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/security"
)

var ErrInvalidSession = errors.New("invalid or expired session")

// SessionStore maps opaque session tokens to user ids with a sliding expiry.
type SessionStore interface {
	Create(ctx context.Context, userID uint) (string, error)
	// Validate returns the owning user id and slides the expiry forward.
	// Unknown or expired tokens yield ErrInvalidSession and are dropped.
	Validate(ctx context.Context, token string) (uint, error)
	Touch(ctx context.Context, token string) error
	Invalidate(ctx context.Context, token string) error
	// Sweep removes expired entries and reports how many were removed.
	Sweep(ctx context.Context) (int, error)
}

const sessionShardCount = 32

type sessionEntry struct {
	userID    uint
	expiresAt time.Time
}

type sessionShard struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
}

type InMemorySessionStore struct {
	ttl    time.Duration
	now    func() time.Time
	shards [sessionShardCount]*sessionShard
	size   atomic.Int64
}

func NewInMemorySessionStore(ttl time.Duration) *InMemorySessionStore {
	s := &InMemorySessionStore{ttl: ttl, now: time.Now}
	for i := range s.shards {
		s.shards[i] = &sessionShard{entries: make(map[string]sessionEntry)}
	}
	return s
}

func (s *InMemorySessionStore) shard(token string) *sessionShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return s.shards[h.Sum32()%sessionShardCount]
}

func (s *InMemorySessionStore) Create(ctx context.Context, userID uint) (string, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return "", err
	}
	sh := s.shard(token)
	sh.mu.Lock()
	sh.entries[token] = sessionEntry{userID: userID, expiresAt: s.now().Add(s.ttl)}
	sh.mu.Unlock()
	s.resize(1)
	observability.RecordSessionEvent(ctx, "created", 1)
	return token, nil
}

func (s *InMemorySessionStore) Validate(ctx context.Context, token string) (uint, error) {
	sh := s.shard(token)
	now := s.now()
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.entries[token]
	if !ok {
		return 0, ErrInvalidSession
	}
	if now.After(e.expiresAt) {
		delete(sh.entries, token)
		s.resize(-1)
		observability.RecordSessionEvent(ctx, "expired", 1)
		return 0, ErrInvalidSession
	}
	e.expiresAt = now.Add(s.ttl)
	sh.entries[token] = e
	return e.userID, nil
}

func (s *InMemorySessionStore) Touch(ctx context.Context, token string) error {
	_, err := s.Validate(ctx, token)
	return err
}

func (s *InMemorySessionStore) Invalidate(ctx context.Context, token string) error {
	sh := s.shard(token)
	sh.mu.Lock()
	_, ok := sh.entries[token]
	delete(sh.entries, token)
	sh.mu.Unlock()
	if ok {
		s.resize(-1)
		observability.RecordSessionEvent(ctx, "invalidated", 1)
	}
	return nil
}

func (s *InMemorySessionStore) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		for token, e := range sh.entries {
			if now.After(e.expiresAt) {
				delete(sh.entries, token)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	s.resize(-int64(removed))
	observability.RecordSessionEvent(ctx, "swept", int64(removed))
	return removed, nil
}

// resize tracks the entry count and publishes it to the active sessions gauge.
func (s *InMemorySessionStore) resize(delta int64) {
	observability.SetActiveSessions(int(s.size.Add(delta)))
}

// Len counts stored entries, including expired ones not yet swept.
func (s *InMemorySessionStore) Len() int {
	return int(s.size.Load())
}
