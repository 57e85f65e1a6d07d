package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/security"
)

// RedisSessionStore keeps sessions in Redis so several instances can share
// them. Expiry is enforced by key TTL, which GETEX slides on every validate.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisSessionStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSessionStore {
	if prefix == "" {
		prefix = "shortlink"
	}
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisSessionStore) Create(ctx context.Context, userID uint) (string, error) {
	token, err := security.NewSessionToken()
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(token), strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	observability.RecordSessionEvent(ctx, "created", 1)
	return token, nil
}

func (s *RedisSessionStore) Validate(ctx context.Context, token string) (uint, error) {
	raw, err := s.client.GetEx(ctx, s.key(token), s.ttl).Result()
	if errors.Is(err, redis.Nil) {
		return 0, ErrInvalidSession
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		_ = s.client.Del(ctx, s.key(token)).Err()
		return 0, ErrInvalidSession
	}
	return uint(id), nil
}

func (s *RedisSessionStore) Touch(ctx context.Context, token string) error {
	ok, err := s.client.PExpire(ctx, s.key(token), s.ttl).Result()
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if !ok {
		return ErrInvalidSession
	}
	return nil
}

func (s *RedisSessionStore) Invalidate(ctx context.Context, token string) error {
	n, err := s.client.Del(ctx, s.key(token)).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	observability.RecordSessionEvent(ctx, "invalidated", n)
	return nil
}

// Sweep is a no-op: Redis evicts expired keys itself.
func (s *RedisSessionStore) Sweep(context.Context) (int, error) { return 0, nil }

func (s *RedisSessionStore) key(token string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, hashToken(token))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
