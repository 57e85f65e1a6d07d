package service

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisClientForTest(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr:        server.Addr(),
		DialTimeout: 200 * time.Millisecond,
		ReadTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})
	return server, client
}

func newRedisSessionStoreForTest(t *testing.T, prefix string) (*miniredis.Miniredis, *RedisSessionStore) {
	t.Helper()
	server, client := newRedisClientForTest(t)
	return server, NewRedisSessionStore(client, prefix, time.Hour)
}
