package di

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/sandeepkv93/shortlink-backend/internal/config"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

func loadTestConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Setenv("DECODE_KEY", "di-test-key")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:di_"+t.Name()+"?mode=memory&cache=shared")
	t.Setenv("LOG_LEVEL", "error")
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func restoreDefaultLogger(t *testing.T) {
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })
}

func TestInitializeAppWithMemoryBackends(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := loadTestConfig(t, nil)

	a, cleanup, err := InitializeApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	defer cleanup()

	if a.Server == nil || a.Server.Handler == nil || a.Server.Addr != cfg.HTTPAddr {
		t.Fatal("expected configured http server")
	}
	if len(a.Background) != 1 {
		t.Fatalf("expected session sweeper background task, got %d", len(a.Background))
	}
	if _, ok := a.Background[0].(*service.SessionSweeper); !ok {
		t.Fatalf("unexpected background task %T", a.Background[0])
	}

	rr := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestInitializeAppWithRedisBackend(t *testing.T) {
	restoreDefaultLogger(t)
	server := miniredis.RunT(t)
	cfg := loadTestConfig(t, map[string]string{
		"SESSION_BACKEND": "redis",
		"REDIS_ADDR":      server.Addr(),
	})

	a, cleanup, err := InitializeApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("initialize app: %v", err)
	}
	defer cleanup()

	rr := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected ready with redis, got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestInitializeAppFailsWhenRedisUnreachable(t *testing.T) {
	restoreDefaultLogger(t)
	cfg := loadTestConfig(t, map[string]string{
		"SESSION_BACKEND": "redis",
		"REDIS_ADDR":      "127.0.0.1:1",
	})
	if _, _, err := InitializeApp(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unreachable redis")
	}
}
