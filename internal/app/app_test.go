package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/sandeepkv93/shortlink-backend/internal/config"
	"github.com/sandeepkv93/shortlink-backend/internal/health"
)

type stubTask struct {
	started atomic.Bool
	err     error
}

func (s *stubTask) Run(ctx context.Context) error {
	s.started.Store(true)
	if s.err != nil {
		return s.err
	}
	<-ctx.Done()
	return nil
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestNewAssignsDependenciesAndTimeouts(t *testing.T) {
	cfg := &config.Config{ShutdownTimeout: 10 * time.Second}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	readiness := health.NewProbeRunner(100*time.Millisecond, 50*time.Millisecond)
	task := &stubTask{}

	a := New(cfg, logger, server, nil, readiness, task)
	if a.Config != cfg || a.Logger != logger || a.Server != server || a.Readiness != readiness {
		t.Fatal("expected app dependencies to be assigned")
	}
	if a.ShutdownTimeout != cfg.ShutdownTimeout {
		t.Fatalf("expected shutdown timeout copied from config, got %v", a.ShutdownTimeout)
	}
	if len(a.Background) != 1 {
		t.Fatalf("expected one background task, got %d", len(a.Background))
	}

	if d := New(&config.Config{}, logger, server, nil, nil).ShutdownTimeout; d != 15*time.Second {
		t.Fatalf("expected default shutdown timeout, got %v", d)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := &config.Config{ShutdownTimeout: time.Second}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	addr := freeAddr(t)
	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
	}
	task := &stubTask{}
	a := New(cfg, logger, server, nil, nil, task)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := client.Get("http://" + addr + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusNoContent {
				t.Fatalf("expected 204, got %d", resp.StatusCode)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never became reachable: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after cancel")
	}
	if !task.started.Load() {
		t.Fatal("expected background task to run")
	}
}

func TestRunReturnsBackgroundTaskError(t *testing.T) {
	cfg := &config.Config{ShutdownTimeout: time.Second}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := &http.Server{Addr: freeAddr(t), ReadHeaderTimeout: time.Second}
	boom := errors.New("sweeper failed")
	a := New(cfg, logger, server, nil, nil, &stubTask{err: boom})

	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(context.Background()) }()
	select {
	case err := <-errCh:
		if !errors.Is(err, boom) {
			t.Fatalf("expected task error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return after task failure")
	}
}
