package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sandeepkv93/shortlink-backend/internal/config"
	"github.com/sandeepkv93/shortlink-backend/internal/di"
)

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newShortlinkTestServer boots the fully wired application against an
// in-memory sqlite database. The application logger writes to stdout, which
// is swapped for a pipe so mail (log driver) and audit records can be read.
func newShortlinkTestServer(t *testing.T, env map[string]string) (string, *http.Client, *mailbox, func()) {
	t.Helper()
	t.Setenv("DECODE_KEY", "integration-decode-key")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:it_"+strings.ReplaceAll(t.Name(), "/", "_")+"?mode=memory&cache=shared")
	t.Setenv("MAIL_DRIVER", "log")
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("AUTH_RATE_LIMIT_RPM", "1000")
	t.Setenv("API_RATE_LIMIT_RPM", "10000")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	box := &mailbox{}
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	copied := make(chan struct{})
	go func() {
		defer close(copied)
		_, _ = io.Copy(box, pr)
	}()

	previousLogger, previousStdout := slog.Default(), os.Stdout
	os.Stdout = pw
	a, cleanup, err := di.InitializeApp(context.Background(), cfg)
	os.Stdout = previousStdout
	if err != nil {
		_ = pw.Close()
		<-copied
		t.Fatalf("initialize app: %v", err)
	}

	srv := httptest.NewServer(a.Server.Handler)
	closeFn := func() {
		srv.Close()
		cleanup()
		slog.SetDefault(previousLogger)
		_ = pw.Close()
		<-copied
		_ = pr.Close()
	}
	return srv.URL, srv.Client(), box, closeFn
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, apiEnvelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode envelope: %v body=%s", err, raw)
	}
	return resp, env
}
