package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestClassifyStatusClass(t *testing.T) {
	cases := map[int]string{
		200: "2xx",
		302: "3xx",
		404: "4xx",
		500: "5xx",
		100: "other",
	}
	for status, want := range cases {
		if got := classifyStatusClass(status); got != want {
			t.Fatalf("classifyStatusClass(%d)=%q want %q", status, got, want)
		}
	}
}

func TestNormalizeProfile(t *testing.T) {
	if got := normalizeProfile(""); got != "mixed" {
		t.Fatalf("normalizeProfile empty=%q want mixed", got)
	}
	if got := normalizeProfile("  RESOLVE  "); got != "resolve" {
		t.Fatalf("normalizeProfile resolve=%q want resolve", got)
	}
}

func TestRunRequiresAliasForResolveProfile(t *testing.T) {
	if _, err := Run(context.Background(), Config{BaseURL: "http://127.0.0.1", Profile: "resolve"}); err == nil {
		t.Fatal("expected missing alias error")
	}
}

func TestRunMixedProfileHitsBothEndpoints(t *testing.T) {
	var resolves, health atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/links-alias/abc":
			resolves.Add(1)
			w.WriteHeader(http.StatusOK)
		case "/health/live":
			health.Add(1)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	res, err := Run(context.Background(), Config{
		BaseURL:     srv.URL,
		Alias:       "abc",
		Duration:    300 * time.Millisecond,
		RPS:         50,
		Concurrency: 2,
		Client:      srv.Client(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Total == 0 || res.StatusClass["2xx"] == 0 {
		t.Fatalf("expected successful requests, got %+v", res)
	}
	if resolves.Load() == 0 || health.Load() == 0 {
		t.Fatalf("expected both endpoints hit, resolves=%d health=%d", resolves.Load(), health.Load())
	}
}
