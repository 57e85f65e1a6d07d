package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyConfigLoadError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "none", err: nil, want: "none"},
		{name: "validation", err: fmt.Errorf("%w: %w", errInvalid, errors.New("DECODE_KEY is required")), want: "validation"},
		{name: "parse", err: fmt.Errorf("%w: %w", errParse, errors.New("invalid duration")), want: "parse"},
		{name: "env file", err: fmt.Errorf("%w x.env: %w", errEnvFile, errors.New("bad line")), want: "env_file"},
		{name: "other", err: errors.New("some other load error"), want: "load"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyConfigLoadError(tc.err); got != tc.want {
				t.Fatalf("classifyConfigLoadError()=%q want %q", got, tc.want)
			}
		})
	}
}

func TestLoadUnreadableEnvFileIsClassified(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "as-dir.env")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err := Load(context.Background(), dir)
	if err == nil {
		t.Fatal("expected error for a directory passed as env file")
	}
	if got := classifyConfigLoadError(err); got != "env_file" {
		t.Fatalf("expected env_file classification, got %q for %v", got, err)
	}
}

func TestNormalizeConfigProfile(t *testing.T) {
	cases := map[string]string{
		"  ProD  ":    "prod",
		"development": "development",
		"   ":         "unknown",
		"":            "unknown",
	}
	for raw, want := range cases {
		if got := normalizeConfigProfile(raw); got != want {
			t.Fatalf("normalizeConfigProfile(%q)=%q want %q", raw, got, want)
		}
	}
}

func TestRecordConfigLoadIsSafeWithoutMeterProvider(t *testing.T) {
	recordConfigLoad(context.Background(), "test", nil, errInvalid)
	recordConfigLoad(context.Background(), "test", &Config{DatabaseDriver: "sqlite", SessionBackend: "memory"}, nil)
}
