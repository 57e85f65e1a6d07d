package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DECODE_KEY", "k")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cfg, err := Load(context.Background(), "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":3001" {
		t.Fatalf("unexpected addr %q", cfg.HTTPAddr)
	}
	if cfg.SessionTTL != 24*time.Hour || cfg.SessionSweepInterval != time.Hour {
		t.Fatalf("unexpected session defaults ttl=%v sweep=%v", cfg.SessionTTL, cfg.SessionSweepInterval)
	}
	if cfg.VaultSalt != "salt" {
		t.Fatalf("unexpected vault salt %q", cfg.VaultSalt)
	}
	if cfg.DatabaseURL == "" {
		t.Fatal("expected sqlite default database url")
	}
	if cfg.ResetLocation() != time.UTC {
		t.Fatalf("expected UTC reset location, got %v", cfg.ResetLocation())
	}
}

func TestLoadValidationErrors(t *testing.T) {
	t.Setenv("DECODE_KEY", "")
	t.Setenv("DATABASE_DRIVER", "mysql")
	t.Setenv("SESSION_BACKEND", "memcached")

	_, err := Load(context.Background(), "")
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"validate config:", "DECODE_KEY", "DATABASE_DRIVER", "SESSION_BACKEND"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in %q", want, msg)
		}
	}
	if classifyConfigLoadError(err) != "validation" {
		t.Fatalf("expected validation classification for %v", err)
	}
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("DECODE_KEY", "k")
	t.Setenv("SESSION_TTL", "forever")

	_, err := Load(context.Background(), "")
	if err == nil {
		t.Fatal("expected parse error")
	}
	if classifyConfigLoadError(err) != "parse" {
		t.Fatalf("expected parse classification, got %q for %v", classifyConfigLoadError(err), err)
	}
}

func TestLoadEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	t.Setenv("DECODE_KEY", "from-env")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	file := filepath.Join(t.TempDir(), "test.env")
	content := "DECODE_KEY=from-file\nFRONTEND_URL=https://short.example\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("FRONTEND_URL") })

	cfg, err := Load(context.Background(), file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DecodeKey != "from-env" {
		t.Fatalf("expected env to win, got %q", cfg.DecodeKey)
	}
	if cfg.FrontendURL != "https://short.example" {
		t.Fatalf("expected value from env file, got %q", cfg.FrontendURL)
	}
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	t.Setenv("DECODE_KEY", "k")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored: %v", err)
	}
}

func TestValidateSMTPRequiresHost(t *testing.T) {
	cfg := &Config{
		DecodeKey:            "k",
		DatabaseDriver:       "sqlite",
		SessionBackend:       "memory",
		MailDriver:           "smtp",
		SessionTTL:           time.Hour,
		SessionSweepInterval: time.Hour,
		ResetTokenTimezone:   "UTC",
	}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "SMTP_HOST") {
		t.Fatalf("expected SMTP_HOST validation error, got %v", err)
	}
}
