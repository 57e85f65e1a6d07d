package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute version: %v", err)
	}
	if !strings.Contains(out.String(), "shortlink "+Version) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestServeFailsOnInvalidConfig(t *testing.T) {
	t.Setenv("DECODE_KEY", "")
	t.Setenv("DATABASE_DRIVER", "sqlite")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{"serve", "--env-file", "does-not-exist.env", "--addr", "127.0.0.1:0"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "DECODE_KEY") {
		t.Fatalf("expected config validation error, got %v", err)
	}
}

func TestRootRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{"serve", "version", "loadgen"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("expected %s subcommand, err=%v", name, err)
		}
	}
}
