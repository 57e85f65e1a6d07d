package integration

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

var mailTokenPattern = regexp.MustCompile(`token=([0-9a-f]+)`)

// mailbox collects the JSON log stream and exposes the records written by
// the log mail driver and by audit logging.
type mailbox struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (m *mailbox) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buf.Write(p)
}

func (m *mailbox) records(t *testing.T) []map[string]any {
	t.Helper()
	m.mu.Lock()
	lines := strings.Split(m.buf.String(), "\n")
	m.mu.Unlock()
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// eventually retries find while the log pipe catches up.
func (m *mailbox) eventually(t *testing.T, find func([]map[string]any) bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if find(m.records(t)) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// lastToken returns the token embedded in the most recent email of kind.
func (m *mailbox) lastToken(t *testing.T, kind string) string {
	t.Helper()
	var token string
	found := m.eventually(t, func(recs []map[string]any) bool {
		for i := len(recs) - 1; i >= 0; i-- {
			if k, _ := recs[i]["kind"].(string); k != kind {
				continue
			}
			body, _ := recs[i]["body"].(string)
			if match := mailTokenPattern.FindStringSubmatch(body); len(match) == 2 {
				token = match[1]
				return true
			}
		}
		return false
	})
	if !found {
		t.Fatalf("no %s email captured", kind)
	}
	return token
}

func requireAuditEvent(t *testing.T, m *mailbox, event, outcome string) {
	t.Helper()
	found := m.eventually(t, func(recs []map[string]any) bool {
		for _, rec := range recs {
			if msg, _ := rec["msg"].(string); msg != "audit" {
				continue
			}
			gotEvent, _ := rec["event"].(string)
			gotOutcome, _ := rec["outcome"].(string)
			if gotEvent == event && gotOutcome == outcome {
				return true
			}
		}
		return false
	})
	if !found {
		t.Fatalf("expected audit event=%q outcome=%q", event, outcome)
	}
}
