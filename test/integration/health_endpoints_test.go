package integration

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestHealthLiveAndReadyEndpoints(t *testing.T) {
	baseURL, client, _, closeFn := newShortlinkTestServer(t, nil)
	defer closeFn()

	t.Run("live endpoint stable 200 payload", func(t *testing.T) {
		resp, env := doJSON(t, client, http.MethodGet, baseURL+"/health/live", nil, nil)
		if resp.StatusCode != http.StatusOK || !env.Success {
			t.Fatalf("health live failed: status=%d success=%v", resp.StatusCode, env.Success)
		}
		var data map[string]any
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode live data: %v", err)
		}
		if got, _ := data["status"].(string); got != "ok" {
			t.Fatalf("expected status=ok, got %+v", data)
		}
	})

	t.Run("ready endpoint reports database check", func(t *testing.T) {
		resp, env := doJSON(t, client, http.MethodGet, baseURL+"/health/ready", nil, nil)
		if resp.StatusCode != http.StatusOK || !env.Success {
			t.Fatalf("health ready failed: status=%d success=%v", resp.StatusCode, env.Success)
		}
		var data struct {
			Status string `json:"status"`
			Checks []struct {
				Name    string `json:"name"`
				Healthy bool   `json:"healthy"`
			} `json:"checks"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			t.Fatalf("decode ready data: %v", err)
		}
		if data.Status != "ready" {
			t.Fatalf("expected status=ready, got %+v", data)
		}
		if len(data.Checks) != 1 || data.Checks[0].Name != "database" || !data.Checks[0].Healthy {
			t.Fatalf("expected one healthy database check, got %+v", data.Checks)
		}
	})
}
