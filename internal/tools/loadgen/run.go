package loadgen

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type Config struct {
	BaseURL     string
	Profile     string
	Alias       string
	Duration    time.Duration
	RPS         int
	Concurrency int
	Client      *http.Client
}

type Result struct {
	Total        int            `json:"total"`
	Errors       int            `json:"errors"`
	StatusClass  map[string]int `json:"status_class"`
	Elapsed      time.Duration  `json:"elapsed"`
	MaxLatency   time.Duration  `json:"max_latency"`
	TotalLatency time.Duration  `json:"-"`
}

func (r Result) MeanLatency() time.Duration {
	if r.Total == 0 {
		return 0
	}
	return r.TotalLatency / time.Duration(r.Total)
}

// Run sends requests at roughly cfg.RPS until cfg.Duration elapses or ctx is
// cancelled. The "resolve" profile hits the alias endpoint, "health" the
// liveness probe, and "mixed" alternates between them.
func Run(ctx context.Context, cfg Config) (Result, error) {
	cfg.Profile = normalizeProfile(cfg.Profile)
	if cfg.BaseURL == "" {
		return Result{}, fmt.Errorf("base url is required")
	}
	if cfg.Profile != "health" && cfg.Alias == "" {
		return Result{}, fmt.Errorf("alias is required for profile %q", cfg.Profile)
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 10 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 5 * time.Second}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	ctx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	jobs := make(chan int)
	var mu sync.Mutex
	res := Result{StatusClass: map[string]int{}}
	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Concurrency; w++ {
		g.Go(func() error {
			for seq := range jobs {
				status, latency, err := fire(gctx, cfg, base, seq)
				mu.Lock()
				res.Total++
				res.TotalLatency += latency
				res.MaxLatency = max(res.MaxLatency, latency)
				if err != nil {
					res.Errors++
				} else {
					res.StatusClass[classifyStatusClass(status)]++
				}
				mu.Unlock()
			}
			return nil
		})
	}

	ticker := time.NewTicker(time.Second / time.Duration(cfg.RPS))
	defer ticker.Stop()
	seq := 0
produce:
	for {
		select {
		case <-ctx.Done():
			break produce
		case <-ticker.C:
			select {
			case jobs <- seq:
				seq++
			case <-ctx.Done():
				break produce
			}
		}
	}
	close(jobs)
	if err := g.Wait(); err != nil {
		return res, err
	}
	res.Elapsed = time.Since(started)
	return res, nil
}

func fire(ctx context.Context, cfg Config, base string, seq int) (int, time.Duration, error) {
	var req *http.Request
	var err error
	useHealth := cfg.Profile == "health" || (cfg.Profile == "mixed" && seq%2 == 1)
	if useHealth {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/health/live", nil)
	} else {
		body := fmt.Sprintf(`{"ip":"198.51.100.%d"}`, seq%250+1)
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, base+"/links-alias/"+cfg.Alias, bytes.NewBufferString(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("User-Agent", "shortlink-loadgen")
		}
	}
	if err != nil {
		return 0, 0, err
	}
	start := time.Now()
	resp, err := cfg.Client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return 0, latency, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return resp.StatusCode, latency, nil
}

func classifyStatusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

func normalizeProfile(raw string) string {
	switch p := strings.ToLower(strings.TrimSpace(raw)); p {
	case "resolve", "health":
		return p
	default:
		return "mixed"
	}
}
