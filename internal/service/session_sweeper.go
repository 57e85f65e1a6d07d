package service

import (
	"context"
	"log/slog"
	"time"
)

type SessionSweeper struct {
	store    SessionStore
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionSweeper(store SessionStore, interval time.Duration, logger *slog.Logger) *SessionSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweeper{store: store, interval: interval, logger: logger}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			removed, err := s.store.Sweep(ctx)
			if err != nil {
				s.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Debug("session sweep", "removed", removed)
			}
		}
	}
}
