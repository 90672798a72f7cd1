package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/five82/rewear/internal/marketplace"
)

const (
	defaultPollInterval = 10 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that keeps the signed-in
// user's points balance and swaps fresh. Consecutive failures stretch the
// wait between polls. It returns immediately.
func StartPoller(ctx context.Context, svc Services, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("poller")

	go func() {
		failures := 0
		timer := time.NewTimer(interval)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if err := poll(ctx, svc); err != nil {
				failures++
				logger.Warn("poll failed", zap.Int("failures", failures), zap.Error(err))
			} else {
				failures = 0
			}
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// poll refreshes what the current session can see. Signed-out sessions only
// probe the API while the catalog considers it unreachable and retry a
// restore that could not reach the API.
func poll(ctx context.Context, svc Services) error {
	if svc.Catalog != nil && svc.Catalog.Snapshot().Offline() {
		if err := svc.Catalog.Probe(ctx); err != nil {
			return err
		}
	}
	if snap := svc.Session.Snapshot(); !snap.Authenticated {
		if !snap.PendingRestore {
			return nil
		}
		if err := svc.Session.Restore(ctx); err != nil {
			return err
		}
		if !svc.Session.Snapshot().Authenticated {
			return nil
		}
		return svc.Swaps.FetchMine(ctx, svc.Session.Token())
	}

	if err := svc.Session.Refresh(ctx); err != nil {
		if errors.Is(err, marketplace.ErrUnauthorized) {
			svc.Swaps.Reset()
			return nil
		}
		return err
	}
	return svc.Swaps.FetchMine(ctx, svc.Session.Token())
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
