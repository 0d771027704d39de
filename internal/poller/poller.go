package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/haproxy-status/internal/verdict"
)

// Refresher is the part of the engine the poller drives.
type Refresher interface {
	Status(ctx context.Context) verdict.Verdict
}

// Run calls r.Status once immediately and then on every tick until ctx is
// cancelled.
func Run(
	ctx context.Context,
	r Refresher,
	interval time.Duration,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Background refresh started", slog.Duration("interval", interval))

	r.Status(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Background refresh stopped")
			return

		case <-ticker.C:
			v := r.Status(ctx)
			logger.Debug("Background refresh",
				slog.String("status", string(v.Status)),
				slog.Int64("ttl", v.TTL))
		}
	}
}
