package debate

import (
	"context"
	"log/slog"
	"time"
)

const ttlSweepInterval = 5 * time.Minute

// StartTTLWorker runs a background goroutine that periodically evicts idle
// sessions and their persona memories. Sessions in the original system lived
// for the process lifetime; eviction here bounds that growth.
func StartTTLWorker(ctx context.Context, sessions *SessionStore, memories *MemoryStore, ttl time.Duration) {
	ticker := time.NewTicker(ttlSweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("session TTL worker started", "interval", ttlSweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				expired := sessions.SweepExpired(ttl)
				for _, id := range expired {
					memories.Drop(id)
				}
				if len(expired) > 0 {
					slog.Info("session TTL worker evicted idle sessions",
						"count", len(expired),
						"remaining", sessions.Len())
				}
			case <-ctx.Done():
				slog.Info("session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
