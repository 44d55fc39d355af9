package monitoring

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

const HEALTHCHECK_TIMER = 15

// Pinger is any dependency that can answer a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) bool
}

// Health aggregates the flags maintained by the monitor goroutines.
type Health struct {
	checks map[string]*atomic.Bool
}

func NewHealth() *Health {
	return &Health{checks: make(map[string]*atomic.Bool)}
}

// Register adds a named flag that starts out healthy.
func (h *Health) Register(name string) *atomic.Bool {
	flag := &atomic.Bool{}
	flag.Store(true)
	h.checks[name] = flag
	return flag
}

// Healthy is true when every registered dependency is healthy.
func (h *Health) Healthy() bool {
	for _, flag := range h.checks {
		if !flag.Load() {
			return false
		}
	}
	return true
}

// MonitorHealth probes p every interval and stores the result in healthy
// until ctx is cancelled.
func MonitorHealth(ctx context.Context, name string, p Pinger, interval time.Duration, healthy *atomic.Bool) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, interval)
			isHealthy := p.Ping(probeCtx)
			cancel()

			if healthy.Swap(isHealthy) != isHealthy {
				if isHealthy {
					slog.Info("[HealthCheck] Dependency recovered", slog.String("name", name))
				} else {
					slog.Warn("[HealthCheck] Dependency is unhealthy", slog.String("name", name))
				}
			}
		}
	}
}

// MonitorValkeyHealth pings Valkey every HEALTHCHECK_TIMER seconds.
func MonitorValkeyHealth(ctx context.Context, vc Pinger, healthy *atomic.Bool) {
	MonitorHealth(ctx, "valkey", vc, time.Second*HEALTHCHECK_TIMER, healthy)
}
