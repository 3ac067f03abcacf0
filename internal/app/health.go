package app

import (
	"log/slog"
	"sync/atomic"

	"github.com/florianilch/groqway/internal/proxy"
)

// Health tracks whether the proxy accepts traffic; it backs /health/ready.
// All methods are thread-safe.
type Health struct {
	ready atomic.Bool
}

// Compile-time check that Health implements proxy.ReadinessChecker interface
var _ proxy.ReadinessChecker = (*Health)(nil)

// NewHealth creates a Health that reports not ready until the listener is up.
func NewHealth() *Health {
	return &Health{}
}

// SetReady updates the readiness state and logs transitions.
func (h *Health) SetReady(ready bool) {
	if h.ready.Swap(ready) != ready {
		slog.Info("readiness changed", "ready", ready)
	}
}

// IsReady reports the current readiness state.
func (h *Health) IsReady() bool {
	return h.ready.Load()
}
