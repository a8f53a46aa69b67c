package chat

import (
	"log/slog"
	"time"

	"github.com/example/chat-relay/metrics"
)

// Reaper deletes rooms that stay empty past a grace period. There is no
// timer cancellation: a rejoin within the window falsifies the emptiness
// re-check at expiry instead. Overlapping schedules for the same room are
// harmless for the same reason.
type Reaper struct {
	registry *Registry
	delay    time.Duration
	logger   *slog.Logger
}

// NewReaper creates a reaper over the given registry.
func NewReaper(registry *Registry, delay time.Duration) *Reaper {
	return &Reaper{
		registry: registry,
		delay:    delay,
		logger:   slog.Default(),
	}
}

var _ ReapScheduler = (*Reaper)(nil)

// Schedule queues a room for deletion after the grace period. The room is
// only deleted if its membership is still zero when the delay expires.
func (r *Reaper) Schedule(roomID string) {
	time.AfterFunc(r.delay, func() {
		if r.registry.DeleteIfEmpty(roomID) {
			metrics.RoomsReaped.Inc()
			r.logger.Info("Reaped empty room", "roomID", roomID)
		}
	})
}
