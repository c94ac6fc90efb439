// v1
// broadcast.go

package telemetry

import (
	"context"
	"log/slog"
	"time"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
)

// Broadcaster pushes one composite meter_reading per tick, built from the
// store's current snapshot. A single cadence for the whole meter keeps the
// subscriber stream at exactly one event per period no matter how many
// sources feed the store.
type Broadcaster struct {
	log      *slog.Logger
	hub      *Hub
	readings *sim.Store
	interval time.Duration
}

func NewBroadcaster(log *slog.Logger, hub *Hub, readings *sim.Store, interval time.Duration) *Broadcaster {
	return &Broadcaster{
		log:      log.With(slog.String("component", "broadcaster")),
		hub:      hub,
		readings: readings,
		interval: interval,
	}
}

// Run starts the broadcast loop.
func (b *Broadcaster) Run(ctx context.Context) {
	b.log.Info("broadcaster started", "interval", b.interval.String())
	go func() {
		t := time.NewTicker(b.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				b.publish()
			case <-ctx.Done():
				b.log.Info("broadcaster stopped")
				return
			}
		}
	}()
}

// publish fans out one snapshot. Nothing is sent before the first reading
// lands in the store.
func (b *Broadcaster) publish() {
	snap := b.readings.Snapshot()
	if len(snap) == 0 {
		return
	}
	b.hub.Publish(NewMeterReading(snap))
}
