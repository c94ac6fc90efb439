// v2
// publisher.go

package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/metrics"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/telemetry"
)

// Backend is one concrete broker transport. Implementations must bound their
// connect and publish work by the passed context.
type Backend interface {
	Connect(ctx context.Context, cfg Config) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Connected() bool
	Close()
}

// Publisher forwards the latest snapshot to the configured broker on its own
// timer, best effort. Broker trouble is retried with exponential backoff
// capped at a maximum and never surfaces to the simulation or broadcast path.
// A new config revision takes effect on the next cycle; the in-flight cycle
// finishes on the snapshot it started with.
type Publisher struct {
	log      *slog.Logger
	store    *ConfigStore
	readings *sim.Store
	backend  Backend

	interval       time.Duration
	backoffMin     time.Duration
	backoffMax     time.Duration
	attemptTimeout time.Duration

	rev uint64 // revision the backend is connected with; run-loop only
}

// NewPublisher wires a publisher to its config store, reading store and
// transport backend.
func NewPublisher(log *slog.Logger, store *ConfigStore, readings *sim.Store, backend Backend, interval, backoffMin, backoffMax, attemptTimeout time.Duration) *Publisher {
	return &Publisher{
		log:            log.With(slog.String("component", "publisher")),
		store:          store,
		readings:       readings,
		backend:        backend,
		interval:       interval,
		backoffMin:     backoffMin,
		backoffMax:     backoffMax,
		attemptTimeout: attemptTimeout,
	}
}

// Connected reports whether the backend currently holds a broker connection.
func (p *Publisher) Connected() bool { return p.backend.Connected() }

// Run starts the publish loop.
func (p *Publisher) Run(ctx context.Context) {
	p.log.Info("publisher started", "interval", p.interval.String())
	go func() {
		delay := p.backoffMin
		t := time.NewTimer(p.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				p.backend.Close()
				p.log.Info("publisher stopped")
				return
			case <-t.C:
			}

			if err := p.cycle(ctx); err != nil {
				metrics.IncBrokerFailure()
				p.log.Warn("publish cycle failed, will retry", "err", err, "backoff", delay.String())
				t.Reset(delay)
				delay = nextBackoff(delay, p.backoffMax)
				continue
			}
			delay = p.backoffMin
			t.Reset(p.interval)
		}
	}()
}

// cycle performs one publish attempt against the configuration current at its
// start.
func (p *Publisher) cycle(ctx context.Context) error {
	cfg := p.store.Current()
	if !cfg.PublishEnabled || cfg.Host == "" {
		return nil
	}

	if cfg.Revision != p.rev || !p.backend.Connected() {
		p.backend.Close()
		cctx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
		err := p.backend.Connect(cctx, cfg)
		cancel()
		if err != nil {
			return fmt.Errorf("connect %s: %w", cfg.Addr(), err)
		}
		p.rev = cfg.Revision
		p.log.Info("broker connected", "addr", cfg.Addr(), "revision", cfg.Revision)
	}

	snap := p.readings.Snapshot()
	if len(snap) == 0 {
		return nil
	}
	payload, err := json.Marshal(telemetry.NewMeterReading(snap))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, p.attemptTimeout)
	defer cancel()
	if err := p.backend.Publish(pctx, cfg.DataTopic(), payload); err != nil {
		return fmt.Errorf("publish to %s: %w", cfg.DataTopic(), err)
	}
	metrics.IncBrokerPublish()
	p.log.Debug("snapshot published", "topic", cfg.DataTopic(), "bytes", len(payload))
	return nil
}

// nextBackoff doubles the delay up to the cap.
func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
