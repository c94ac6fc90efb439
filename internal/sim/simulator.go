// v2
// simulator.go

package sim

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Simulator generates one synthetic reading per tick for a single source and
// writes it into the shared store. The goroutine stays alive for the whole
// process lifetime; start/stop only flip the enabled flag, so there is no
// spawn/teardown race on control actions. Generator state survives
// disable/enable and only returns to baseline on an explicit reset.
type Simulator struct {
	log    *slog.Logger
	source string
	store  *Store
	bumped chan struct{} // wakes the run loop after SetInterval

	mu       sync.Mutex
	enabled  bool
	interval time.Duration
	gen      *walker
	last     *Reading
}

// NewSimulator creates an enabled simulator for the named source.
func NewSimulator(log *slog.Logger, source string, interval time.Duration, seed int64, baseCurrent float64, store *Store) *Simulator {
	return &Simulator{
		log:      log.With(slog.String("component", "simulator"), slog.String("source", source)),
		source:   source,
		store:    store,
		enabled:  true,
		interval: interval,
		gen:      newWalker(seed, baseCurrent),
		bumped:   make(chan struct{}, 1),
	}
}

// Run starts the periodic tick loop. Each simulator runs on its own schedule;
// SetInterval wakes the loop so the new cadence applies without waiting out
// the old one.
func (s *Simulator) Run(ctx context.Context) {
	s.log.Info("simulator started", "interval", s.Interval().String())
	go func() {
		cur := s.Interval()
		t := time.NewTicker(cur)
		defer t.Stop()
		for {
			select {
			case now := <-t.C:
				s.Tick(now)
			case <-s.bumped:
				if d := s.Interval(); d != cur {
					t.Reset(d)
					cur = d
					s.log.Info("interval applied", "interval", cur.String())
				}
			case <-ctx.Done():
				s.log.Info("simulator stopped")
				return
			}
		}
	}()
}

// Tick advances the generator by one step if the source is enabled: it
// produces a reading with a timestamp strictly greater than the previous one
// and stores it. Disabled sources are a no-op.
func (s *Simulator) Tick(now time.Time) {
	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return
	}

	voltage, current := s.gen.step()
	ts := now.UTC()
	if s.last != nil && !ts.After(s.last.Timestamp) {
		// Wall clock did not move between ticks; keep the per-source
		// timestamp invariant by nudging forward.
		ts = s.last.Timestamp.Add(time.Millisecond)
	}
	r := Reading{
		Source:    s.source,
		Voltage:   voltage,
		Current:   current,
		Power:     round2(voltage * current),
		Timestamp: ts,
	}
	s.last = &r
	s.mu.Unlock()

	s.store.Write(r)
}

// Name returns the source name.
func (s *Simulator) Name() string { return s.source }

// Start enables reading generation.
func (s *Simulator) Start() {
	s.mu.Lock()
	s.enabled = true
	s.mu.Unlock()
	s.log.Info("source started")
}

// Stop freezes the source at its last reading. The tick loop keeps running.
func (s *Simulator) Stop() {
	s.mu.Lock()
	s.enabled = false
	s.mu.Unlock()
	s.log.Info("source stopped")
}

// Reset returns the generator to its baseline. Enabled/disabled is unchanged.
func (s *Simulator) Reset() {
	s.mu.Lock()
	s.gen.reset()
	s.mu.Unlock()
	s.log.Info("source reset to baseline")
}

// SetInterval changes the tick interval and wakes the run loop to apply it.
func (s *Simulator) SetInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	select {
	case s.bumped <- struct{}{}:
	default:
	}
	s.log.Info("interval set", "interval", d.String())
}

// Interval returns the current tick interval.
func (s *Simulator) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// State returns a point-in-time view of the source.
func (s *Simulator) State() SourceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SourceState{
		Source:     s.source,
		Enabled:    s.enabled,
		Interval:   s.interval,
		IntervalMs: s.interval.Milliseconds(),
	}
	if s.last != nil {
		cp := *s.last
		st.Last = &cp
	}
	return st
}
