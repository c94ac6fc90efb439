// v1
// broadcast_test.go

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
)

func writeBoth(store *sim.Store, ts time.Time) {
	store.Write(sim.Reading{Source: sim.SourceConsumed, Voltage: 230, Current: 5, Power: 1150, Timestamp: ts})
	store.Write(sim.Reading{Source: sim.SourceGenerated, Voltage: 230, Current: 4, Power: 920, Timestamp: ts.Add(time.Millisecond)})
}

func TestBroadcasterEmitsOneEventPerCycle(t *testing.T) {
	store := sim.NewStore()
	hub := NewHub(testLogger(), 16)
	defer hub.Close()
	b := NewBroadcaster(testLogger(), hub, store, time.Second)
	sub := hub.Subscribe()

	// Three cycles, both sources advancing each cycle: the subscriber must
	// hold exactly three composite events, each strictly after the previous
	// one for both sources.
	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		writeBoth(store, base.Add(time.Duration(i)*time.Second))
		b.publish()
	}

	if got := len(sub.Events()); got != 3 {
		t.Fatalf("buffered events: got %d want 3", got)
	}
	var prevConsumed, prevGenerated time.Time
	for i := 0; i < 3; i++ {
		ev := <-sub.Events()
		if ev.Type != EventMeterReading {
			t.Fatalf("event %d: type %q", i, ev.Type)
		}
		if ev.Consumed == nil || ev.Generated == nil {
			t.Fatalf("event %d misses a source: %+v", i, ev)
		}
		if i > 0 {
			if !ev.Consumed.Timestamp.After(prevConsumed) {
				t.Fatalf("event %d: consumed timestamp %v not after %v", i, ev.Consumed.Timestamp, prevConsumed)
			}
			if !ev.Generated.Timestamp.After(prevGenerated) {
				t.Fatalf("event %d: generated timestamp %v not after %v", i, ev.Generated.Timestamp, prevGenerated)
			}
		}
		prevConsumed = ev.Consumed.Timestamp
		prevGenerated = ev.Generated.Timestamp
	}
}

func TestBroadcasterSkipsEmptyStore(t *testing.T) {
	store := sim.NewStore()
	hub := NewHub(testLogger(), 4)
	defer hub.Close()
	b := NewBroadcaster(testLogger(), hub, store, time.Second)
	sub := hub.Subscribe()

	b.publish()
	if got := len(sub.Events()); got != 0 {
		t.Fatalf("event broadcast before any reading existed: %d", got)
	}
}

func TestBroadcasterRunPublishesOnTicker(t *testing.T) {
	store := sim.NewStore()
	hub := NewHub(testLogger(), 16)
	defer hub.Close()
	b := NewBroadcaster(testLogger(), hub, store, 10*time.Millisecond)
	sub := hub.Subscribe()
	writeBoth(store, time.Now().UTC())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Run(ctx)

	select {
	case ev := <-sub.Events():
		if ev.Type != EventMeterReading {
			t.Fatalf("type %q", ev.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no event within 2s")
	}
}
