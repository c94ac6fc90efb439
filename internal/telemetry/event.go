package telemetry

import (
	"github.com/pratikpanchal22/multi-source-energy-meter/internal/sim"
)

// EventMeterReading is the type tag on broadcast payloads.
const EventMeterReading = "meter_reading"

// Event is the composite payload pushed to each subscriber and forwarded to
// the external broker: the latest sample per source plus the derived net
// power. NetPower is computed here at broadcast time and never stored.
type Event struct {
	Type      string       `json:"type"`
	Consumed  *sim.Reading `json:"consumed,omitempty"`
	Generated *sim.Reading `json:"generated,omitempty"`
	NetPower  float64      `json:"netPower"`
}

// NewMeterReading builds a meter_reading event from one store snapshot. The
// snapshot is internally consistent, so both samples belong to the same
// instant of observation.
func NewMeterReading(snapshot map[string]sim.Reading) Event {
	ev := Event{Type: EventMeterReading}
	if r, ok := snapshot[sim.SourceConsumed]; ok {
		cp := r
		ev.Consumed = &cp
	}
	if r, ok := snapshot[sim.SourceGenerated]; ok {
		cp := r
		ev.Generated = &cp
	}
	var gen, con float64
	if ev.Generated != nil {
		gen = ev.Generated.Power
	}
	if ev.Consumed != nil {
		con = ev.Consumed.Power
	}
	ev.NetPower = gen - con
	return ev
}
