package sim

import "time"

// Canonical source names. The simulator always runs one source of each.
const (
	SourceConsumed  = "consumed"
	SourceGenerated = "generated"
)

// Reading is one timestamped voltage/current/power sample for a source.
// Power is always the exact product of voltage and current.
type Reading struct {
	Source    string    `json:"-"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Power     float64   `json:"power"`
	Timestamp time.Time `json:"timestamp"`
}

// SourceState is a point-in-time view of one source, returned in control
// acknowledgments and on the status endpoint.
type SourceState struct {
	Source     string        `json:"source"`
	Enabled    bool          `json:"enabled"`
	Interval   time.Duration `json:"-"`
	IntervalMs int64         `json:"intervalMs"`
	Last       *Reading      `json:"lastReading,omitempty"`
}
