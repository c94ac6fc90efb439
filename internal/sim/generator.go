// v1
// generator.go

package sim

import (
	"math"
	"math/rand"
)

// Physical bounds for synthetic readings. Taken from a typical single-phase
// household meter: mains voltage with tolerance, current up to a 10 A fuse.
const (
	minVoltage = 210.0
	maxVoltage = 240.0
	minCurrent = 0.1
	maxCurrent = 10.0
)

// walker produces voltage/current pairs as a bounded random walk around a
// per-source baseline. Each step perturbs the previous value by at most the
// configured step size and is clamped to the physical range, so voltage and
// current never go negative and power (V*I) stays non-negative.
type walker struct {
	rng *rand.Rand

	baseVoltage float64
	baseCurrent float64
	stepVoltage float64
	stepCurrent float64

	voltage float64
	current float64
}

func newWalker(seed int64, baseCurrent float64) *walker {
	w := &walker{
		rng:         rand.New(rand.NewSource(seed)),
		baseVoltage: 230.0,
		baseCurrent: baseCurrent,
		stepVoltage: 1.5,
		stepCurrent: 0.4,
	}
	w.reset()
	return w
}

// step advances the walk by one tick and returns the new pair.
func (w *walker) step() (voltage, current float64) {
	w.voltage = clamp(w.voltage+w.jitter(w.stepVoltage), minVoltage, maxVoltage)
	w.current = clamp(w.current+w.jitter(w.stepCurrent), minCurrent, maxCurrent)
	return round2(w.voltage), round2(w.current)
}

// reset returns the walk to its baseline without touching the RNG.
func (w *walker) reset() {
	w.voltage = w.baseVoltage
	w.current = clamp(w.baseCurrent, minCurrent, maxCurrent)
}

func (w *walker) jitter(step float64) float64 {
	return (w.rng.Float64()*2 - 1) * step
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
