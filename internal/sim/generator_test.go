// v1
// generator_test.go

package sim

import (
	"math"
	"testing"
)

func TestWalkerStaysInsidePhysicalBounds(t *testing.T) {
	w := newWalker(42, 5.0)
	for i := 0; i < 10000; i++ {
		v, c := w.step()
		if v < minVoltage || v > maxVoltage {
			t.Fatalf("step %d: voltage %v outside [%v, %v]", i, v, minVoltage, maxVoltage)
		}
		if c < minCurrent || c > maxCurrent {
			t.Fatalf("step %d: current %v outside [%v, %v]", i, c, minCurrent, maxCurrent)
		}
		if v*c < 0 {
			t.Fatalf("step %d: negative power %v", i, v*c)
		}
	}
}

func TestWalkerResetReturnsToBaseline(t *testing.T) {
	w := newWalker(7, 3.5)
	for i := 0; i < 100; i++ {
		w.step()
	}
	w.reset()
	if w.voltage != w.baseVoltage {
		t.Fatalf("voltage after reset: got %v want %v", w.voltage, w.baseVoltage)
	}
	if w.current != w.baseCurrent {
		t.Fatalf("current after reset: got %v want %v", w.current, w.baseCurrent)
	}
}

func TestWalkerBaselineCurrentClamped(t *testing.T) {
	tests := []struct {
		name string
		base float64
		want float64
	}{
		{name: "below range", base: 0.0, want: minCurrent},
		{name: "above range", base: 25.0, want: maxCurrent},
		{name: "in range", base: 5.0, want: 5.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := newWalker(1, tc.base)
			if w.current != tc.want {
				t.Fatalf("baseline current: got %v want %v", w.current, tc.want)
			}
		})
	}
}

func TestWalkerStepBounded(t *testing.T) {
	w := newWalker(9, 5.0)
	prevV, prevC := w.voltage, w.current
	for i := 0; i < 1000; i++ {
		v, c := w.step()
		if d := math.Abs(v - prevV); d > w.stepVoltage+0.01 {
			t.Fatalf("step %d: voltage jumped by %v, max step %v", i, d, w.stepVoltage)
		}
		if d := math.Abs(c - prevC); d > w.stepCurrent+0.01 {
			t.Fatalf("step %d: current jumped by %v, max step %v", i, d, w.stepCurrent)
		}
		prevV, prevC = v, c
	}
}
