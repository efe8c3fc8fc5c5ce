package round

import "math"

// Earnings is the live score of a round. Every mutation clamps to Cap, so
// Current never exceeds the resolved target payout.
type Earnings struct {
	current float64
	cap     float64
	// suppressed blocks every increase, used for zero-payout rounds.
	suppressed bool
}

// NewEarnings starts at zero with the given cap.
func NewEarnings(cap float64, suppressed bool) Earnings {
	return Earnings{cap: math.Max(cap, 0), suppressed: suppressed}
}

func (e *Earnings) Current() float64 { return e.current }

func (e *Earnings) Cap() float64 { return e.cap }

// Suppressed reports whether increases are blocked.
func (e *Earnings) Suppressed() bool { return e.suppressed }

// Add accrues v, clamped to the cap. It returns the amount actually added.
func (e *Earnings) Add(v float64) float64 {
	if e.suppressed || v <= 0 || math.IsNaN(v) {
		return 0
	}
	before := e.current
	e.current = math.Min(e.current+v, e.cap)
	return e.current - before
}

// Multiply scales earnings by f, clamped to the cap.
func (e *Earnings) Multiply(f float64) {
	if f < 0 || math.IsNaN(f) {
		return
	}
	next := e.current * f
	if e.suppressed && next > e.current {
		return
	}
	e.current = math.Min(next, e.cap)
}

// Halve cuts earnings in half.
func (e *Earnings) Halve() {
	e.current *= 0.5
}

// Set replaces earnings, clamped to [0, cap]. Increases are refused while
// suppressed.
func (e *Earnings) Set(v float64) {
	if math.IsNaN(v) {
		return
	}
	if e.suppressed && v > e.current {
		return
	}
	e.current = math.Max(0, math.Min(v, e.cap))
}
