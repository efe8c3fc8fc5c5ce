package round

import (
	"math"
	"testing"

	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/physics"
	"github.com/MJE43/freefall-wager/internal/world"
)

func TestEarningsClamp(t *testing.T) {
	e := NewEarnings(8, false)

	if got := e.Add(5); got != 5 {
		t.Errorf("added %v", got)
	}
	if got := e.Add(5); got != 3 || e.Current() != 8 {
		t.Errorf("added %v, current %v; want 3, 8", got, e.Current())
	}

	e.Halve()
	if e.Current() != 4 {
		t.Errorf("halved to %v", e.Current())
	}
	e.Multiply(50)
	if e.Current() != 8 {
		t.Errorf("multiply not clamped: %v", e.Current())
	}
	e.Set(-1)
	if e.Current() != 0 {
		t.Errorf("set below zero: %v", e.Current())
	}
	e.Set(100)
	if e.Current() != 8 {
		t.Errorf("set not clamped: %v", e.Current())
	}
}

func TestSuppressedEarningsNeverIncrease(t *testing.T) {
	e := NewEarnings(100, true)
	e.Add(10)
	e.Multiply(5)
	e.Set(40)
	if e.Current() != 0 {
		t.Fatalf("suppressed earnings grew to %v", e.Current())
	}
	if !e.Suppressed() {
		t.Error("flag lost")
	}
}

func TestMaxAllowedMultiplier(t *testing.T) {
	tests := []struct {
		target, earnings, want float64
	}{
		{100, 5, 20},
		{5, 5, 1},
		{3, 5, 1},
		{0, 0, 0},
		{0, 4, 0},
		{10, 0, math.Inf(1)},
	}
	for _, tt := range tests {
		if got := MaxAllowedMultiplier(tt.target, tt.earnings); got != tt.want {
			t.Errorf("MaxAllowedMultiplier(%v, %v) = %v, want %v", tt.target, tt.earnings, got, tt.want)
		}
	}
}

// runBonus drives a bonus run to its commit.
func runBonus(t *testing.T, run *BonusRun, e *Earnings) {
	t.Helper()
	body := physics.NewBody(VoidStart, physics.PlayerTemplate, physics.DefaultTuning())
	for i := 0; i < 2000; i++ {
		if run.step(body, e) {
			return
		}
		if e.Current() > e.Cap() {
			t.Fatalf("earnings %v above cap %v mid-run", e.Current(), e.Cap())
		}
	}
	t.Fatal("bonus run never committed")
}

func TestBonusAcceptsCandidateUnderCap(t *testing.T) {
	e := NewEarnings(100, false)
	e.Add(5)

	run := newBonusRun(engine.NewSequence((12.0-1)/BonusDrawRange), &e, world.Start)
	if math.Abs(run.Target-12) > 1e-9 {
		t.Fatalf("target %v, want 12", run.Target)
	}
	runBonus(t, run, &e)

	if math.Abs(e.Current()-60) > 1e-9 || math.Abs(run.Final-60) > 1e-9 {
		t.Errorf("final %v committed %v, want 60", run.Final, e.Current())
	}
	if run.Phase != BonusExiting {
		t.Errorf("phase %s", run.Phase)
	}
}

func TestBonusNeverExceedsTarget(t *testing.T) {
	tests := []struct {
		name             string
		earnings, target float64
		draw             float64
	}{
		{"capped draw", 5, 10, 0.999},
		{"at target", 50, 50, 0.5},
		{"small earnings", 0.5, 1000, 0.999},
		{"lowest draw", 7, 7.5, 0},
		{"ceiling draw", 1, 10000, 0.9999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEarnings(tt.target, false)
			e.Add(tt.earnings)
			run := newBonusRun(engine.NewSequence(tt.draw), &e, physics.Vec{})
			runBonus(t, run, &e)

			if run.Final > tt.target || e.Current() > tt.target {
				t.Fatalf("final %v committed %v above target %v", run.Final, e.Current(), tt.target)
			}
			want := math.Min(tt.earnings*run.Target, tt.target)
			if math.Abs(e.Current()-want) > 1e-9 {
				t.Errorf("committed %v, want %v", e.Current(), want)
			}
		})
	}
}

func TestBonusShowcaseInterpolates(t *testing.T) {
	e := NewEarnings(100, false)
	e.Add(5)
	run := newBonusRun(engine.NewSequence(0.3), &e, physics.Vec{})
	body := physics.NewBody(VoidStart, physics.PlayerTemplate, physics.DefaultTuning())

	for run.Phase == BonusRising {
		run.step(body, &e)
		if body.Pos.Y >= VoidStart.Y {
			t.Fatal("body not rising")
		}
	}
	run.step(body, &e)
	run.step(body, &e)
	if run.Displayed <= run.Original || run.Displayed >= run.Final {
		t.Errorf("displayed %v not between %v and %v", run.Displayed, run.Original, run.Final)
	}
	if e.Current() != 5 {
		t.Errorf("earnings committed early: %v", e.Current())
	}
}
