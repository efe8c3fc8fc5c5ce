package round

import (
	"math"
	"time"

	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/physics"
)

// BonusPhase is the state of a bonus run.
type BonusPhase string

const (
	BonusRising   BonusPhase = "rising"
	BonusShowcase BonusPhase = "showcase"
	BonusExiting  BonusPhase = "exiting"
)

// BonusRun is the rising-multiplier detour entered through a portal.
type BonusRun struct {
	Phase BonusPhase
	// Target is the drawn multiplier after capping to MaxAllowed.
	Target  float64
	Current float64
	// Original is earnings at entry; Final is what the exit commits.
	Original  float64
	Final     float64
	Displayed float64

	rise    float64
	elapsed time.Duration
	// returnPos is where the body reappears after the run.
	returnPos physics.Vec
}

// MaxAllowedMultiplier is the largest multiplier that keeps
// earnings × multiplier within target.
func MaxAllowedMultiplier(target, earnings float64) float64 {
	switch {
	case target > earnings:
		if earnings <= 0 {
			return math.Inf(1)
		}
		return target / earnings
	case target == 0:
		return 0
	default:
		return 1
	}
}

// DrawBonusMultiplier draws a candidate in [1, 1+BonusDrawRange) and caps it.
func DrawBonusMultiplier(src engine.Source, target, earnings float64) float64 {
	candidate := src.Float64()*BonusDrawRange + 1
	return math.Min(candidate, MaxAllowedMultiplier(target, earnings))
}

// newBonusRun starts a run for the current earnings.
func newBonusRun(src engine.Source, e *Earnings, returnPos physics.Vec) *BonusRun {
	return &BonusRun{
		Phase:     BonusRising,
		Target:    DrawBonusMultiplier(src, e.Cap(), e.Current()),
		Current:   1,
		Original:  e.Current(),
		Displayed: e.Current(),
		returnPos: returnPos,
	}
}

// step advances the run by one frame, driving the body directly. It reports
// true once the showcase has committed Final to earnings.
func (b *BonusRun) step(body *physics.Body, e *Earnings) bool {
	switch b.Phase {
	case BonusRising:
		b.rise += RiseSpeed
		body.Pos = physics.V(VoidStart.X, VoidStart.Y-b.rise)
		b.Current = math.Min(MaxBonusMult, 1+b.rise/RisePerStep)
		if b.Current >= b.Target || b.Current >= MaxBonusMult {
			b.Current = math.Min(b.Current, b.Target)
			b.Final = math.Min(b.Original*b.Current, e.Cap())
			b.Phase = BonusShowcase
		}
	case BonusShowcase:
		b.elapsed += FrameDuration
		progress := math.Min(float64(b.elapsed)/float64(ShowcaseDuration), 1)
		b.Displayed = b.Original + (b.Final-b.Original)*progress
		if b.elapsed >= ShowcaseDuration {
			e.Set(b.Final)
			b.Phase = BonusExiting
			return true
		}
	}
	return false
}
