// Package round runs one wager from stake to settlement.
//
// A Round is the explicit context for a single bet: its resolved outcome,
// earnings, timers and sub-states. Sim advances a Round one fixed frame at a
// time against a world.World and a physics.Body, and Lifecycle owns the
// state machine idle → awaiting-outcome → simulating ⇄ bonus → settling →
// idle, including wallet debits, refunds and the single payout commit.
package round

import (
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/physics"
)

// animKind names a full-screen transition during which physics is frozen.
type animKind int

const (
	animNone animKind = iota
	animPortalEnter
	animBonusExit
)

type anim struct {
	kind    animKind
	elapsed time.Duration
}

// grabState is the hazard hold. The flash phase is derived from elapsed
// time so stepping is deterministic.
type grabState struct {
	active  bool
	hazard  int
	elapsed time.Duration
	hold    physics.Vec
}

// Flash reports the alternate display phase of the grab.
func (g *grabState) Flash() bool {
	return g.active && (g.elapsed/GrabFlashPeriod)%2 == 1
}

// Round is the per-bet context handed to every step of the simulation.
type Round struct {
	ID       string
	Mode     outcome.Mode
	Bet      float64
	Result   outcome.Result
	Earnings Earnings
	Frame    int

	start    physics.Vec
	lastY    float64
	onGround bool
	grounded time.Duration
	flipAcc  float64

	grab  grabState
	anim  anim
	bonus *BonusRun
	watch watchdog

	// pendingExit is the body position restored when the bonus exit
	// animation ends.
	pendingExit physics.Vec
}

// NewRound creates a round for a resolved outcome with the body at start.
func NewRound(res outcome.Result, start physics.Vec) *Round {
	r := &Round{
		ID:       uuid.NewString(),
		Mode:     res.Mode,
		Bet:      res.Bet,
		Result:   res,
		Earnings: NewEarnings(res.TargetPayout, res.ZeroPayout),
		start:    start,
		lastY:    start.Y,
	}
	r.watch.reset(start, 0)
	return r
}

// ZeroPayout reports whether score-increasing interactions are suppressed.
func (r *Round) ZeroPayout() bool { return r.Result.ZeroPayout }

// InBonus reports whether a bonus run or its transitions are active.
func (r *Round) InBonus() bool {
	return r.bonus != nil || r.anim.kind != animNone
}

// Grabbed reports whether a hazard is holding the body.
func (r *Round) Grabbed() bool { return r.grab.active }

// Bonus returns the active bonus run, or nil.
func (r *Round) Bonus() *BonusRun { return r.bonus }

// Displayed is the score shown to the player, which lags the committed
// earnings during a bonus showcase.
func (r *Round) Displayed() float64 {
	if r.bonus != nil && r.bonus.Phase == BonusShowcase {
		return r.bonus.Displayed
	}
	return r.Earnings.Current()
}

// Payout is what settlement commits for this round: zero for a losing or
// zero-payout outcome, otherwise accrued earnings, or the target when
// snapToTarget is set.
func (r *Round) Payout(snapToTarget bool) float64 {
	if r.ZeroPayout() || r.Result.IsLoss() {
		return 0
	}
	p := r.Earnings.Current()
	if snapToTarget && p > 0 {
		return r.Result.TargetPayout
	}
	return p
}
