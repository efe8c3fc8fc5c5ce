package round

import (
	"math"

	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/physics"
	"github.com/MJE43/freefall-wager/internal/world"
)

// Sim advances rounds frame by frame. It owns the world pools and the body
// between rounds; each Step call works on the Round it is given.
type Sim struct {
	World *world.World
	Body  *physics.Body

	src      engine.Source
	emitter  Emitter
	contacts []physics.Contact
}

// NewSim wires a world and body to a uniform source. A nil emitter drops
// events.
func NewSim(w *world.World, body *physics.Body, src engine.Source, emitter Emitter) *Sim {
	if emitter == nil {
		emitter = nopEmitter{}
	}
	return &Sim{
		World:    w,
		Body:     body,
		src:      src,
		emitter:  emitter,
		contacts: make([]physics.Contact, 0, 64),
	}
}

func (s *Sim) emit(r *Round, kind EventKind, value float64, label string) {
	s.emitter.Emit(Event{Kind: kind, RoundID: r.ID, Frame: r.Frame, Value: value, Label: label})
}

// StepResult is the outcome of one frame.
type StepResult struct {
	Done   bool
	Reason SettleReason
}

// Step advances r by one frame:
// transitions, bonus, grab hold, recycling, collisions, integration,
// zero-payout kill, pushables, flips, fall earnings, pickups, landing dwell,
// then the watchdogs.
func (s *Sim) Step(r *Round) StepResult {
	r.Frame++
	b := s.Body

	if r.anim.kind != animNone {
		s.stepAnim(r)
		return StepResult{}
	}
	if r.bonus != nil {
		s.stepBonus(r)
		return StepResult{}
	}
	if r.grab.active {
		s.stepGrab(r)
		return StepResult{}
	}

	if r.Frame%world.RecycleEvery == 0 {
		s.World.Recycle()
	}

	if s.resolveCollisions(r) != collisionNone {
		return StepResult{}
	}

	r.flipAcc += b.Integrate(r.onGround, true)

	if r.ZeroPayout() && b.Pos.Y-r.start.Y >= ZeroPayoutFallKill {
		return StepResult{Done: true, Reason: ReasonZeroPayout}
	}

	s.World.StepPushables(b.Pos.Y)

	if math.Abs(r.flipAcc) >= FullTurn {
		dir := "backflip"
		if r.flipAcc < 0 {
			dir = "frontflip"
		}
		s.emit(r, EventFlip, 0, dir)
		r.flipAcc = 0
	}

	dy := b.Pos.Y - r.lastY
	if b.Vel.Y > 0 && dy > MinFallStep {
		r.Earnings.Add(dy * math.Sqrt(r.Bet) * FallEarningsRate)
	}

	if !r.ZeroPayout() {
		s.pickup(r)
	}

	if r.onGround {
		r.grounded += FrameDuration
		if r.grounded > LandingDwell {
			return StepResult{Done: true, Reason: ReasonLanded}
		}
	} else {
		r.grounded = 0
	}

	r.lastY = b.Pos.Y
	if reason, fired := r.watch.step(dy, b, r.Earnings.Current()); fired {
		return StepResult{Done: true, Reason: reason}
	}
	return StepResult{}
}

// pickup collects every collectible touching a body collider.
func (s *Sim) pickup(r *Round) {
	colliders := s.Body.Colliders()
	for i := range s.World.Collectibles {
		c := &s.World.Collectibles[i]
		if !c.Active || math.Abs(c.Pos.Y-s.Body.Pos.Y) > world.CloudCheckRange {
			continue
		}
		cc := c.Circle()
		for _, bc := range colliders {
			if physics.CircleOverlaps(bc, cc, 0) {
				r.Earnings.Add(c.Value)
				s.World.Remove(world.Ref{Kind: world.KindCollectible, Index: i})
				s.emit(r, EventPickup, c.Value, string(c.Class))
				break
			}
		}
	}
}

// startGrab freezes the body on hazard i and halves earnings.
func (s *Sim) startGrab(r *Round, hazard int) {
	s.Body.Freeze()
	r.grab = grabState{active: true, hazard: hazard, hold: s.Body.Pos}
	r.Earnings.Halve()
	r.grounded = 0
	s.emit(r, EventGrabStart, r.Earnings.Current(), "")
}

// stepGrab holds the body until GrabHold elapses, then removes the hazard
// and launches the body upward inside a cone.
func (s *Sim) stepGrab(r *Round) {
	b := s.Body
	r.grab.elapsed += FrameDuration
	b.Pos = r.grab.hold
	if r.grab.elapsed < GrabHold {
		return
	}

	s.World.Remove(world.Ref{Kind: world.KindHazard, Index: r.grab.hazard})
	half := math.Pi / GrabLaunchSpread
	spread := s.src.Float64()*2*half - half
	b.Vel = physics.V(math.Sin(spread)*GrabLaunchSpeed, -math.Cos(spread)*GrabLaunchSpeed)
	b.AngVel = (s.src.Float64() - 0.5) * GrabLaunchSpin

	r.grab = grabState{}
	r.lastY = b.Pos.Y
	r.watch.reset(b.Pos, r.Earnings.Current())
	s.emit(r, EventGrabRelease, r.Earnings.Current(), "")
}

// enterPortal freezes the body and plays the entry transition.
func (s *Sim) enterPortal(r *Round) {
	s.Body.Freeze()
	r.anim = anim{kind: animPortalEnter}
	r.pendingExit = s.Body.Pos
	s.emit(r, EventBonusEnter, r.Earnings.Current(), "")
}

// stepAnim runs the entry or exit transition. Entry ends by relocating the
// body into the void; exit hands control back to normal simulation.
func (s *Sim) stepAnim(r *Round) {
	r.anim.elapsed += FrameDuration
	switch r.anim.kind {
	case animPortalEnter:
		if r.anim.elapsed < PortalEnterAnim {
			return
		}
		r.anim = anim{}
		r.bonus = newBonusRun(s.src, &r.Earnings, r.pendingExit)
		s.Body.Reset(VoidStart)
	case animBonusExit:
		if r.anim.elapsed < BonusExitAnim {
			return
		}
		r.anim = anim{}
		r.lastY = s.Body.Pos.Y
		r.watch.reset(s.Body.Pos, r.Earnings.Current())
	}
}

// stepBonus advances the bonus run; on commit it restores the body and
// starts the exit transition.
func (s *Sim) stepBonus(r *Round) {
	run := r.bonus
	phase := run.Phase
	if !run.step(s.Body, &r.Earnings) {
		if phase == BonusRising && run.Phase == BonusShowcase {
			s.emit(r, EventBonusShowcase, run.Current, "")
		}
		return
	}
	s.Body.Reset(run.returnPos)
	r.bonus = nil
	r.anim = anim{kind: animBonusExit}
	s.emit(r, EventBonusExit, r.Earnings.Current(), "")
}
