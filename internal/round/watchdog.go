package round

import (
	"math"
	"time"

	"github.com/MJE43/freefall-wager/internal/physics"
)

// watchdog detects a body that stopped making progress.
//
// The soft timer runs while per-frame vertical movement stays under
// SoftStuckMove. The hard timer measures fixed windows of HardStuckWindow:
// at the end of a window it fires when the body is barely moving, has
// drifted less than HardStuckMove from the window's freeze point, and
// earnings moved less than HardStuckEarned; otherwise a new window starts.
type watchdog struct {
	soft time.Duration

	hard       time.Duration
	freeze     physics.Vec
	freezeEarn float64
}

// reset restarts both timers with a new freeze point.
func (w *watchdog) reset(pos physics.Vec, earnings float64) {
	w.soft = 0
	w.hard = 0
	w.freeze = pos
	w.freezeEarn = earnings
}

// step feeds one frame. It returns the reason when a timer fires.
func (w *watchdog) step(dy float64, body *physics.Body, earnings float64) (SettleReason, bool) {
	if math.Abs(dy) < SoftStuckMove {
		w.soft += FrameDuration
		if w.soft >= SoftStuckLimit {
			return ReasonSoftStuck, true
		}
	} else {
		w.soft = 0
	}

	w.hard += FrameDuration
	if w.hard < HardStuckWindow {
		return "", false
	}
	barelyMoving := math.Abs(body.Vel.X) < HardStuckSpeed &&
		math.Abs(body.Vel.Y) < HardStuckSpeed &&
		math.Abs(body.Pos.Y-w.freeze.Y) < HardStuckMove
	noProgress := math.Abs(earnings-w.freezeEarn) < HardStuckEarned
	if barelyMoving && noProgress {
		return ReasonHardStuck, true
	}
	w.hard = 0
	w.freeze = body.Pos
	w.freezeEarn = earnings
	return "", false
}
