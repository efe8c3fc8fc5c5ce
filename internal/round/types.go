package round

import (
	"errors"
	"time"

	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/physics"
	"github.com/MJE43/freefall-wager/internal/world"
)

// State represents the lifecycle state.
type State string

const (
	StateIdle            State = "idle"
	StateAwaitingOutcome State = "awaiting-outcome"
	StateSimulating      State = "simulating"
	StateBonus           State = "bonus"
	StateSettling        State = "settling"
)

// Bet placement refusals.
var (
	ErrInsufficientBalance = errors.New("round: insufficient balance")
	ErrRoundActive         = errors.New("round: a round is already active")
	ErrNotConnected        = errors.New("round: authority not connected")
	ErrInvalidBet          = errors.New("round: invalid bet")
)

// FrameDuration is the fixed simulation step.
const FrameDuration = time.Second / 60

// Timings.
const (
	GrabHold         = 1500 * time.Millisecond
	GrabFlashPeriod  = 90 * time.Millisecond
	PortalEnterAnim  = 1000 * time.Millisecond
	ShowcaseDuration = 1000 * time.Millisecond
	BonusExitAnim    = 1000 * time.Millisecond
	LandingDwell     = 200 * time.Millisecond
	SoftStuckLimit   = 3000 * time.Millisecond
	HardStuckWindow  = 6000 * time.Millisecond
	WinDisplay       = 5 * time.Second
	LossDisplay      = 1 * time.Second
	ResetDisplay     = 2 * time.Second
)

// Tuning constants for the score and interactions.
const (
	FallEarningsRate   = 0.00006
	MinFallStep        = 2.0
	ZeroPayoutFallKill = 50.0

	GrabLaunchSpeed  = 28.0
	GrabLaunchSpread = 4.4 // cone half-angle is π/GrabLaunchSpread
	GrabLaunchSpin   = 0.08

	MultiplierHitPadding = 30.0
	MultiplierSeparation = 0.2
	MultiplierBounce     = 0.5

	PushForce      = 2.3
	PushShare      = 0.5
	PushResistance = 0.8

	SoftStuckMove   = 5.0
	HardStuckSpeed  = 0.6
	HardStuckMove   = 25.0
	HardStuckEarned = 0.5

	FullTurn = 2 * 3.141592653589793
)

// Bonus void constants.
const (
	VoidX          = 0.0
	VoidStartY     = -2200.0
	RiseSpeed      = 7.0
	RisePerStep    = 120.0
	MaxBonusMult   = 16.0
	BonusDrawRange = 15.0
)

// VoidStart is the body's centroid at the start of a bonus run.
var VoidStart = physics.V(VoidX+world.ScreenW/2, VoidStartY+world.ScreenH/2)

// ModeSettings bundles everything a mode changes.
type ModeSettings struct {
	// EntryBet fixes the stake for the mode; zero uses the player's bet.
	EntryBet float64
	Tuning   physics.Tuning
	World    world.Profile
}

// DefaultModes returns the built-in mode settings.
func DefaultModes() map[outcome.Mode]ModeSettings {
	base := physics.DefaultTuning()

	noZero := base
	noZero.Gravity, noZero.MaxFall = 0.85, 26

	chaos := base
	chaos.Gravity, chaos.MaxFall = 0.45, 18

	return map[outcome.Mode]ModeSettings{
		outcome.ModeBase:   {Tuning: base, World: world.BaseProfile()},
		outcome.ModeNoZero: {EntryBet: 50, Tuning: noZero, World: world.BaseProfile()},
		outcome.ModeChaos:  {EntryBet: 100, Tuning: chaos, World: world.ChaosProfile()},
	}
}

// SettleReason says why a round ended.
type SettleReason string

const (
	ReasonLanded     SettleReason = "landed"
	ReasonZeroPayout SettleReason = "zero-payout"
	ReasonSoftStuck  SettleReason = "soft-stuck"
	ReasonHardStuck  SettleReason = "hard-stuck"
)

// EventKind names a collaborator-facing event.
type EventKind string

const (
	EventRoundStarted    EventKind = "round-started"
	EventMultiplierHit   EventKind = "multiplier-hit"
	EventGrabStart       EventKind = "grab-start"
	EventGrabRelease     EventKind = "grab-release"
	EventBonusEnter      EventKind = "bonus-enter"
	EventBonusShowcase   EventKind = "bonus-showcase"
	EventBonusExit       EventKind = "bonus-exit"
	EventPickup          EventKind = "pickup"
	EventFlip            EventKind = "flip"
	EventSettled         EventKind = "settled"
	EventLoss            EventKind = "loss"
	EventReset           EventKind = "reset"
	EventIdle            EventKind = "idle"
	EventConnectionError EventKind = "connection-error"
)

// Event is pushed to the Emitter as the round progresses.
type Event struct {
	Kind    EventKind `json:"kind"`
	RoundID string    `json:"roundId,omitempty"`
	Frame   int       `json:"frame"`
	// Value carries the event's number: multiplier factor, pickup value,
	// payout, or bonus multiplier.
	Value float64 `json:"value,omitempty"`
	// Label carries the event's name: multiplier class, collectible class,
	// flip direction, settle reason, or error text.
	Label string `json:"label,omitempty"`
}

// Emitter receives events. Implementations must not call back into the
// Lifecycle synchronously.
type Emitter interface {
	Emit(Event)
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(Event)

func (f EmitterFunc) Emit(e Event) { f(e) }

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// Snapshot is a serializable view of the lifecycle for the collaborator UI.
type Snapshot struct {
	State           State   `json:"state"`
	RoundID         string  `json:"roundId,omitempty"`
	Mode            string  `json:"mode,omitempty"`
	Tier            string  `json:"tier,omitempty"`
	Balance         float64 `json:"balance"`
	Earnings        float64 `json:"earnings"`
	Displayed       float64 `json:"displayed"`
	TargetPayout    float64 `json:"targetPayout"`
	BonusMultiplier float64 `json:"bonusMultiplier"`
	GrabFlash       bool    `json:"grabFlash"`
	LastPayout      float64 `json:"lastPayout"`
	ConnectionError bool    `json:"connectionError"`
	Frame           int     `json:"frame"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Angle           float64 `json:"angle"`
}

// Record is one settled round, handed to the Recorder.
type Record struct {
	ID           string
	Mode         outcome.Mode
	Bet          float64
	Tier         string
	Multiplier   float64
	TargetPayout float64
	Payout       float64
	ZeroPayout   bool
	Reason       SettleReason
	Frames       int
	Source       outcome.Source
	BetID        string
	SettledAt    time.Time
}

// Recorder persists settled rounds. Optional.
type Recorder interface {
	RecordRound(Record)
}
