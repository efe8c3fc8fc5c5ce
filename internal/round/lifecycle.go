package round

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/physics"
	"github.com/MJE43/freefall-wager/internal/world"
)

// Wallet holds the player's balance.
type Wallet interface {
	Debit(amount decimal.Decimal) error
	Credit(amount decimal.Decimal)
	Balance() decimal.Decimal
}

// Config wires a Lifecycle.
type Config struct {
	Resolver outcome.Resolver
	Wallet   Wallet
	// Modes defaults to DefaultModes.
	Modes map[outcome.Mode]ModeSettings
	// Source drives world spawns, grab launches and bonus draws.
	Source   engine.Source
	Emitter  Emitter
	Recorder Recorder
	Logger   *log.Logger
	// SnapToTarget commits the target payout on a nonzero landing instead of
	// the accrued earnings.
	SnapToTarget bool
}

// Lifecycle is the round state machine. Tick is expected from a single
// frame loop; PlaceBet may be called from another goroutine and blocks
// while the outcome is resolved.
type Lifecycle struct {
	mu sync.Mutex

	resolver outcome.Resolver
	wallet   Wallet
	modes    map[outcome.Mode]ModeSettings
	emitter  Emitter
	recorder Recorder
	logger   *log.Logger
	snap     bool

	sim     *Sim
	state   State
	round   *Round
	display time.Duration

	connected bool
	connErr   error
	last      *Record
}

// NewLifecycle builds an idle lifecycle with a freshly spawned base world.
func NewLifecycle(cfg Config) (*Lifecycle, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("round: resolver is required")
	}
	if cfg.Wallet == nil {
		return nil, errors.New("round: wallet is required")
	}
	if cfg.Modes == nil {
		cfg.Modes = DefaultModes()
	}
	base, ok := cfg.Modes[outcome.ModeBase]
	if !ok {
		return nil, fmt.Errorf("round: no settings for mode %q", outcome.ModeBase)
	}
	if cfg.Source == nil {
		cfg.Source = engine.NewRandSource(uint64(time.Now().UnixNano()))
	}
	if cfg.Emitter == nil {
		cfg.Emitter = nopEmitter{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[ROUND] ", log.LstdFlags)
	}

	w := world.New(base.World, cfg.Source)
	body := physics.NewBody(world.Start, physics.PlayerTemplate, base.Tuning)

	_, remote := cfg.Resolver.(outcome.HealthChecker)
	return &Lifecycle{
		resolver:  cfg.Resolver,
		wallet:    cfg.Wallet,
		modes:     cfg.Modes,
		emitter:   cfg.Emitter,
		recorder:  cfg.Recorder,
		logger:    cfg.Logger,
		snap:      cfg.SnapToTarget,
		sim:       NewSim(w, body, cfg.Source, cfg.Emitter),
		state:     StateIdle,
		connected: !remote,
	}, nil
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Sim exposes the simulation, e.g. for a rendering adapter. Callers must
// not mutate it while a round is running.
func (l *Lifecycle) Sim() *Sim { return l.sim }

// LastRecord returns the most recently settled round.
func (l *Lifecycle) LastRecord() (Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return Record{}, false
	}
	return *l.last, true
}

// StakeFor returns the amount a bet in mode actually debits.
func (l *Lifecycle) StakeFor(bet float64, mode outcome.Mode) float64 {
	if s, ok := l.modes[mode]; ok && s.EntryBet > 0 {
		return s.EntryBet
	}
	return bet
}

// Connect runs the authority health check and is also the retry action
// after a connection error. Resolvers without a health check always
// connect. A failure surfaces the connection-error signal.
func (l *Lifecycle) Connect(ctx context.Context) error {
	var err error
	if hc, ok := l.resolver.(outcome.HealthChecker); ok {
		err = hc.CheckHealth(ctx)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.setConnection(err)
	return err
}

// setConnection records the connectivity state. Called with mu held.
func (l *Lifecycle) setConnection(err error) {
	l.connErr = err
	l.connected = err == nil
	if err != nil {
		l.logger.Printf("Authority unreachable: %v", err)
		l.emitter.Emit(Event{Kind: EventConnectionError, Label: err.Error()})
	}
}

// PlaceBet debits the stake, resolves the outcome and starts the round.
// Any resolution failure refunds the stake and returns to idle.
func (l *Lifecycle) PlaceBet(ctx context.Context, bet float64, mode outcome.Mode) error {
	settings, ok := l.modes[mode]
	if !ok {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidBet, mode)
	}
	stake := l.StakeFor(bet, mode)
	if stake <= 0 || math.IsNaN(stake) || math.IsInf(stake, 0) {
		return fmt.Errorf("%w: stake %v", ErrInvalidBet, stake)
	}

	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return ErrRoundActive
	}
	needsCheck := !l.connected
	l.state = StateAwaitingOutcome
	l.mu.Unlock()

	if needsCheck {
		if err := l.Connect(ctx); err != nil {
			l.toIdle()
			return fmt.Errorf("%w: %v", ErrNotConnected, err)
		}
	}

	amount := decimal.NewFromFloat(stake)
	if err := l.wallet.Debit(amount); err != nil {
		l.toIdle()
		return fmt.Errorf("%w: %v", ErrInsufficientBalance, err)
	}

	res, err := l.resolver.Resolve(ctx, stake, mode)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.wallet.Credit(amount)
		l.state = StateIdle
		if outcome.IsConnectivity(err) || outcome.IsTransport(err) {
			l.setConnection(err)
		}
		l.logger.Printf("Resolution failed, refunded %s: %v", amount, err)
		return fmt.Errorf("round: resolve: %w", err)
	}

	if l.sim.World.Profile() != settings.World {
		l.sim.World.Reconfigure(settings.World)
	}
	l.sim.Body.SetTuning(settings.Tuning)
	l.sim.Body.Reset(world.Start)

	l.round = NewRound(res, world.Start)
	l.state = StateSimulating
	l.logger.Printf("Round %s started: mode=%s bet=%.2f tier=%s target=%.4f zero=%t",
		l.round.ID, mode, stake, res.Tier, res.TargetPayout, res.ZeroPayout)
	l.emitter.Emit(Event{Kind: EventRoundStarted, RoundID: l.round.ID, Value: res.TargetPayout, Label: res.Tier})
	return nil
}

func (l *Lifecycle) toIdle() {
	l.mu.Lock()
	l.state = StateIdle
	l.mu.Unlock()
}

// Tick advances one frame.
func (l *Lifecycle) Tick() {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case StateSimulating, StateBonus:
		r := l.round
		res := l.sim.Step(r)
		if r.InBonus() {
			l.state = StateBonus
		} else {
			l.state = StateSimulating
		}
		if res.Done {
			l.settle(res.Reason)
		}
	case StateSettling:
		l.display -= FrameDuration
		if l.display > 0 {
			return
		}
		l.round = nil
		l.state = StateIdle
		l.sim.World.Spawn()
		l.sim.Body.Reset(world.Start)
		l.emitter.Emit(Event{Kind: EventIdle})
	}
}

// settle commits the payout exactly once and enters the display period.
// Called with mu held.
func (l *Lifecycle) settle(reason SettleReason) {
	r := l.round
	payout := r.Payout(l.snap && reason == ReasonLanded)
	if payout > 0 {
		l.wallet.Credit(decimal.NewFromFloat(payout))
	}

	switch {
	case reason == ReasonSoftStuck || reason == ReasonHardStuck:
		l.display = ResetDisplay
		l.emitter.Emit(Event{Kind: EventReset, RoundID: r.ID, Frame: r.Frame, Value: payout, Label: string(reason)})
	case payout > 0:
		l.display = WinDisplay
		l.emitter.Emit(Event{Kind: EventSettled, RoundID: r.ID, Frame: r.Frame, Value: payout, Label: string(reason)})
	default:
		l.display = LossDisplay
		l.emitter.Emit(Event{Kind: EventLoss, RoundID: r.ID, Frame: r.Frame, Label: string(reason)})
	}
	l.state = StateSettling
	l.logger.Printf("Round %s settled: payout=%.4f reason=%s frames=%d", r.ID, payout, reason, r.Frame)

	rec := Record{
		ID:           r.ID,
		Mode:         r.Mode,
		Bet:          r.Bet,
		Tier:         r.Result.Tier,
		Multiplier:   r.Result.Multiplier,
		TargetPayout: r.Result.TargetPayout,
		Payout:       payout,
		ZeroPayout:   r.Result.ZeroPayout,
		Reason:       reason,
		Frames:       r.Frame,
		Source:       r.Result.Source,
		BetID:        r.Result.BetID,
		SettledAt:    time.Now().UTC(),
	}
	l.last = &rec
	if l.recorder != nil {
		l.recorder.RecordRound(rec)
	}
}

// Snapshot returns the collaborator-facing view.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.sim.Body
	bal, _ := l.wallet.Balance().Float64()
	s := Snapshot{
		State:           l.state,
		Balance:         bal,
		BonusMultiplier: 1,
		ConnectionError: l.connErr != nil,
		X:               b.Pos.X,
		Y:               b.Pos.Y,
		Angle:           b.Angle,
	}
	if l.last != nil {
		s.LastPayout = l.last.Payout
	}
	if r := l.round; r != nil {
		s.RoundID = r.ID
		s.Mode = string(r.Mode)
		s.Tier = r.Result.Tier
		s.Earnings = r.Earnings.Current()
		s.Displayed = r.Displayed()
		s.TargetPayout = r.Result.TargetPayout
		s.GrabFlash = r.grab.Flash()
		s.Frame = r.Frame
		if run := r.Bonus(); run != nil {
			s.BonusMultiplier = run.Current
		}
	}
	return s
}
