// Package autoplay plays consecutive rounds on a round lifecycle, letting an
// optional JavaScript strategy pick the stake and mode between rounds.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/round"
)

// State is the engine's lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
	StateError   State = "error"
)

// StopReason explains why a run ended without error.
type StopReason string

const (
	StopCancelled    StopReason = "cancelled"
	StopScript       StopReason = "script"
	StopInsufficient StopReason = "insufficient-balance"
	StopMaxRounds    StopReason = "max-rounds"
)

// Lifecycle is the part of round.Lifecycle the engine drives.
type Lifecycle interface {
	PlaceBet(ctx context.Context, bet float64, mode outcome.Mode) error
	Tick()
	State() round.State
	LastRecord() (round.Record, bool)
	Snapshot() round.Snapshot
}

// Config configures an Engine.
type Config struct {
	// Script is optional; without one every round repeats BaseBet in Mode.
	Script  string
	BaseBet float64
	Mode    outcome.Mode
	// MaxRounds stops the run after that many rounds; zero means unlimited.
	MaxRounds int
	// Realtime paces ticks at round.FrameDuration instead of running flat out.
	Realtime bool
	Logger   *log.Logger
}

// Snapshot is a copy of the engine state.
type Snapshot struct {
	State      State      `json:"state"`
	StopReason StopReason `json:"stopReason,omitempty"`
	Error      string     `json:"error,omitempty"`
	Stats      Statistics `json:"stats"`
	NextBet    float64    `json:"nextBet"`
	Mode       string     `json:"mode"`
}

// Engine runs the autoplay loop.
type Engine struct {
	mu     sync.RWMutex
	state  State
	reason StopReason
	err    error

	life     Lifecycle
	strategy *Strategy
	vars     *Variables
	stats  *Statistics
	cfg    Config
	logger *log.Logger
}

// New prepares an engine. A script is executed immediately so syntax errors
// and a missing dobet() surface before any stake is placed.
func New(life Lifecycle, cfg Config) (*Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[AUTOPLAY] ", log.LstdFlags)
	}
	if cfg.Mode == "" {
		cfg.Mode = outcome.ModeBase
	}
	bal := life.Snapshot().Balance
	stats := NewStatistics(bal)
	e := &Engine{
		state:  StateIdle,
		life:   life,
		stats:  stats,
		vars:   NewVariables(stats, cfg.BaseBet, cfg.Mode),
		cfg:    cfg,
		logger: cfg.Logger,
	}

	if cfg.Script != "" {
		strategy, err := Compile(cfg.Script, e.vars)
		if err != nil {
			return nil, fmt.Errorf("autoplay: %w", err)
		}
		e.strategy = strategy
	}
	return e, nil
}

// Run plays rounds until the context ends, the strategy calls stop(), the
// balance cannot cover the next stake, or MaxRounds is reached. It returns
// nil for all of those; any other failure stops the run with an error.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return errors.New("autoplay: already running")
	}
	e.state = StateRunning
	e.vars.Running = true
	e.mu.Unlock()

	var ticker *time.Ticker
	if e.cfg.Realtime {
		ticker = time.NewTicker(round.FrameDuration)
		defer ticker.Stop()
	}

	for {
		if ctx.Err() != nil {
			return e.stop(StopCancelled)
		}
		if e.strategy != nil && e.strategy.Stopped() {
			return e.stop(StopScript)
		}
		if e.cfg.MaxRounds > 0 && e.stats.Bets >= e.cfg.MaxRounds {
			return e.stop(StopMaxRounds)
		}

		e.mu.RLock()
		bet, mode, err := e.vars.next()
		e.mu.RUnlock()
		if err != nil {
			return e.fail(fmt.Errorf("autoplay: %w", err))
		}

		if err := e.life.PlaceBet(ctx, bet, mode); err != nil {
			if errors.Is(err, round.ErrInsufficientBalance) {
				e.logger.Printf("Insufficient balance for autoplay: bet=%.2f balance=%.2f", bet, e.life.Snapshot().Balance)
				return e.stop(StopInsufficient)
			}
			if ctx.Err() != nil {
				return e.stop(StopCancelled)
			}
			return e.fail(fmt.Errorf("autoplay: place bet: %w", err))
		}

		if err := e.playOut(ctx, ticker); err != nil {
			return e.stop(StopCancelled)
		}

		rec, ok := e.life.LastRecord()
		if !ok {
			return e.fail(errors.New("autoplay: round ended without a record"))
		}
		e.record(rec)

		if e.strategy != nil {
			e.mu.Lock()
			err := e.strategy.Next(e.vars)
			e.mu.Unlock()
			if err != nil {
				return e.fail(fmt.Errorf("autoplay: %w", err))
			}
		}
	}
}

// playOut ticks the lifecycle until the round has settled and its display
// period is over. The round itself always finishes; only the wait is
// abandoned on cancellation.
func (e *Engine) playOut(ctx context.Context, ticker *time.Ticker) error {
	for e.life.State() != round.StateIdle {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		e.life.Tick()
	}
	return nil
}

func (e *Engine) record(rec round.Record) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.RecordRound(rec)
	e.stats.Balance = e.life.Snapshot().Balance

	e.vars.Balance = e.stats.Balance
	e.vars.PreviousBet = rec.Bet
	e.vars.Win = IsWin(rec)
	e.vars.LastPayout = rec.Payout
	e.vars.LastTier = rec.Tier
	e.vars.LastReason = string(rec.Reason)

	e.logger.Printf("Round %d: bet=%.2f payout=%.4f tier=%s profit=%.4f",
		e.stats.Bets, rec.Bet, rec.Payout, rec.Tier, e.stats.Profit)
}

func (e *Engine) stop(reason StopReason) error {
	e.mu.Lock()
	e.state = StateStopped
	e.reason = reason
	e.vars.Running = false
	e.mu.Unlock()
	e.logger.Printf("Autoplay stopped (%s) after %d rounds, profit=%.4f", reason, e.stats.Bets, e.stats.Profit)
	return nil
}

func (e *Engine) fail(err error) error {
	e.mu.Lock()
	e.state = StateError
	e.err = err
	e.vars.Running = false
	e.mu.Unlock()
	e.logger.Printf("Autoplay error: %v", err)
	return err
}

// GetState returns a snapshot of the engine.
func (e *Engine) GetState() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	snap := Snapshot{
		State:      e.state,
		StopReason: e.reason,
		Stats:      *e.stats,
		NextBet:    e.vars.NextBet,
		Mode:       string(e.vars.Mode),
	}
	if e.err != nil {
		snap.Error = e.err.Error()
	}
	return snap
}

// Logs returns the strategy's log output.
func (e *Engine) Logs() []LogEntry {
	if e.strategy == nil {
		return nil
	}
	return e.strategy.Logs()
}
