package round

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/wallet"
	"github.com/MJE43/freefall-wager/internal/world"
)

type fakeResolver struct {
	res   outcome.Result
	err   error
	calls int
}

func (f *fakeResolver) Resolve(_ context.Context, bet float64, mode outcome.Mode) (outcome.Result, error) {
	f.calls++
	if f.err != nil {
		return outcome.Result{}, f.err
	}
	res := f.res
	res.Bet = bet
	res.Mode = mode
	return res, nil
}

type healthResolver struct {
	*fakeResolver
	healthErr error
	checks    int
}

func (h *healthResolver) CheckHealth(context.Context) error {
	h.checks++
	return h.healthErr
}

type recorder struct {
	records []Record
}

func (r *recorder) RecordRound(rec Record) { r.records = append(r.records, rec) }

// emptyModes keeps the default tuning and stakes but spawns no entities, so
// a round is a straight fall.
func emptyModes() map[outcome.Mode]ModeSettings {
	modes := DefaultModes()
	for k, m := range modes {
		m.World = world.Profile{}
		modes[k] = m
	}
	return modes
}

func winning(target float64) outcome.Result {
	return outcome.Result{Tier: outcome.TierSmall, Multiplier: 2, TargetPayout: target, Source: outcome.SourceLocal}
}

type fixture struct {
	l      *Lifecycle
	wallet *wallet.Wallet
	events *eventLog
	rec    *recorder
}

func newFixture(t *testing.T, res outcome.Resolver, balance float64, snap bool) fixture {
	t.Helper()
	f := fixture{wallet: wallet.NewFromFloat(balance), events: &eventLog{}, rec: &recorder{}}
	l, err := NewLifecycle(Config{
		Resolver:     res,
		Wallet:       f.wallet,
		Modes:        emptyModes(),
		Source:       engine.NewRandSource(9),
		Emitter:      f.events,
		Recorder:     f.rec,
		Logger:       log.New(io.Discard, "", 0),
		SnapToTarget: snap,
	})
	if err != nil {
		t.Fatalf("NewLifecycle: %v", err)
	}
	f.l = l
	return f
}

func (f fixture) balance() decimal.Decimal { return f.wallet.Balance() }

// tickUntil advances until the lifecycle reaches state.
func (f fixture) tickUntil(t *testing.T, state State, limit int) int {
	t.Helper()
	for i := 1; i <= limit; i++ {
		f.l.Tick()
		if f.l.State() == state {
			return i
		}
	}
	t.Fatalf("state %s not reached in %d frames (now %s)", state, limit, f.l.State())
	return 0
}

func TestLandingSettlesOnce(t *testing.T) {
	f := newFixture(t, &fakeResolver{res: winning(200)}, 1000, false)

	if err := f.l.PlaceBet(context.Background(), 100, outcome.ModeBase); err != nil {
		t.Fatalf("PlaceBet: %v", err)
	}
	if !f.balance().Equal(decimal.NewFromInt(900)) {
		t.Fatalf("balance after debit %s", f.balance())
	}

	f.tickUntil(t, StateSettling, 5000)
	rec, ok := f.l.LastRecord()
	if !ok || rec.Reason != ReasonLanded {
		t.Fatalf("record %+v", rec)
	}
	if rec.Payout <= 0 || rec.Payout > 200 {
		t.Errorf("payout %v", rec.Payout)
	}
	want := decimal.NewFromInt(900).Add(decimal.NewFromFloat(rec.Payout))
	if !f.balance().Equal(want) {
		t.Errorf("balance %s, want %s", f.balance(), want)
	}

	frames := f.tickUntil(t, StateIdle, 1000)
	if frames < 295 || frames > 305 {
		t.Errorf("win display lasted %d frames", frames)
	}
	for i := 0; i < 100; i++ {
		f.l.Tick()
	}
	if !f.balance().Equal(want) {
		t.Errorf("payout committed again: %s", f.balance())
	}
	if f.events.count(EventSettled) != 1 || len(f.rec.records) != 1 {
		t.Errorf("settled %d times, recorded %d", f.events.count(EventSettled), len(f.rec.records))
	}
	if f.rec.records[0].ID != rec.ID || rec.Frames == 0 {
		t.Errorf("record %+v", f.rec.records[0])
	}
}

func TestSnapToTargetCommitsTarget(t *testing.T) {
	f := newFixture(t, &fakeResolver{res: winning(200)}, 1000, true)
	if err := f.l.PlaceBet(context.Background(), 100, outcome.ModeBase); err != nil {
		t.Fatal(err)
	}
	f.tickUntil(t, StateSettling, 5000)
	if rec, _ := f.l.LastRecord(); rec.Payout != 200 {
		t.Errorf("payout %v, want 200", rec.Payout)
	}
	if !f.balance().Equal(decimal.NewFromInt(1100)) {
		t.Errorf("balance %s", f.balance())
	}
}

func TestStuckResetIgnoresSnapToTarget(t *testing.T) {
	for _, reason := range []SettleReason{ReasonSoftStuck, ReasonHardStuck} {
		t.Run(string(reason), func(t *testing.T) {
			f := newFixture(t, &fakeResolver{res: winning(200)}, 1000, true)
			if err := f.l.PlaceBet(context.Background(), 100, outcome.ModeBase); err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 30; i++ {
				f.l.Tick()
			}
			accrued := f.l.round.Earnings.Current()
			if accrued <= 0 || accrued >= 200 {
				t.Fatalf("accrued %v after 30 frames", accrued)
			}

			f.l.settle(reason)
			rec, ok := f.l.LastRecord()
			if !ok || rec.Reason != reason {
				t.Fatalf("record %+v", rec)
			}
			if rec.Payout != accrued {
				t.Errorf("payout %v, want accrued %v", rec.Payout, accrued)
			}
			want := decimal.NewFromInt(900).Add(decimal.NewFromFloat(accrued))
			if !f.balance().Equal(want) {
				t.Errorf("balance %s, want %s", f.balance(), want)
			}
		})
	}
}

func TestZeroPayoutRoundLoses(t *testing.T) {
	lose := outcome.Result{Tier: outcome.TierLose, ZeroPayout: true}
	f := newFixture(t, &fakeResolver{res: lose}, 100, false)

	if err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase); err != nil {
		t.Fatal(err)
	}
	f.tickUntil(t, StateSettling, 200)
	rec, _ := f.l.LastRecord()
	if rec.Reason != ReasonZeroPayout || rec.Payout != 0 {
		t.Errorf("record %+v", rec)
	}
	if f.events.count(EventLoss) != 1 {
		t.Error("loss not signalled")
	}
	if frames := f.tickUntil(t, StateIdle, 200); frames > 65 {
		t.Errorf("loss display lasted %d frames", frames)
	}
	if !f.balance().Equal(decimal.NewFromInt(90)) {
		t.Errorf("balance %s", f.balance())
	}
}

func TestTransportErrorRefunds(t *testing.T) {
	res := &fakeResolver{err: &outcome.TransportError{Err: errors.New("connection reset")}}
	f := newFixture(t, res, 100, false)

	err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase)
	var te *outcome.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error %v, want TransportError", err)
	}
	if !f.balance().Equal(decimal.NewFromInt(100)) {
		t.Errorf("stake not refunded: %s", f.balance())
	}
	if f.l.State() != StateIdle {
		t.Errorf("state %s", f.l.State())
	}
	if !f.l.Snapshot().ConnectionError || f.events.count(EventConnectionError) != 1 {
		t.Error("connection error not surfaced")
	}
}

func TestConnectivityBlocksBetWithoutDebit(t *testing.T) {
	hr := &healthResolver{
		fakeResolver: &fakeResolver{res: winning(50)},
		healthErr:    &outcome.ConnectivityError{Err: errors.New("dial tcp: refused")},
	}
	f := newFixture(t, hr, 100, false)

	err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase)
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("error %v, want ErrNotConnected", err)
	}
	if hr.calls != 0 {
		t.Error("bet sent while unhealthy")
	}
	if !f.balance().Equal(decimal.NewFromInt(100)) || f.l.State() != StateIdle {
		t.Errorf("balance %s state %s", f.balance(), f.l.State())
	}

	hr.healthErr = nil
	if err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if hr.checks != 2 || f.l.Snapshot().ConnectionError {
		t.Errorf("checks %d, snapshot %+v", hr.checks, f.l.Snapshot())
	}
}

func TestPlaceBetRefusals(t *testing.T) {
	t.Run("insufficient balance", func(t *testing.T) {
		res := &fakeResolver{res: winning(20)}
		f := newFixture(t, res, 5, false)
		if err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase); !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("error %v", err)
		}
		if res.calls != 0 || f.l.State() != StateIdle {
			t.Error("resolved without funds")
		}
	})

	t.Run("round active", func(t *testing.T) {
		f := newFixture(t, &fakeResolver{res: winning(20)}, 100, false)
		if err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase); err != nil {
			t.Fatal(err)
		}
		if err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase); !errors.Is(err, ErrRoundActive) {
			t.Fatalf("error %v", err)
		}
	})

	t.Run("invalid stake", func(t *testing.T) {
		f := newFixture(t, &fakeResolver{res: winning(20)}, 100, false)
		if err := f.l.PlaceBet(context.Background(), 0, outcome.ModeBase); !errors.Is(err, ErrInvalidBet) {
			t.Fatalf("error %v", err)
		}
		if err := f.l.PlaceBet(context.Background(), 1, outcome.Mode("turbo")); !errors.Is(err, ErrInvalidBet) {
			t.Fatalf("error %v", err)
		}
	})
}

func TestEntryBetFixesStake(t *testing.T) {
	tests := []struct {
		mode outcome.Mode
		want int64
	}{
		{outcome.ModeBase, 999},
		{outcome.ModeNoZero, 950},
		{outcome.ModeChaos, 900},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			res := &fakeResolver{res: winning(1000)}
			f := newFixture(t, res, 1000, false)
			if err := f.l.PlaceBet(context.Background(), 1, tt.mode); err != nil {
				t.Fatal(err)
			}
			if !f.balance().Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("balance %s, want %d", f.balance(), tt.want)
			}
			if tun := f.l.Sim().Body.Tuning(); tun != emptyModes()[tt.mode].Tuning {
				t.Errorf("tuning not applied: %+v", tun)
			}
		})
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, &fakeResolver{res: winning(40)}, 100, false)
	if s := f.l.Snapshot(); s.State != StateIdle || s.Balance != 100 || s.RoundID != "" {
		t.Fatalf("idle snapshot %+v", s)
	}

	if err := f.l.PlaceBet(context.Background(), 10, outcome.ModeBase); err != nil {
		t.Fatal(err)
	}
	f.l.Tick()
	s := f.l.Snapshot()
	if s.State != StateSimulating || s.RoundID == "" || s.TargetPayout != 40 || s.Balance != 90 {
		t.Errorf("snapshot %+v", s)
	}
	if s.BonusMultiplier != 1 || s.Frame != 1 || s.Y <= world.Start.Y {
		t.Errorf("snapshot %+v", s)
	}
}
