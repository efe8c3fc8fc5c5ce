package ledger

import (
	"errors"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/MJE43/freefall-wager/internal/outcome"
	"github.com/MJE43/freefall-wager/internal/round"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testSession(t *testing.T, store *Store) string {
	t.Helper()
	id, err := store.CreateSession(&Session{Source: "local", StartBalance: 1000})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return id
}

func TestSessionLifecycle(t *testing.T) {
	store := testStore(t)
	id := testSession(t, store)

	got, err := store.GetSession(id)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Source != "local" || got.StartBalance != 1000 || got.EndedAt != nil {
		t.Errorf("session %+v", got)
	}

	if err := store.EndSession(id, 1234.5); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	got, _ = store.GetSession(id)
	if got.FinalBalance == nil || *got.FinalBalance != 1234.5 || got.EndedAt == nil {
		t.Errorf("ended session %+v", got)
	}

	if _, err := store.GetSession("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session: %v", err)
	}
	if err := store.EndSession("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Errorf("end missing session: %v", err)
	}
}

func TestRoundsRoundTrip(t *testing.T) {
	store := testStore(t)
	id := testSession(t, store)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rounds := []Round{
		{SessionID: id, Mode: "base", Bet: 10, Tier: "small", Multiplier: 2, TargetPayout: 20, Payout: 18.5, Reason: "landed", Frames: 900, Source: "local", CreatedAt: base},
		{SessionID: id, Mode: "base", Bet: 10, Tier: "lose", Payout: 0, ZeroPayout: true, Reason: "zero-payout", Frames: 14, Source: "local", CreatedAt: base.Add(time.Second)},
		{SessionID: id, Mode: "chaos", Bet: 100, Tier: "big", Multiplier: 25, TargetPayout: 2500, Payout: 40, Reason: "soft-stuck", Frames: 2000, Source: "remote", BetID: "b-1", CreatedAt: base.Add(2 * time.Second)},
	}
	if err := store.InsertRoundsBatch(rounds); err != nil {
		t.Fatalf("InsertRoundsBatch: %v", err)
	}

	got, total, err := store.ListRounds(id, 2, 0)
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if total != 3 || len(got) != 2 {
		t.Fatalf("total %d, page %d", total, len(got))
	}
	if got[0].BetID != "b-1" || got[0].Mode != "chaos" || !got[0].CreatedAt.Equal(rounds[2].CreatedAt) {
		t.Errorf("newest round %+v", got[0])
	}
	if !got[1].ZeroPayout || got[1].Reason != "zero-payout" {
		t.Errorf("second round %+v", got[1])
	}

	page2, _, err := store.ListRounds(id, 2, 2)
	if err != nil || len(page2) != 1 || page2[0].ID != rounds[0].ID {
		t.Fatalf("page 2: %v %+v", err, page2)
	}

	sum, err := store.SessionSummary(id)
	if err != nil {
		t.Fatalf("SessionSummary: %v", err)
	}
	want := Summary{SessionID: id, Rounds: 3, Wins: 2, Losses: 1, Resets: 1, Wagered: 120, Paid: 58.5, Profit: -61.5, BestPayout: 40}
	if sum != want {
		t.Errorf("summary %+v, want %+v", sum, want)
	}
	if rtp := sum.RTP(); rtp < 0.48 || rtp > 0.49 {
		t.Errorf("rtp %v", rtp)
	}
}

func TestSummaryOfEmptySession(t *testing.T) {
	store := testStore(t)
	id := testSession(t, store)

	sum, err := store.SessionSummary(id)
	if err != nil {
		t.Fatalf("SessionSummary: %v", err)
	}
	if sum.Rounds != 0 || sum.Wagered != 0 || sum.RTP() != 0 {
		t.Errorf("summary %+v", sum)
	}
}

func TestRoundRequiresSession(t *testing.T) {
	store := testStore(t)
	err := store.InsertRound(&Round{SessionID: "nope", Mode: "base", Bet: 1, Tier: "lose", Reason: "landed"})
	if err == nil {
		t.Fatal("round without session accepted")
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	store := testStore(t)
	id := testSession(t, store)
	if err := store.InsertRound(&Round{SessionID: id, Mode: "base", Bet: 1, Tier: "lose", Reason: "landed"}); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteSession(id); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, total, _ := store.ListRounds(id, 10, 0); total != 0 {
		t.Errorf("%d rounds left", total)
	}
}

func TestRecorderFlushesInBatches(t *testing.T) {
	store := testStore(t)
	id := testSession(t, store)
	rec := NewRecorder(store, id, 3, log.New(io.Discard, "", 0))

	var _ round.Recorder = rec
	for i := 0; i < 7; i++ {
		rec.RecordRound(round.Record{
			Mode:      outcome.ModeBase,
			Bet:       5,
			Tier:      outcome.TierSmall,
			Payout:    float64(i),
			Reason:    round.ReasonLanded,
			Source:    outcome.SourceLocal,
			SettledAt: time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC),
		})
	}
	rec.Flush()

	got, total, err := store.ListRounds(id, 10, 0)
	if err != nil {
		t.Fatalf("ListRounds: %v", err)
	}
	if total != 7 {
		t.Fatalf("stored %d rounds, want 7", total)
	}
	if got[0].Payout != 6 || got[0].ID == "" || got[0].Reason != "landed" {
		t.Errorf("newest %+v", got[0])
	}
}
