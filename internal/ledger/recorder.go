package ledger

import (
	"log"
	"os"
	"sync"

	"github.com/MJE43/freefall-wager/internal/round"
)

// Recorder buffers settled rounds for one session and flushes them to the
// store in batches. It satisfies round.Recorder, so it can be handed to a
// Lifecycle directly; RecordRound never blocks on the database.
type Recorder struct {
	store     *Store
	sessionID string
	logger    *log.Logger

	mu        sync.Mutex
	buffer    []Round
	flushSize int
	inflight  sync.WaitGroup
}

// NewRecorder creates a recorder for sessionID. flushSize controls how many
// rounds are buffered before a batch insert.
func NewRecorder(store *Store, sessionID string, flushSize int, logger *log.Logger) *Recorder {
	if flushSize <= 0 {
		flushSize = 25
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[LEDGER] ", log.LstdFlags)
	}
	return &Recorder{
		store:     store,
		sessionID: sessionID,
		logger:    logger,
		buffer:    make([]Round, 0, flushSize),
		flushSize: flushSize,
	}
}

// SessionID returns the session the recorder writes to.
func (r *Recorder) SessionID() string { return r.sessionID }

// RecordRound buffers a settled round and starts a background flush once
// the buffer is full.
func (r *Recorder) RecordRound(rec round.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, Round{
		ID:           rec.ID,
		SessionID:    r.sessionID,
		Mode:         string(rec.Mode),
		Bet:          rec.Bet,
		Tier:         rec.Tier,
		Multiplier:   rec.Multiplier,
		TargetPayout: rec.TargetPayout,
		Payout:       rec.Payout,
		ZeroPayout:   rec.ZeroPayout,
		Reason:       string(rec.Reason),
		Frames:       rec.Frames,
		Source:       string(rec.Source),
		BetID:        rec.BetID,
		CreatedAt:    rec.SettledAt,
	})
	if len(r.buffer) >= r.flushSize {
		r.flushLocked()
	}
}

// Flush persists buffered rounds and waits for every pending batch.
func (r *Recorder) Flush() {
	r.mu.Lock()
	r.flushLocked()
	r.mu.Unlock()
	r.inflight.Wait()
}

func (r *Recorder) flushLocked() {
	if len(r.buffer) == 0 {
		return
	}
	rounds := make([]Round, len(r.buffer))
	copy(rounds, r.buffer)
	r.buffer = r.buffer[:0]

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		if err := r.store.InsertRoundsBatch(rounds); err != nil {
			r.logger.Printf("Flush of %d rounds failed: %v", len(rounds), err)
		}
	}()
}
