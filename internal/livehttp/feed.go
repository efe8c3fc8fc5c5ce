package livehttp

import (
	"sync"
	"time"

	"github.com/MJE43/freefall-wager/internal/round"
)

// FeedEvent is a lifecycle event with a feed sequence number.
type FeedEvent struct {
	Seq   int64       `json:"seq"`
	At    time.Time   `json:"at"`
	Event round.Event `json:"event"`
}

// Feed keeps the most recent lifecycle events for polling clients. It
// implements round.Emitter and is safe for concurrent use.
type Feed struct {
	mu     sync.Mutex
	events []FeedEvent
	max    int
	seq    int64
}

// NewFeed keeps up to max events.
func NewFeed(max int) *Feed {
	if max <= 0 {
		max = 500
	}
	return &Feed{max: max, events: make([]FeedEvent, 0, max)}
}

// Emit appends e, dropping the oldest event when full.
func (f *Feed) Emit(e round.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	if len(f.events) >= f.max {
		f.events = append(f.events[:0], f.events[1:]...)
	}
	f.events = append(f.events, FeedEvent{Seq: f.seq, At: time.Now().UTC(), Event: e})
}

// Since returns up to limit events with Seq > since, oldest first, and the
// last sequence number handed out.
func (f *Feed) Since(since int64, limit int) ([]FeedEvent, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FeedEvent, 0)
	for _, e := range f.events {
		if e.Seq <= since {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, e)
	}
	last := since
	if len(out) > 0 {
		last = out[len(out)-1].Seq
	}
	return out, last
}
