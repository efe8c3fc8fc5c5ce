// Package outcome decides, once per round, which tier a bet lands in and the
// payout the simulation must converge to.
//
// Two resolvers exist. LocalResolver samples a weighted tier table with an
// ordinary uniform source. RemoteResolver asks an authority over HTTP and
// never falls back to local sampling when the authority fails.
package outcome

import (
	"context"
	"fmt"
	"math"
)

// Source names where a result came from.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Result is the immutable outcome of one round.
type Result struct {
	Tier         string  `json:"tier"`
	Multiplier   float64 `json:"multiplier"`
	Bet          float64 `json:"bet"`
	TargetPayout float64 `json:"targetPayout"`
	// ZeroPayout suppresses every score-increasing interaction for the round.
	ZeroPayout bool   `json:"zeroPayout"`
	Mode       Mode   `json:"mode"`
	Source     Source `json:"source"`
	// BetID is the authority's identifier, empty for local results.
	BetID string `json:"betId,omitempty"`
	// Absorbed holds ErrTableExhausted or ErrMalformedResponse when the
	// result was forced to a zero payout.
	Absorbed error `json:"-"`
}

// IsLoss reports whether the round can only pay zero.
func (r Result) IsLoss() bool {
	return r.ZeroPayout || r.Tier == TierLose
}

// Resolver fixes the outcome of a round before simulation starts.
type Resolver interface {
	Resolve(ctx context.Context, bet float64, mode Mode) (Result, error)
}

// HealthChecker is implemented by resolvers that must be reachable before
// bets are accepted.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

func validateBet(bet float64) error {
	if bet <= 0 || math.IsNaN(bet) || math.IsInf(bet, 0) {
		return fmt.Errorf("outcome: invalid bet %v", bet)
	}
	return nil
}
