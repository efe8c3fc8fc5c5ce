package outcome

import (
	"context"
	"log"
	"os"

	"github.com/MJE43/freefall-wager/internal/authority"
)

// Authority is the subset of authority.Client the remote resolver needs.
type Authority interface {
	Health(ctx context.Context) error
	PlaceBet(ctx context.Context, req authority.BetRequest) (*authority.BetResponse, error)
}

// RemoteResolver resolves every bet through an authority. It is fail-closed:
// any transport failure is returned to the caller, never replaced by a
// local draw.
type RemoteResolver struct {
	auth   Authority
	logger *log.Logger
}

// NewRemoteResolver wraps an authority client.
func NewRemoteResolver(auth Authority, logger *log.Logger) *RemoteResolver {
	if logger == nil {
		logger = log.New(os.Stdout, "[AUTHORITY] ", log.LstdFlags)
	}
	return &RemoteResolver{auth: auth, logger: logger}
}

// CheckHealth implements HealthChecker.
func (r *RemoteResolver) CheckHealth(ctx context.Context) error {
	if err := r.auth.Health(ctx); err != nil {
		r.logger.Printf("health check failed: %v", err)
		return &ConnectivityError{Err: err}
	}
	return nil
}

// Resolve submits the bet and classifies the returned payout.
func (r *RemoteResolver) Resolve(ctx context.Context, bet float64, mode Mode) (Result, error) {
	if err := validateBet(bet); err != nil {
		return Result{}, err
	}

	resp, err := r.auth.PlaceBet(ctx, authority.BetRequest{BetAmount: bet, Mode: string(mode)})
	if err != nil {
		r.logger.Printf("bet request failed: %v", err)
		return Result{}, &TransportError{Err: err}
	}

	payout := resp.TargetPayout.InexactFloat64()
	res := Result{
		Tier:         Classify(payout, bet),
		Multiplier:   payout / bet,
		Bet:          bet,
		TargetPayout: payout,
		ZeroPayout:   payout <= 0,
		Mode:         mode,
		Source:       SourceRemote,
		BetID:        resp.BetID,
	}
	if resp.Malformed {
		res.Absorbed = ErrMalformedResponse
		r.logger.Printf("bet %s: malformed payout, resolving as %s", resp.BetID, TierLose)
	}
	r.logger.Printf("resolved %s bet=%.2f tier=%s (authority %q) target=%.2f zero=%v", mode, bet, res.Tier, resp.Tier, res.TargetPayout, res.ZeroPayout)
	return res, nil
}
