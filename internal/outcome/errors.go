package outcome

import (
	"errors"
	"fmt"
)

// Absorbed conditions. They never escape Resolve; a result that absorbed one
// carries it in Result.Absorbed and resolves to a zero payout.
var (
	ErrTableExhausted    = errors.New("outcome: probability mass did not cover the draw")
	ErrMalformedResponse = errors.New("outcome: authority response has no numeric payout")
)

// ConnectivityError means the authority health check failed or timed out.
// No stake has been taken when this is returned.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("outcome: authority unreachable: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// TransportError means the bet request failed after the stake was debited.
// The caller must refund.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("outcome: bet request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsConnectivity reports whether err is a ConnectivityError.
func IsConnectivity(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
