// Package wallet keeps the player's balance in exact decimal arithmetic.
package wallet

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	ErrInvalidAmount     = errors.New("wallet: amount must be positive")
)

// Wallet is an in-memory balance safe for concurrent use.
type Wallet struct {
	mu      sync.Mutex
	balance decimal.Decimal
	debited decimal.Decimal
	credits decimal.Decimal
}

// New returns a wallet holding start.
func New(start decimal.Decimal) *Wallet {
	if start.IsNegative() {
		start = decimal.Zero
	}
	return &Wallet{balance: start}
}

// NewFromFloat is New for a float starting balance.
func NewFromFloat(start float64) *Wallet {
	return New(decimal.NewFromFloat(start))
}

// Balance returns the current balance.
func (w *Wallet) Balance() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.balance
}

// Debit removes amount, refusing to go negative.
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.balance.LessThan(amount) {
		return fmt.Errorf("%w: balance %s, need %s", ErrInsufficientFunds, w.balance.StringFixed(2), amount.StringFixed(2))
	}
	w.balance = w.balance.Sub(amount)
	w.debited = w.debited.Add(amount)
	return nil
}

// Credit adds amount. Refunds and payouts both credit; non-positive amounts
// are ignored.
func (w *Wallet) Credit(amount decimal.Decimal) {
	if !amount.IsPositive() {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.balance = w.balance.Add(amount)
	w.credits = w.credits.Add(amount)
}

// Totals returns the running sums of debits and credits.
func (w *Wallet) Totals() (debited, credited decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.debited, w.credits
}
