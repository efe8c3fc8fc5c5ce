package outcome

import (
	"fmt"
	"math"
	"strings"
)

// Mode selects the tier table, world profile and entry stake of a round.
type Mode string

const (
	ModeBase   Mode = "base"
	ModeNoZero Mode = "noZero"
	ModeChaos  Mode = "chaos"
)

// Modes lists every supported mode in display order.
var Modes = []Mode{ModeBase, ModeNoZero, ModeChaos}

// ParseMode accepts the wire names case-insensitively ("nozero" works too).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "base":
		return ModeBase, nil
	case "nozero", "no-zero", "no_zero":
		return ModeNoZero, nil
	case "chaos", "bonus":
		return ModeChaos, nil
	}
	return "", fmt.Errorf("outcome: unknown mode %q", s)
}

// Tier names.
const (
	TierInsane = "insane"
	TierBig    = "big"
	TierMedium = "medium"
	TierSmall  = "small"
	TierTiny   = "tiny"
	TierLose   = "lose"
)

// Tier is one row of a probability table.
type Tier struct {
	Name        string  `json:"name" yaml:"name"`
	Multiplier  float64 `json:"multiplier" yaml:"multiplier"`
	Probability float64 `json:"probability" yaml:"probability"`
}

// Table is ordered rarest to most common so cumulative sampling walks the
// small masses first.
type Table []Tier

// SumTolerance is how far a table's total mass may drift from 1.
const SumTolerance = 1e-6

// Sum returns the total probability mass.
func (t Table) Sum() float64 {
	var s float64
	for _, tier := range t {
		s += tier.Probability
	}
	return s
}

// RTP returns the expected payout per unit staked.
func (t Table) RTP() float64 {
	var s float64
	for _, tier := range t {
		s += tier.Multiplier * tier.Probability
	}
	return s
}

// Validate checks the table is non-empty, well formed and sums to 1.
func (t Table) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("outcome: empty table")
	}
	seen := make(map[string]bool, len(t))
	for i, tier := range t {
		if tier.Name == "" {
			return fmt.Errorf("outcome: tier %d has no name", i)
		}
		if seen[tier.Name] {
			return fmt.Errorf("outcome: duplicate tier %q", tier.Name)
		}
		seen[tier.Name] = true
		if tier.Multiplier < 0 || math.IsNaN(tier.Multiplier) {
			return fmt.Errorf("outcome: tier %q has invalid multiplier %v", tier.Name, tier.Multiplier)
		}
		if tier.Probability < 0 || tier.Probability > 1 || math.IsNaN(tier.Probability) {
			return fmt.Errorf("outcome: tier %q has invalid probability %v", tier.Name, tier.Probability)
		}
	}
	if sum := t.Sum(); math.Abs(sum-1) > SumTolerance {
		return fmt.Errorf("outcome: probabilities sum to %.9f, want 1", sum)
	}
	return nil
}

// Fallback is the tier used when a draw falls past the table's mass: the
// table's zero-multiplier tier, or a bare lose tier for tables without one.
func (t Table) Fallback() Tier {
	for _, tier := range t {
		if tier.Multiplier == 0 {
			return tier
		}
	}
	return Tier{Name: TierLose}
}

// Clone returns a copy safe to mutate.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	copy(out, t)
	return out
}

// DefaultTables returns the built-in tables for every mode.
func DefaultTables() map[Mode]Table {
	return map[Mode]Table{
		ModeBase: {
			{Name: TierInsane, Multiplier: 100, Probability: 0.0002},
			{Name: TierBig, Multiplier: 20, Probability: 0.005},
			{Name: TierMedium, Multiplier: 6, Probability: 0.04},
			{Name: TierSmall, Multiplier: 2, Probability: 0.30},
			{Name: TierLose, Multiplier: 0, Probability: 0.6548},
		},
		ModeChaos: {
			{Name: TierInsane, Multiplier: 100, Probability: 0.0005},
			{Name: TierBig, Multiplier: 20, Probability: 0.01},
			{Name: TierMedium, Multiplier: 6, Probability: 0.05},
			{Name: TierSmall, Multiplier: 2, Probability: 0.205},
			{Name: TierLose, Multiplier: 0, Probability: 0.7345},
		},
		ModeNoZero: {
			{Name: TierInsane, Multiplier: 100, Probability: 0.0005},
			{Name: TierBig, Multiplier: 20, Probability: 0.01},
			{Name: TierMedium, Multiplier: 6, Probability: 0.05},
			{Name: TierSmall, Multiplier: 2, Probability: 0.20},
			{Name: TierTiny, Multiplier: 1, Probability: 0.7395},
		},
	}
}
