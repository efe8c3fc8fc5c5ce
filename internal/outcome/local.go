package outcome

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/MJE43/freefall-wager/internal/engine"
)

// Draw selects the first tier whose cumulative mass exceeds r. When rounding
// leaves r uncovered it returns the table's fallback tier together with
// ErrTableExhausted.
func Draw(t Table, r float64) (Tier, error) {
	var cumulative float64
	for _, tier := range t {
		cumulative += tier.Probability
		if r < cumulative {
			return tier, nil
		}
	}
	return t.Fallback(), ErrTableExhausted
}

// FromTier builds the result of a local draw.
func FromTier(tier Tier, bet float64, mode Mode) Result {
	target := bet * tier.Multiplier
	return Result{
		Tier:         tier.Name,
		Multiplier:   tier.Multiplier,
		Bet:          bet,
		TargetPayout: target,
		ZeroPayout:   target <= 0,
		Mode:         mode,
		Source:       SourceLocal,
	}
}

// LocalResolver samples the configured tables.
type LocalResolver struct {
	mu     sync.Mutex
	tables map[Mode]Table
	src    engine.Source
	logger *log.Logger
}

// NewLocalResolver creates a resolver over tables. A nil src uses a
// time-independent PCG seeded with 1; pass engine.NewRandSource for variety.
func NewLocalResolver(tables map[Mode]Table, src engine.Source, logger *log.Logger) *LocalResolver {
	if tables == nil {
		tables = DefaultTables()
	}
	if src == nil {
		src = engine.NewRandSource(1)
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[OUTCOME] ", log.LstdFlags)
	}
	return &LocalResolver{tables: tables, src: src, logger: logger}
}

// Table returns the table for mode.
func (l *LocalResolver) Table(mode Mode) (Table, bool) {
	t, ok := l.tables[mode]
	return t, ok
}

// Resolve draws one uniform value and maps it through the mode's table.
func (l *LocalResolver) Resolve(_ context.Context, bet float64, mode Mode) (Result, error) {
	if err := validateBet(bet); err != nil {
		return Result{}, err
	}
	table, ok := l.tables[mode]
	if !ok {
		return Result{}, fmt.Errorf("outcome: no table for mode %q", mode)
	}

	l.mu.Lock()
	r := l.src.Float64()
	l.mu.Unlock()

	tier, err := Draw(table, r)
	res := FromTier(tier, bet, mode)
	if err != nil {
		res.Absorbed = err
		res.TargetPayout = 0
		res.ZeroPayout = true
		l.logger.Printf("draw %.6f not covered by %s table, resolving as %s", r, mode, tier.Name)
	}
	l.logger.Printf("resolved %s bet=%.2f tier=%s target=%.2f zero=%v", mode, bet, res.Tier, res.TargetPayout, res.ZeroPayout)
	return res, nil
}
