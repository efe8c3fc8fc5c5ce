package autoplay

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/MJE43/freefall-wager/internal/outcome"
)

// Variables is the state shared with the strategy. Only nextbet, basebet
// and mode are read back after dobet().
type Variables struct {
	Balance     float64
	NextBet     float64
	BaseBet     float64
	PreviousBet float64
	Mode        outcome.Mode
	Win         bool
	LastPayout  float64
	LastTier    string
	LastReason  string
	Running     bool

	Stats *Statistics
}

// NewVariables starts a session at baseBet in mode.
func NewVariables(stats *Statistics, baseBet float64, mode outcome.Mode) *Variables {
	return &Variables{
		Balance: stats.Balance,
		NextBet: baseBet,
		BaseBet: baseBet,
		Mode:    mode,
		Stats:   stats,
	}
}

// next validates the stake and mode the next round will use.
func (v *Variables) next() (float64, outcome.Mode, error) {
	mode, err := outcome.ParseMode(string(v.Mode))
	if err != nil {
		return 0, "", err
	}
	if v.NextBet <= 0 {
		return 0, "", fmt.Errorf("nextbet must be > 0, got %f", v.NextBet)
	}
	return v.NextBet, mode, nil
}

func injectConstants(vm *goja.Runtime) {
	vm.Set("MODE_BASE", string(outcome.ModeBase))
	vm.Set("MODE_NOZERO", string(outcome.ModeNoZero))
	vm.Set("MODE_CHAOS", string(outcome.ModeChaos))
}

func injectVariables(vm *goja.Runtime, vars *Variables) {
	vm.Set("balance", vars.Balance)
	vm.Set("nextbet", vars.NextBet)
	vm.Set("basebet", vars.BaseBet)
	vm.Set("previousbet", vars.PreviousBet)
	vm.Set("mode", string(vars.Mode))
	vm.Set("win", vars.Win)
	vm.Set("lastpayout", vars.LastPayout)
	vm.Set("lasttier", vars.LastTier)
	vm.Set("lastreason", vars.LastReason)
	vm.Set("running", vars.Running)

	s := vars.Stats
	vm.Set("bets", s.Bets)
	vm.Set("wins", s.Wins)
	vm.Set("losses", s.Losses)
	vm.Set("resets", s.Resets)
	vm.Set("profit", s.Profit)
	vm.Set("wagered", s.Wagered)
	vm.Set("currentprofit", s.CurrentProfit)
	vm.Set("winstreak", s.WinStreak)
	vm.Set("losestreak", s.LoseStreak)
	vm.Set("currentstreak", s.CurrentStreak)
	vm.Set("started_bal", s.StartBal)
}

func syncFromVM(vm *goja.Runtime, vars *Variables) {
	vars.NextBet = toFloat64(vm.Get("nextbet"))
	vars.BaseBet = toFloat64(vm.Get("basebet"))
	if m := toString(vm.Get("mode")); m != "" {
		vars.Mode = outcome.Mode(m)
	}
}

func toFloat64(v goja.Value) float64 {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	return v.ToFloat()
}

func toString(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
