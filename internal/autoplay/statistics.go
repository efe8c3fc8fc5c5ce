package autoplay

import (
	"math"

	"github.com/MJE43/freefall-wager/internal/round"
)

// Statistics tracks session-level autoplay results.
type Statistics struct {
	Bets     int     `json:"bets"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	Resets   int     `json:"resets"`
	Wagered  float64 `json:"wagered"`
	Paid     float64 `json:"paid"`
	Profit   float64 `json:"profit"`
	Balance  float64 `json:"balance"`
	StartBal float64 `json:"startBal"`

	WinStreak  int `json:"winStreak"`
	LoseStreak int `json:"loseStreak"`
	// Positive = win streak, negative = lose streak.
	CurrentStreak int `json:"currentStreak"`

	HighestStreak int     `json:"highestStreak"`
	LowestStreak  int     `json:"lowestStreak"`
	HighestBet    float64 `json:"highestBet"`
	BestPayout    float64 `json:"bestPayout"`
	HighestProfit float64 `json:"highestProfit"`
	LowestProfit  float64 `json:"lowestProfit"`
	CurrentProfit float64 `json:"currentProfit"`
}

// NewStatistics creates Statistics at a starting balance.
func NewStatistics(startBalance float64) *Statistics {
	return &Statistics{
		Balance:  startBalance,
		StartBal: startBalance,
	}
}

// IsWin reports whether a settled round returned more than its stake.
func IsWin(rec round.Record) bool {
	return rec.Payout > rec.Bet
}

// RecordRound folds a settled round into the statistics.
func (s *Statistics) RecordRound(rec round.Record) {
	s.Bets++

	profit := rec.Payout - rec.Bet
	s.CurrentProfit = profit
	s.Profit += profit
	s.Wagered += rec.Bet
	s.Paid += rec.Payout
	s.Balance += profit

	if rec.Reason == round.ReasonSoftStuck || rec.Reason == round.ReasonHardStuck {
		s.Resets++
	}

	if IsWin(rec) {
		s.Wins++
		s.WinStreak++
		s.LoseStreak = 0
		s.CurrentStreak = s.WinStreak
	} else {
		s.Losses++
		s.LoseStreak++
		s.WinStreak = 0
		s.CurrentStreak = -s.LoseStreak
	}

	if rec.Bet > s.HighestBet {
		s.HighestBet = rec.Bet
	}
	if rec.Payout > s.BestPayout {
		s.BestPayout = rec.Payout
	}
	if s.Profit > s.HighestProfit {
		s.HighestProfit = s.Profit
	}
	if s.Profit < s.LowestProfit {
		s.LowestProfit = s.Profit
	}
	if s.CurrentStreak > s.HighestStreak {
		s.HighestStreak = s.CurrentStreak
	}
	if s.CurrentStreak < s.LowestStreak {
		s.LowestStreak = s.CurrentStreak
	}
}

// RTP is paid over wagered.
func (s *Statistics) RTP() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return s.Paid / s.Wagered
}

// ProfitPercent returns profit as a percentage of the starting balance.
func (s *Statistics) ProfitPercent() float64 {
	if s.StartBal == 0 {
		return 0
	}
	return (s.Profit / math.Abs(s.StartBal)) * 100
}
