package autoplay

import (
	"math"
	"testing"

	"github.com/MJE43/freefall-wager/internal/round"
)

func TestStatisticsStreaksAndPeaks(t *testing.T) {
	s := NewStatistics(100)
	rounds := []round.Record{
		{Bet: 10, Payout: 0, Reason: round.ReasonZeroPayout},
		{Bet: 10, Payout: 4, Reason: round.ReasonSoftStuck},
		{Bet: 20, Payout: 60, Reason: round.ReasonLanded},
		{Bet: 10, Payout: 25, Reason: round.ReasonLanded},
	}
	for _, r := range rounds {
		s.RecordRound(r)
	}

	if s.Bets != 4 || s.Wins != 2 || s.Losses != 2 || s.Resets != 1 {
		t.Errorf("counts %+v", s)
	}
	if s.Profit != 39 || s.Balance != 139 || s.Wagered != 50 || s.Paid != 89 {
		t.Errorf("money %+v", s)
	}
	if s.CurrentStreak != 2 || s.HighestStreak != 2 || s.LowestStreak != -2 {
		t.Errorf("streaks %+v", s)
	}
	if s.HighestBet != 20 || s.BestPayout != 60 || s.LowestProfit != -16 || s.HighestProfit != 39 {
		t.Errorf("peaks %+v", s)
	}
	if p := s.ProfitPercent(); math.Abs(p-39) > 1e-9 {
		t.Errorf("profit percent %v", p)
	}
	if rtp := s.RTP(); rtp != 89.0/50.0 {
		t.Errorf("rtp %v", rtp)
	}
}

func TestWinMeansPayoutAboveStake(t *testing.T) {
	tests := []struct {
		bet, payout float64
		want        bool
	}{
		{10, 0, false},
		{10, 10, false},
		{10, 10.01, true},
	}
	for _, tt := range tests {
		if got := IsWin(round.Record{Bet: tt.bet, Payout: tt.payout}); got != tt.want {
			t.Errorf("IsWin(%v/%v) = %v", tt.payout, tt.bet, got)
		}
	}
}
