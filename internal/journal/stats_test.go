package journal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func tradeAt(day int, pnl int64) *Trade {
	return &Trade{
		PnLCents:  pnl,
		FeesCents: 10,
		ClosedAt:  time.Date(2026, 2, day, 15, 0, 0, 0, time.UTC),
	}
}

func TestComputeEmptyJournal(t *testing.T) {
	s := Compute(nil)
	assert.Zero(t, s.TradeCount)
	assert.Zero(t, s.WinRatePercent)
	assert.Zero(t, s.MaxDrawdownCents)
}

func TestComputeKnownJournal(t *testing.T) {
	trades := []*Trade{
		tradeAt(2, 2000),
		tradeAt(2, -1000),
		tradeAt(3, 4000),
		tradeAt(4, -3000),
		tradeAt(5, 0),
	}

	s := Compute(trades)

	assert.Equal(t, 5, s.TradeCount)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 2, s.Losses)
	assert.Equal(t, 1, s.Breakevens)
	assert.Equal(t, float64(40), s.WinRatePercent)
	assert.Equal(t, float64(20), s.BreakevenRatePercent)

	assert.Equal(t, int64(2000), s.TotalPnLCents)
	assert.Equal(t, int64(50), s.TotalFeesCents)
	assert.Equal(t, int64(3000), s.AvgWinCents)
	assert.Equal(t, int64(2000), s.AvgLossCents)
	assert.Equal(t, 1.5, s.AvgRewardRiskRatio)
	assert.Equal(t, 1.5, s.ProfitFactor)
	assert.Equal(t, float64(400), s.ExpectancyCents)
	assert.Equal(t, int64(4000), s.LargestWinCents)
	assert.Equal(t, int64(3000), s.LargestLossCents)

	// 누적 곡선: 2000, 1000, 5000, 2000, 2000 → peak 5000, trough 2000
	assert.Equal(t, int64(3000), s.MaxDrawdownCents)

	// 일별: day2=1000, day3=4000, day4=-3000, day5=0
	assert.Equal(t, 4, s.ActiveDays)
	assert.Equal(t, int64(4000), s.BestDayCents)
	assert.Equal(t, int64(-3000), s.WorstDayCents)
	assert.Equal(t, 1.25, s.AvgTradesDay)
}

func TestComputeSortsTradesBeforeDrawdown(t *testing.T) {
	// 입력 순서와 무관하게 closed_at 순으로 누적 곡선 계산
	shuffled := []*Trade{
		tradeAt(4, -3000),
		tradeAt(2, 2000),
		tradeAt(5, 0),
		tradeAt(3, 4000),
		tradeAt(2, -1000),
	}

	s := Compute(shuffled)
	assert.Equal(t, int64(3000), s.MaxDrawdownCents)
}

func TestComputeAllWinsHasNoLossDerivedStats(t *testing.T) {
	s := Compute([]*Trade{tradeAt(2, 1000), tradeAt(3, 2000)})

	assert.Zero(t, s.AvgRewardRiskRatio)
	assert.Zero(t, s.ProfitFactor)
	assert.Zero(t, s.MaxDrawdownCents)
}

func TestTradeRMultiple(t *testing.T) {
	assert.Equal(t, float64(3), (&Trade{PnLCents: 3000, RiskCents: 1000}).RMultiple())

	// 계획 리스크 미기록이면 0
	assert.Zero(t, (&Trade{PnLCents: 3000}).RMultiple())
}
