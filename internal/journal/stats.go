package journal

import (
	"sort"
	"time"
)

// Stats are the dashboard aggregates for a set of closed trades.
// WinRatePercent/BreakevenRatePercent/AvgRewardRiskRatio는 시뮬레이션
// 오버라이드의 기본값으로 쓰인다 — "내 실제 성적으로 돌려보기"
type Stats struct {
	TradeCount int `json:"trade_count"`
	Wins       int `json:"wins"`
	Losses     int `json:"losses"`
	Breakevens int `json:"breakevens"`

	WinRatePercent       float64 `json:"win_rate_percent"`
	BreakevenRatePercent float64 `json:"breakeven_rate_percent"`

	TotalPnLCents    int64 `json:"total_pnl_cents"`
	TotalFeesCents   int64 `json:"total_fees_cents"`
	AvgWinCents      int64 `json:"avg_win_cents"`
	AvgLossCents     int64 `json:"avg_loss_cents"` // 양수 크기
	LargestWinCents  int64 `json:"largest_win_cents"`
	LargestLossCents int64 `json:"largest_loss_cents"` // 양수 크기

	// AvgRewardRiskRatio 평균 승리 / 평균 손실 — 손실이 없으면 0
	AvgRewardRiskRatio float64 `json:"avg_reward_risk_ratio"`
	ProfitFactor       float64 `json:"profit_factor"` // 총이익/총손실, 손실 없으면 0
	ExpectancyCents    float64 `json:"expectancy_cents"`

	// MaxDrawdownCents 마감 시각순 누적 PnL 곡선의 peak-to-trough
	MaxDrawdownCents int64 `json:"max_drawdown_cents"`

	BestDayCents  int64   `json:"best_day_cents"`
	WorstDayCents int64   `json:"worst_day_cents"`
	ActiveDays    int     `json:"active_days"`
	AvgTradesDay  float64 `json:"avg_trades_per_day"`
}

// Compute aggregates closed trades into dashboard statistics.
// 빈 입력은 zero-value Stats — 프론트엔드가 "no data"로 렌더링
func Compute(trades []*Trade) Stats {
	var s Stats
	if len(trades) == 0 {
		return s
	}

	sorted := make([]*Trade, len(trades))
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ClosedAt.Before(sorted[j].ClosedAt)
	})

	var winSum, lossSum int64
	var cumulative, peak, maxDrawdown int64
	dayPnL := make(map[string]int64)

	for _, t := range sorted {
		s.TradeCount++
		s.TotalPnLCents += t.PnLCents
		s.TotalFeesCents += t.FeesCents

		switch {
		case t.PnLCents > 0:
			s.Wins++
			winSum += t.PnLCents
			if t.PnLCents > s.LargestWinCents {
				s.LargestWinCents = t.PnLCents
			}
		case t.PnLCents < 0:
			s.Losses++
			lossSum += -t.PnLCents
			if -t.PnLCents > s.LargestLossCents {
				s.LargestLossCents = -t.PnLCents
			}
		default:
			s.Breakevens++
		}

		cumulative += t.PnLCents
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}

		dayPnL[t.ClosedAt.Format(time.DateOnly)] += t.PnLCents
	}

	n := float64(s.TradeCount)
	s.WinRatePercent = float64(s.Wins) / n * 100
	s.BreakevenRatePercent = float64(s.Breakevens) / n * 100
	s.ExpectancyCents = float64(s.TotalPnLCents) / n
	s.MaxDrawdownCents = maxDrawdown

	if s.Wins > 0 {
		s.AvgWinCents = winSum / int64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLossCents = lossSum / int64(s.Losses)
		if s.AvgWinCents > 0 {
			s.AvgRewardRiskRatio = float64(s.AvgWinCents) / float64(s.AvgLossCents)
		}
		s.ProfitFactor = float64(winSum) / float64(lossSum)
	}

	s.ActiveDays = len(dayPnL)
	s.AvgTradesDay = n / float64(s.ActiveDays)

	first := true
	for _, pnl := range dayPnL {
		if first {
			s.BestDayCents, s.WorstDayCents = pnl, pnl
			first = false
			continue
		}
		if pnl > s.BestDayCents {
			s.BestDayCents = pnl
		}
		if pnl < s.WorstDayCents {
			s.WorstDayCents = pnl
		}
	}

	return s
}
