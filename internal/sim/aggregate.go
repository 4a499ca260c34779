package sim

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
)

// summaryPercentiles 리포트에 노출하는 터미널 equity 백분위수
var summaryPercentiles = []int{5, 25, 50, 75, 95}

// Aggregate reduces a run's trial results into stable statistics.
// n ≤ 10^6에서 full sort는 허용 비용 (O(n log n)).
//
// 빈 입력은 예외가 아니라 no_data 센티널 요약을 반환한다.
func Aggregate(res *Result, cfg *Config) *Summary {
	summary := &Summary{
		RunID:   uuid.New().String(),
		RunDate: time.Now(),
		Seed:    res.Seed,
		Config:  cfg,
	}

	if len(res.Trials) == 0 {
		summary.Status = StatusNoData
		summary.PercentileEquityCents = map[int]int64{}
		return summary
	}

	summary.Status = res.Status
	summary.TrialCount = len(res.Trials)
	summary.StartingBalanceCents = cfg.StartingBalanceCents

	equities := make([]float64, len(res.Trials))
	drawdowns := make([]float64, len(res.Trials))

	var equitySum, pnlSum, tradeSum int64
	ruined := 0

	for i, tr := range res.Trials {
		equities[i] = float64(tr.TerminalEquityCents)
		drawdowns[i] = float64(tr.MaxDrawdownCents)

		equitySum += tr.TerminalEquityCents
		pnlSum += tr.TerminalEquityCents - cfg.StartingBalanceCents
		tradeSum += int64(tr.Trades)

		if tr.TerminalEquityCents < cfg.StartingBalanceCents {
			ruined++
		}
	}

	sort.Float64s(equities)
	sort.Float64s(drawdowns)

	summary.PercentileEquityCents = make(map[int]int64, len(summaryPercentiles))
	for _, p := range summaryPercentiles {
		summary.PercentileEquityCents[p] = int64(math.Round(percentile(equities, float64(p))))
	}

	summary.MeanTerminalEquityCents = equitySum / int64(len(res.Trials))
	summary.RuinProbability = float64(ruined) / float64(len(res.Trials))
	summary.MeanMaxDrawdownCents = int64(math.Round(mean(drawdowns)))
	summary.MedianMaxDrawdownCents = int64(math.Round(percentile(drawdowns, 50)))

	summary.TotalTrades = tradeSum
	if tradeSum > 0 {
		summary.ImpliedExpectancyCents = float64(pnlSum) / float64(tradeSum)
	}

	return summary
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

// percentile 백분위수 계산 (선형 보간, 입력은 오름차순 정렬 전제)
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	// 선형 보간
	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// mean 평균 계산
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
