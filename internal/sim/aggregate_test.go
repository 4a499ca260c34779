package sim

import (
	"context"
	"math"
	"testing"
)

func TestAggregateEmptyRunIsNoData(t *testing.T) {
	cfg := testConfig()
	res := &Result{Trials: nil, Status: StatusCompleted, Seed: 7}

	summary := Aggregate(res, cfg)

	if summary.Status != StatusNoData {
		t.Errorf("expected no_data, got %s", summary.Status)
	}
	if summary.RunID == "" {
		t.Error("expected run id even for empty run")
	}
	if summary.Seed != 7 {
		t.Errorf("expected seed 7, got %d", summary.Seed)
	}
	if summary.TrialCount != 0 || summary.RuinProbability != 0 {
		t.Error("sentinel summary must carry zero statistics")
	}
	if summary.PercentileEquityCents == nil {
		t.Error("expected empty percentile map, not nil")
	}
}

func TestAggregateKnownDistribution(t *testing.T) {
	cfg := testConfig() // starting balance 100_000
	equities := []int64{90_000, 100_000, 110_000, 120_000, 130_000}
	drawdowns := []int64{0, 1000, 2000, 3000, 4000}

	res := &Result{Status: StatusCompleted, Seed: 1}
	for i := range equities {
		res.Trials = append(res.Trials, TrialResult{
			Trial:               i,
			TerminalEquityCents: equities[i],
			MaxDrawdownCents:    drawdowns[i],
			Trades:              10,
		})
	}

	s := Aggregate(res, cfg)

	if s.TrialCount != 5 {
		t.Fatalf("expected 5 trials, got %d", s.TrialCount)
	}

	// n=5 선형 보간: p5 → idx 0.2 → 90000 + 0.2*10000
	wantPercentiles := map[int]int64{
		5:  92_000,
		25: 100_000,
		50: 110_000,
		75: 120_000,
		95: 128_000,
	}
	for p, want := range wantPercentiles {
		if got := s.PercentileEquityCents[p]; got != want {
			t.Errorf("p%d: expected %d, got %d", p, want, got)
		}
	}

	if s.MeanTerminalEquityCents != 110_000 {
		t.Errorf("expected mean 110000, got %d", s.MeanTerminalEquityCents)
	}
	// 90000 한 건만 starting 미만
	if s.RuinProbability != 0.2 {
		t.Errorf("expected ruin 0.2, got %f", s.RuinProbability)
	}
	if s.MeanMaxDrawdownCents != 2000 {
		t.Errorf("expected mean drawdown 2000, got %d", s.MeanMaxDrawdownCents)
	}
	if s.MedianMaxDrawdownCents != 2000 {
		t.Errorf("expected median drawdown 2000, got %d", s.MedianMaxDrawdownCents)
	}

	// PnL 합 50000 / 트레이드 합 50
	if s.TotalTrades != 50 {
		t.Errorf("expected 50 total trades, got %d", s.TotalTrades)
	}
	if s.ImpliedExpectancyCents != 1000 {
		t.Errorf("expected expectancy 1000, got %f", s.ImpliedExpectancyCents)
	}
}

func TestAggregateSingleTrial(t *testing.T) {
	cfg := testConfig()
	res := &Result{
		Trials: []TrialResult{{TerminalEquityCents: 105_000, MaxDrawdownCents: 500, Trades: 20}},
		Status: StatusCompleted,
	}

	s := Aggregate(res, cfg)

	// 단일 값이면 모든 백분위수가 그 값
	for _, p := range summaryPercentiles {
		if s.PercentileEquityCents[p] != 105_000 {
			t.Errorf("p%d: expected 105000, got %d", p, s.PercentileEquityCents[p])
		}
	}
	if s.RuinProbability != 0 {
		t.Errorf("expected ruin 0, got %f", s.RuinProbability)
	}
}

func TestAggregatePreservesCancelledStatus(t *testing.T) {
	cfg := testConfig()
	res := &Result{
		Trials: []TrialResult{{TerminalEquityCents: 99_000, Trades: 5}},
		Status: StatusCancelled,
	}

	s := Aggregate(res, cfg)
	if s.Status != StatusCancelled {
		t.Errorf("partial run must stay cancelled, got %s", s.Status)
	}
}

func TestAggregateFullPipelineAllWinsHasZeroRuin(t *testing.T) {
	cfg := testConfig()
	cfg.WinRate = 100

	req := testRequest()
	req.SimulationCount = 200
	req.MonthsToTrade = 1

	res, err := NewRunner(WithWorkers(4)).Run(context.Background(), cfg, req)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	s := Aggregate(res, cfg)
	if s.RuinProbability != 0 {
		t.Errorf("all wins: expected ruin exactly 0, got %f", s.RuinProbability)
	}
	if s.PercentileEquityCents[5] <= cfg.StartingBalanceCents {
		t.Errorf("all wins: p5 %d should exceed starting balance", s.PercentileEquityCents[5])
	}
	if s.ImpliedExpectancyCents <= 0 {
		t.Errorf("all wins: expectancy should be positive, got %f", s.ImpliedExpectancyCents)
	}
}

func TestAggregateConvergesAcrossTrialCounts(t *testing.T) {
	if testing.Short() {
		t.Skip("convergence check")
	}

	cfg := testConfig()
	runner := NewRunner()

	run := func(n int) *Summary {
		req := testRequest()
		req.SimulationCount = n
		res, err := runner.Run(context.Background(), cfg, req)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		return Aggregate(res, cfg)
	}

	small := run(1_000)
	large := run(100_000)

	// 분포 폭(p95-p5)은 트라이얼 수가 늘어도 같은 자리수에 수렴해야 한다
	widthSmall := float64(small.PercentileEquityCents[95] - small.PercentileEquityCents[5])
	widthLarge := float64(large.PercentileEquityCents[95] - large.PercentileEquityCents[5])
	if widthLarge <= 0 {
		t.Fatal("expected non-degenerate distribution")
	}
	if rel := math.Abs(widthSmall-widthLarge) / widthLarge; rel > 0.5 {
		t.Errorf("percentile width diverged: %f vs %f (rel %f)", widthSmall, widthLarge, rel)
	}

	meanSmall := float64(small.MeanTerminalEquityCents)
	meanLarge := float64(large.MeanTerminalEquityCents)
	if rel := math.Abs(meanSmall-meanLarge) / meanLarge; rel > 0.05 {
		t.Errorf("mean terminal equity diverged: %f vs %f", meanSmall, meanLarge)
	}
}
