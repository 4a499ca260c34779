package sim

import (
	"context"
	"reflect"
	"sync/atomic"
	"testing"
)

func testRequest() Request {
	return Request{
		SimulationCount:     500,
		MonthsToTrade:       3,
		TradingDaysPerMonth: 20,
		Mode:                ModeAdvanced,
		Seed:                12345,
	}
}

func TestRunReproducibleAcrossWorkerCounts(t *testing.T) {
	cfg := testConfig()
	req := testRequest()
	req.SampleCurves = 5

	// 같은 마스터 시드면 워커 수와 무관하게 바이트 단위 동일
	first, err := NewRunner(WithWorkers(1)).Run(context.Background(), cfg, req)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	second, err := NewRunner(WithWorkers(8)).Run(context.Background(), cfg, req)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("identical seed and request must reproduce identical results")
	}
	if first.Seed != req.Seed {
		t.Errorf("expected master seed %d echoed, got %d", req.Seed, first.Seed)
	}
	if first.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", first.Status)
	}
	if len(first.Trials) != req.SimulationCount {
		t.Errorf("expected %d trials, got %d", req.SimulationCount, len(first.Trials))
	}
}

func TestRunDifferentSeedsDiverge(t *testing.T) {
	cfg := testConfig()
	runner := NewRunner(WithWorkers(2))

	reqA := testRequest()
	reqB := testRequest()
	reqB.Seed = 54321

	a, err := runner.Run(context.Background(), cfg, reqA)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	b, err := runner.Run(context.Background(), cfg, reqB)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if reflect.DeepEqual(a.Trials, b.Trials) {
		t.Error("different master seeds should not produce identical trials")
	}
}

func TestRunZeroSeedPicksEntropy(t *testing.T) {
	cfg := testConfig()
	req := testRequest()
	req.Seed = 0
	req.SimulationCount = 10

	res, err := NewRunner().Run(context.Background(), cfg, req)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	// 실제 사용된 시드가 결과에 노출되어야 재현 가능
	if res.Seed == 0 {
		t.Error("expected actual master seed to be reported")
	}
}

func TestRunCancelledContextReturnsPartial(t *testing.T) {
	cfg := testConfig()
	req := testRequest()
	req.SimulationCount = 100_000

	ctx, cancel := context.WithCancel(context.Background())

	var once atomic.Bool
	runner := NewRunner(
		WithWorkers(2),
		WithProgress(func(done, total int) {
			if once.CompareAndSwap(false, true) {
				cancel()
			}
		}),
	)

	res, err := runner.Run(ctx, cfg, req)
	if err != nil {
		t.Fatalf("cancellation must not be an error: %v", err)
	}
	if res.Status != StatusCancelled {
		t.Errorf("expected cancelled, got %s", res.Status)
	}
	if len(res.Trials) == 0 || len(res.Trials) >= req.SimulationCount {
		t.Errorf("expected partial results, got %d of %d", len(res.Trials), req.SimulationCount)
	}
	// 포함된 트라이얼은 전부 완료된 것이어야 함
	for _, tr := range res.Trials {
		if tr.Days != req.MonthsToTrade*req.TradingDaysPerMonth {
			t.Errorf("trial %d incomplete: %d days", tr.Trial, tr.Days)
		}
	}
}

func TestRunSampleCurvesLimitsRecording(t *testing.T) {
	cfg := testConfig()
	req := testRequest()
	req.SimulationCount = 200
	req.SampleCurves = 3

	res, err := NewRunner(WithWorkers(4)).Run(context.Background(), cfg, req)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, tr := range res.Trials {
		hasCurve := tr.DailyPnL != nil
		if tr.Trial < req.SampleCurves && !hasCurve {
			t.Errorf("trial %d: expected recorded curve", tr.Trial)
		}
		if tr.Trial >= req.SampleCurves && hasCurve {
			t.Errorf("trial %d: unexpected recorded curve", tr.Trial)
		}
	}
}

func TestRunProgressReachesTotal(t *testing.T) {
	cfg := testConfig()
	req := testRequest()
	req.SimulationCount = 300

	var last atomic.Int64
	runner := NewRunner(
		WithWorkers(4),
		WithProgress(func(done, total int) {
			if done > int(last.Load()) {
				last.Store(int64(done))
			}
		}),
	)

	if _, err := runner.Run(context.Background(), cfg, req); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := int(last.Load()); got != req.SimulationCount {
		t.Errorf("expected final progress %d, got %d", req.SimulationCount, got)
	}
}

// 진행률 콜백은 워커 고루틴에서 동시에 불린다. CLI의 10% 단위 출력처럼
// 콜백 안에서 상태를 갱신하는 소비자는 CAS 패턴이면 race 없이 동작해야 한다.
// (go test -race에서 회귀를 잡는다)
func TestRunProgressDecileThrottleUnderManyWorkers(t *testing.T) {
	cfg := testConfig()
	req := testRequest()
	req.SimulationCount = 2000

	var lastDecile atomic.Int64
	lastDecile.Store(-1)
	var emitted atomic.Int64
	runner := NewRunner(
		WithWorkers(8),
		WithProgress(func(done, total int) {
			decile := int64(done * 100 / total / 10)
			for {
				prev := lastDecile.Load()
				if decile <= prev {
					return
				}
				if lastDecile.CompareAndSwap(prev, decile) {
					emitted.Add(1)
					return
				}
			}
		}),
	)

	if _, err := runner.Run(context.Background(), cfg, req); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if got := lastDecile.Load(); got != 10 {
		t.Errorf("expected final decile 10, got %d", got)
	}
	// 각 10% 구간은 최대 한 번만 출력된다
	if got := emitted.Load(); got < 1 || got > 11 {
		t.Errorf("expected between 1 and 11 emissions, got %d", got)
	}
}

func TestRunSimpleModeIgnoresAdvancedFeatures(t *testing.T) {
	cfg := testConfig()
	cfg.RecoverySteps = []RecoveryStep{{RiskCents: 2000}, {RiskCents: 4000}}
	cfg.StopAfterSequence = true
	cfg.ReinvestmentPercent = 50
	cfg.WeeklyLossLimitCents = 2000
	cfg.MonthlyLossLimitCents = 3000

	// simple 모드는 base risk + 일일 한도만 — 동일 플랜을 래더 없이 돌린 것과 일치
	stripped := *cfg
	stripped.RecoverySteps = nil
	stripped.StopAfterSequence = false
	stripped.ReinvestmentPercent = 0
	stripped.WeeklyLossLimitCents = 0
	stripped.MonthlyLossLimitCents = 0

	req := testRequest()
	req.SimulationCount = 50

	simpleReq := req
	simpleReq.Mode = ModeSimple

	runner := NewRunner(WithWorkers(2))

	simple, err := runner.Run(context.Background(), cfg, simpleReq)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	want, err := runner.Run(context.Background(), &stripped, req)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if !reflect.DeepEqual(simple.Trials, want.Trials) {
		t.Error("simple mode must behave as a ladder-free, limit-free plan")
	}
}

func TestRunRejectsMalformedRequests(t *testing.T) {
	cfg := testConfig()
	runner := NewRunner()

	cases := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero simulation count", func(r *Request) { r.SimulationCount = 0 }},
		{"negative months", func(r *Request) { r.MonthsToTrade = -1 }},
		{"zero trading days", func(r *Request) { r.TradingDaysPerMonth = 0 }},
		{"negative sample curves", func(r *Request) { r.SampleCurves = -1 }},
		{"unknown mode", func(r *Request) { r.Mode = "turbo" }},
	}

	for _, tc := range cases {
		req := testRequest()
		tc.mutate(&req)
		if _, err := runner.Run(context.Background(), cfg, req); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}
