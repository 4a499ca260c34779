package sim

import (
	"context"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// batchSize 취소 플래그 확인 주기 (트라이얼 단위)
const batchSize = 64

// Runner orchestrates N independent trials over a worker pool.
// 트라이얼은 (Config, seed)의 순수 함수이므로 read-only Config 외에
// 공유 가변 상태가 없다 — 결과는 인덱스로 기록되어 순서 결정적.
type Runner struct {
	workers    int
	onProgress func(done, total int)
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithWorkers sets the worker count (0 = GOMAXPROCS)
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) { r.workers = n }
}

// WithProgress registers a callback invoked between trial batches
// (websocket 진행률 스트림용)
// 콜백은 여러 워커 고루틴에서 동시에 불린다 — 콜백 내부 상태는
// atomic이나 채널로 보호할 것
func WithProgress(fn func(done, total int)) RunnerOption {
	return func(r *Runner) { r.onProgress = fn }
}

// NewRunner creates a new simulation runner
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes req.SimulationCount independent trials of
// months*tradingDaysPerMonth days each and returns the raw trial results.
//
// 결정성: req.Seed != 0이면 모든 child seed가 마스터 시드에서 유도되어
// 워커 수/스케줄링과 무관하게 결과가 바이트 단위로 재현된다.
// 취소: 배치 사이에서만 확인하고, 완료된 트라이얼만 담아
// StatusCancelled로 반환한다 — 에러가 아니다.
func (r *Runner) Run(ctx context.Context, cfg *Config, req Request) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	cfg = cfg.forMode(req.Mode)

	count := req.SimulationCount

	// Child seeds are pre-derived so trial i always sees the same stream.
	master := req.Seed
	if master == 0 {
		master = time.Now().UnixNano()
	}
	seedRng := rand.New(rand.NewSource(master))
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = seedRng.Int63()
	}

	workers := r.workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	type batch struct{ start, end int }
	numBatches := (count + batchSize - 1) / batchSize

	batches := make(chan batch)
	results := make([]TrialResult, count)
	completed := make([]bool, numBatches) // 배치당 단일 writer, wg.Wait가 동기화
	var doneTrials atomic.Int64

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range batches {
				for i := b.start; i < b.end; i++ {
					engine := NewTrialEngine(cfg, seeds[i], i < req.SampleCurves)
					results[i] = engine.Run(i, req.MonthsToTrade, req.TradingDaysPerMonth)
				}
				completed[b.start/batchSize] = true

				done := doneTrials.Add(int64(b.end - b.start))
				if r.onProgress != nil {
					r.onProgress(int(done), count)
				}
			}
		}()
	}

feed:
	for start := 0; start < count; start += batchSize {
		end := start + batchSize
		if end > count {
			end = count
		}
		select {
		case <-ctx.Done():
			break feed
		case batches <- batch{start, end}:
		}
	}
	close(batches)
	wg.Wait()

	if ctx.Err() != nil {
		// 완료된 배치만 인덱스 순으로 수집
		partial := make([]TrialResult, 0, doneTrials.Load())
		for bi := 0; bi < numBatches; bi++ {
			if !completed[bi] {
				continue
			}
			start := bi * batchSize
			end := start + batchSize
			if end > count {
				end = count
			}
			partial = append(partial, results[start:end]...)
		}
		return &Result{Trials: partial, Status: StatusCancelled, Seed: master}, nil
	}

	return &Result{Trials: results, Status: StatusCompleted, Seed: master}, nil
}

// validateRequest rejects malformed run requests before any trial starts
func validateRequest(req Request) error {
	if req.SimulationCount <= 0 {
		return ConfigurationError{"request.simulation_count", "must be > 0"}
	}
	if req.MonthsToTrade <= 0 {
		return ConfigurationError{"request.months_to_trade", "must be > 0"}
	}
	if req.TradingDaysPerMonth <= 0 {
		return ConfigurationError{"request.trading_days_per_month", "must be > 0"}
	}
	if req.SampleCurves < 0 {
		return ConfigurationError{"request.sample_curves", "must be >= 0"}
	}
	switch req.Mode {
	case ModeSimple, ModeAdvanced, "":
		// "" = advanced
	default:
		return ConfigurationError{"request.mode", "must be simple or advanced"}
	}
	return nil
}
