package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// tradingDaysPerWeek 주간 손실 한도의 기간 경계
const tradingDaysPerWeek = 5

// TrialEngine simulates one full trial (a sequence of trading days)
// against a compiled Config. (Config, seed)의 순수 함수 — 공유 상태 없음.
type TrialEngine struct {
	cfg         *Config
	seed        int64
	rng         *rand.Rand
	recordCurve bool
}

// NewTrialEngine creates an engine for a single trial
func NewTrialEngine(cfg *Config, seed int64, recordCurve bool) *TrialEngine {
	return &TrialEngine{
		cfg:         cfg,
		seed:        seed,
		rng:         rand.New(rand.NewSource(seed)),
		recordCurve: recordCurve,
	}
}

// Run simulates months*tradingDaysPerMonth days and returns the trial result.
//
// 주간/월간 누적 PnL이 한도를 넘으면 해당 기간의 남은 날은 트레이딩 없이
// period_halted로 기록된다 — 일일 상태 머신과 구분되는 기간 레벨 종료.
func (e *TrialEngine) Run(trial int, months, tradingDaysPerMonth int) TrialResult {
	cfg := e.cfg
	totalDays := months * tradingDaysPerMonth

	equity := cfg.StartingBalanceCents
	peak := equity
	var maxDrawdown int64

	var weekPnL, monthPnL int64
	weekHalted, monthHalted := false, false

	totalTrades := 0

	var dailyPnL []int64
	var reasons []DayEndReason
	if e.recordCurve {
		dailyPnL = make([]int64, 0, totalDays)
		reasons = make([]DayEndReason, 0, totalDays)
	}

	for day := 0; day < totalDays; day++ {
		// 기간 경계에서 누적치와 halt 해제
		if day%tradingDaysPerWeek == 0 {
			weekPnL = 0
			weekHalted = false
		}
		if day%tradingDaysPerMonth == 0 {
			monthPnL = 0
			monthHalted = false
		}

		var dayPnL int64
		var reason DayEndReason
		if weekHalted || monthHalted {
			reason = DayPeriodHalted
		} else {
			var trades int
			dayPnL, trades, reason = e.runDay()
			totalTrades += trades
		}

		equity += dayPnL
		weekPnL += dayPnL
		monthPnL += dayPnL

		if cfg.WeeklyLossLimitCents > 0 && weekPnL <= -cfg.WeeklyLossLimitCents {
			weekHalted = true
		}
		if cfg.MonthlyLossLimitCents > 0 && monthPnL <= -cfg.MonthlyLossLimitCents {
			monthHalted = true
		}

		if equity > peak {
			peak = equity
		}
		if dd := peak - equity; dd > maxDrawdown {
			maxDrawdown = dd
		}

		if e.recordCurve {
			dailyPnL = append(dailyPnL, dayPnL)
			reasons = append(reasons, reason)
		}
	}

	return TrialResult{
		Trial:               trial,
		Seed:                e.seed,
		TerminalEquityCents: equity,
		MaxDrawdownCents:    maxDrawdown,
		Days:                totalDays,
		Trades:              totalTrades,
		DailyPnL:            dailyPnL,
		DayEndReasons:       reasons,
	}
}

// runDay executes one trading day through the daily state machine and
// returns its PnL, trade count and terminal reason.
func (e *TrialEngine) runDay() (int64, int, DayEndReason) {
	d := newDayState(e.cfg)

	for t := 0; t < e.cfg.TradesPerDay; t++ {
		outcome := DrawOutcome(e.cfg.WinRate, e.cfg.BreakevenRate, e.rng)
		d.applyTrade(outcome)

		if breached := d.checkStops(); breached != "" {
			if d.firstBreach == "" {
				d.firstBreach = breached
			}
			// execute_all_regardless: 한도는 기록만 하고 계속 실행
			if !e.cfg.ExecuteAllRegardless {
				return d.pnl, d.trades, breached
			}
		}
	}

	if d.firstBreach != "" {
		return d.pnl, d.trades, d.firstBreach
	}
	return d.pnl, d.trades, DayExhausted
}

// =============================================================================
// Daily state machine
//
// 상태 전이와 스톱 판정을 한 곳에 고정:
//   applyTrade  — PnL 반영, 연속 손실 카운터, 다음 트레이드 리스크 선택
//   checkStops  — 고정 우선순위: 연속 손실 → 일일 손실 한도 → 일일 목표
// 플래그 상호작용(execute_all_regardless / stop_after_sequence /
// stop_on_first_loss)은 전부 이 머신 안에서만 해석된다.
// =============================================================================

type dayState struct {
	cfg *Config

	pnl    int64
	trades int

	consecLosses int
	lossSeen     bool // stop_on_first_loss: 당일 첫 손실 후 컴파운딩 영구 비활성

	cursor        int   // -1 = 래더 밖 (base risk)
	riskCents     int64 // 다음 트레이드 리스크
	sequenceSpent bool  // stop_after_sequence && 래더 소진

	firstBreach DayEndReason // execute_all_regardless에서의 보고용
}

func newDayState(cfg *Config) *dayState {
	return &dayState{
		cfg:       cfg,
		cursor:    -1,
		riskCents: cfg.BaseRiskCents,
	}
}

// applyTrade applies one outcome: PnL, counters, then next-trade risk.
func (d *dayState) applyTrade(outcome Outcome) {
	if d.riskCents <= 0 {
		// 컴파일러가 보장하는 불변식 — 깨졌다면 클램프가 아니라 중단
		panic(fmt.Sprintf("sim: non-positive risk %d cents", d.riskCents))
	}

	cfg := d.cfg
	d.trades++

	switch outcome {
	case OutcomeWin:
		reward := int64(math.Round(float64(d.riskCents) * cfg.RewardRiskRatio))
		d.pnl += reward - cfg.CommissionCents
		d.consecLosses = 0
		d.selectRiskAfterWin()

	case OutcomeLoss:
		d.pnl += -d.riskCents - cfg.CommissionCents
		d.consecLosses++
		d.lossSeen = true
		d.selectRiskAfterLoss()

	case OutcomeBreakeven:
		// 수수료만 차감, 리스크와 카운터는 그대로
		d.pnl += -cfg.CommissionCents
	}
}

// selectRiskAfterWin resets to base risk, then applies compounding.
// stop_on_first_loss가 켜진 날에 손실이 이미 있었다면 그날의 컴파운딩은
// 영구히 꺼진다 — 이후 승리에도 복원되지 않는다.
func (d *dayState) selectRiskAfterWin() {
	cfg := d.cfg

	d.cursor = -1
	d.riskCents = cfg.BaseRiskCents

	if cfg.ReinvestmentPercent <= 0 {
		return
	}
	if cfg.StopOnFirstLoss && d.lossSeen {
		return
	}

	dayProfit := d.pnl
	if dayProfit < 0 {
		dayProfit = 0
	}
	bonus := int64(math.Round(cfg.ReinvestmentPercent / 100 * float64(dayProfit)))
	d.riskCents = cfg.BaseRiskCents + bonus
}

// selectRiskAfterLoss advances the recovery cursor.
// 래더 소진 시: stop_after_sequence면 당일 종료 예약, 아니면 마지막 스텝 유지.
// 래더가 비어 있으면 base risk를 계속 사용한다.
func (d *dayState) selectRiskAfterLoss() {
	cfg := d.cfg
	steps := cfg.RecoverySteps

	if len(steps) == 0 {
		if cfg.StopAfterSequence {
			d.sequenceSpent = true
		}
		d.riskCents = cfg.BaseRiskCents
		return
	}

	if d.cursor+1 < len(steps) {
		d.cursor++
		d.riskCents = steps[d.cursor].RiskCents
		return
	}

	// 마지막 스텝 이후의 손실
	if cfg.StopAfterSequence {
		d.sequenceSpent = true
		return
	}
	d.riskCents = steps[len(steps)-1].RiskCents
}

// checkStops evaluates stop conditions in fixed precedence order:
// 연속 손실 한도 → 일일 손실 한도 → 일일 목표. 첫 위반이 당일을 종료한다
// (execute_all_regardless는 호출측에서 기록만 하고 무시).
func (d *dayState) checkStops() DayEndReason {
	cfg := d.cfg

	if cfg.MaxConsecutiveLosses > 0 && d.consecLosses >= cfg.MaxConsecutiveLosses {
		return DayConsecutiveLossLimitHit
	}
	if d.sequenceSpent {
		return DayConsecutiveLossLimitHit
	}
	if cfg.DailyLossLimitCents > 0 && d.pnl <= -cfg.DailyLossLimitCents {
		return DayLossLimitHit
	}
	if cfg.DailyTargetCents > 0 && d.pnl >= cfg.DailyTargetCents {
		return DayTargetHit
	}
	return ""
}
