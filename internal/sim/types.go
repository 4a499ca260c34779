package sim

import "time"

// =============================================================================
// Trade Outcome
// =============================================================================

// Outcome 단일 트레이드 결과
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLoss      Outcome = "loss"
	OutcomeBreakeven Outcome = "breakeven"
)

// =============================================================================
// Daily State Machine
// =============================================================================

// DayEndReason 하루 단위 상태 머신의 종료 상태
// ActiveTrading → {target_hit, loss_limit_hit, consecutive_loss_limit_hit, exhausted}
type DayEndReason string

const (
	DayTargetHit               DayEndReason = "target_hit"
	DayLossLimitHit            DayEndReason = "loss_limit_hit"
	DayConsecutiveLossLimitHit DayEndReason = "consecutive_loss_limit_hit"
	DayExhausted               DayEndReason = "exhausted" // 계획된 트레이드 전부 실행
	// DayPeriodHalted 주간/월간 한도 도달로 트레이딩이 없었던 날
	// 일일 머신과 구분되는 기간 레벨 종료 상태
	DayPeriodHalted DayEndReason = "period_halted"
)

// =============================================================================
// Run Mode & Status
// =============================================================================

// RunMode 시뮬레이션 모드
type RunMode string

const (
	// ModeSimple base risk 고정, 일일 한도만 적용 (빠른 what-if)
	ModeSimple RunMode = "simple"
	// ModeAdvanced 복구 래더·컴파운딩·주간/월간 한도 전부 적용
	ModeAdvanced RunMode = "advanced"
)

// RunStatus 실행 결과 상태
type RunStatus string

const (
	StatusCompleted RunStatus = "completed"
	StatusCancelled RunStatus = "cancelled" // 협조적 취소, 부분 결과 포함
	StatusNoData    RunStatus = "no_data"   // 집계할 트라이얼 없음
)

// =============================================================================
// Flat Simulation Config (derived, immutable)
// =============================================================================

// RecoveryStep is one pre-resolved ladder step
type RecoveryStep struct {
	RiskCents int64 `json:"risk_cents"`
}

// Config is the flat execution plan compiled from a profile + overrides
// ⭐ SSOT: 재현성을 위해 모든 금액은 정수 cents, 실행 중 불변
type Config struct {
	BaseRiskCents   int64   `json:"base_risk_cents"`
	RewardRiskRatio float64 `json:"reward_risk_ratio"` // R-multiple
	WinRate         float64 `json:"win_rate"`          // percent [0,100]
	BreakevenRate   float64 `json:"breakeven_rate"`    // percent, win+be <= 100

	RecoverySteps        []RecoveryStep `json:"recovery_steps"` // 사전 확정된 래더
	ExecuteAllRegardless bool           `json:"execute_all_regardless"`
	StopAfterSequence    bool           `json:"stop_after_sequence"`

	ReinvestmentPercent float64 `json:"reinvestment_percent"` // 0 = fixed gain mode
	StopOnFirstLoss     bool    `json:"stop_on_first_loss"`

	DailyLossLimitCents   int64 `json:"daily_loss_limit_cents"`
	DailyTargetCents      int64 `json:"daily_target_cents"`       // 0 = 없음
	WeeklyLossLimitCents  int64 `json:"weekly_loss_limit_cents"`  // 0 = 없음
	MonthlyLossLimitCents int64 `json:"monthly_loss_limit_cents"` // 0 = 없음
	MaxConsecutiveLosses  int   `json:"max_consecutive_losses"`   // 0 = 없음

	CommissionCents      int64 `json:"commission_cents"` // 트레이드당
	TradesPerDay         int   `json:"trades_per_day"`
	StartingBalanceCents int64 `json:"starting_balance_cents"`
}

// Overrides are caller-supplied scalars layered over a profile at compile time
type Overrides struct {
	WinRate              float64 `json:"win_rate"`
	BreakevenRate        float64 `json:"breakeven_rate"`
	RewardRiskRatio      float64 `json:"reward_risk_ratio"`
	CommissionCents      int64   `json:"commission_cents"`
	TradesPerDay         int     `json:"trades_per_day"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
	StartingBalanceCents int64   `json:"starting_balance_cents"`
}

// DefaultOverrides 기본 오버라이드
func DefaultOverrides() Overrides {
	return Overrides{
		WinRate:              50,
		BreakevenRate:        0,
		RewardRiskRatio:      2,
		CommissionCents:      0,
		TradesPerDay:         10,
		MaxConsecutiveLosses: 0,         // 래더/일일 한도에 위임
		StartingBalanceCents: 1_000_000, // $10,000
	}
}

// =============================================================================
// Request / Results
// =============================================================================

// Request describes one simulation run
type Request struct {
	SimulationCount     int     `json:"simulation_count"`
	MonthsToTrade       int     `json:"months_to_trade"`
	TradingDaysPerMonth int     `json:"trading_days_per_month"`
	Mode                RunMode `json:"mode"`
	Seed                int64   `json:"seed"`          // 0 = 프로세스 엔트로피
	SampleCurves        int     `json:"sample_curves"` // equity curve 기록 상한
}

// TrialResult is the outcome of one independent trial
// DailyPnL/DayEndReasons는 샘플링된 트라이얼에만 기록 (메모리 상한)
type TrialResult struct {
	Trial               int            `json:"trial"`
	Seed                int64          `json:"seed"`
	TerminalEquityCents int64          `json:"terminal_equity_cents"`
	MaxDrawdownCents    int64          `json:"max_drawdown_cents"`
	Days                int            `json:"days"`
	Trades              int            `json:"trades"`
	DailyPnL            []int64        `json:"daily_pnl,omitempty"`
	DayEndReasons       []DayEndReason `json:"day_end_reasons,omitempty"`
}

// Result is the raw output of a run, pre-aggregation
type Result struct {
	Trials []TrialResult `json:"trials"`
	Status RunStatus     `json:"status"`
	Seed   int64         `json:"seed"` // 실제 사용된 마스터 시드 (재현용)
}

// Summary aggregates all trials of a run
// ⭐ SSOT: 재현성을 위해 Config 포함
type Summary struct {
	RunID   string    `json:"run_id"`
	RunDate time.Time `json:"run_date"`
	Status  RunStatus `json:"status"`
	Config  *Config   `json:"config,omitempty"`
	Seed    int64     `json:"seed"`

	TrialCount           int   `json:"trial_count"`
	TotalTrades          int64 `json:"total_trades"`
	StartingBalanceCents int64 `json:"starting_balance_cents"`

	PercentileEquityCents   map[int]int64 `json:"percentile_equity_cents"` // 5, 25, 50, 75, 95
	MeanTerminalEquityCents int64         `json:"mean_terminal_equity_cents"`
	RuinProbability         float64       `json:"ruin_probability"` // terminal < starting 비율
	MeanMaxDrawdownCents    int64         `json:"mean_max_drawdown_cents"`
	MedianMaxDrawdownCents  int64         `json:"median_max_drawdown_cents"`
	ImpliedExpectancyCents  float64       `json:"implied_expectancy_cents"` // 트레이드당 평균 PnL
}
