package profile

import "time"

// =============================================================================
// Risk Management Profile
// =============================================================================

// RuleKind 손실 복구 스텝의 리스크 계산 방식
type RuleKind string

const (
	RulePercentOfBase  RuleKind = "percent_of_base"  // round(base * percent / 100)
	RuleSameAsPrevious RuleKind = "same_as_previous" // 직전 스텝의 확정 리스크
	RuleFixedAmount    RuleKind = "fixed_amount"     // 고정 금액 (cents)
)

// GainModeKind 수익 처리 방식
type GainModeKind string

const (
	GainCompounding GainModeKind = "compounding" // 당일 수익 일부를 다음 리스크에 재투자
	GainFixed       GainModeKind = "fixed"       // 항상 base risk 유지
)

// Profile is a user-owned risk-management configuration
// ⭐ SSOT: 시뮬레이션 입력은 이 구조체에서만 출발 (실행 중 read-only)
type Profile struct {
	ID        string `yaml:"id" json:"id"`
	AccountID string `yaml:"account_id" json:"account_id"`
	Name      string `yaml:"name" json:"name"`

	BaseTrade    BaseTrade    `yaml:"base_trade" json:"base_trade"`
	LossRecovery LossRecovery `yaml:"loss_recovery" json:"loss_recovery"`
	GainMode     GainMode     `yaml:"gain_mode" json:"gain_mode"`

	// Stop limits (integer cents; pointer = optional)
	DailyLossCents         int64  `yaml:"daily_loss_cents" json:"daily_loss_cents"`
	DailyProfitTargetCents *int64 `yaml:"daily_profit_target_cents,omitempty" json:"daily_profit_target_cents,omitempty"`
	WeeklyLossCents        *int64 `yaml:"weekly_loss_cents,omitempty" json:"weekly_loss_cents,omitempty"`
	MonthlyLossCents       int64  `yaml:"monthly_loss_cents" json:"monthly_loss_cents"`

	CreatedAt time.Time `yaml:"-" json:"created_at"`
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

// BaseTrade holds the risk for the first trade of any sequence
type BaseTrade struct {
	RiskCents int64 `yaml:"risk_cents" json:"risk_cents"` // 첫 트레이드 리스크 (양수)
}

// LossRecovery is the ordered ladder applied after consecutive losses
type LossRecovery struct {
	Sequence []RecoveryRule `yaml:"sequence" json:"sequence"`

	// ExecuteAllRegardless: 한도 도달을 기록만 하고 당일 잔여 트레이드를 전부 실행
	ExecuteAllRegardless bool `yaml:"execute_all_regardless" json:"execute_all_regardless"`
	// StopAfterSequence: 래더 소진 시 당일 트레이딩 중단 (미설정 시 마지막 스텝 유지)
	StopAfterSequence bool `yaml:"stop_after_sequence" json:"stop_after_sequence"`
}

// RecoveryRule is one step of the loss-recovery ladder (tagged variant)
// Kind에 따라 Percent 또는 AmountCents 중 하나만 의미를 가짐
type RecoveryRule struct {
	Kind        RuleKind `yaml:"kind" json:"kind"`
	Percent     float64  `yaml:"percent,omitempty" json:"percent,omitempty"`
	AmountCents int64    `yaml:"amount_cents,omitempty" json:"amount_cents,omitempty"`
}

// GainMode controls how realized profit feeds the next trade's risk
type GainMode struct {
	Mode GainModeKind `yaml:"mode" json:"mode"`

	// compounding 전용
	ReinvestmentPercent float64 `yaml:"reinvestment_percent,omitempty" json:"reinvestment_percent,omitempty"`
	StopOnFirstLoss     bool    `yaml:"stop_on_first_loss" json:"stop_on_first_loss"`

	// 설정 시 프로필의 daily_profit_target_cents보다 우선
	DailyTargetCents *int64 `yaml:"daily_target_cents,omitempty" json:"daily_target_cents,omitempty"`
}
