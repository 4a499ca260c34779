package sim

import (
	"fmt"
	"math"

	"github.com/kyuwon/riskbook/internal/profile"
)

// ConfigurationError 잘못된 프로필/오버라이드 조합
// 어떤 트라이얼도 실행되기 전에 반환되며 재시도 대상이 아님
type ConfigurationError struct {
	Field   string
	Message string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Compile flattens a nested risk profile plus caller overrides into an
// immutable execution plan with every ladder step pre-resolved to cents.
//
// 래더 해석은 좌→우 fold: previousRisk는 base risk에서 시작하고,
// 각 스텝 확정 직후 갱신된다. same_as_previous는 항상 "직전에 확정된 스텝"을
// 가리킨다 (첫 스텝에서만 base risk).
func Compile(p *profile.Profile, ov Overrides) (*Config, error) {
	if p.BaseTrade.RiskCents <= 0 {
		return nil, ConfigurationError{"base_trade.risk_cents", "must be > 0"}
	}

	if ov.WinRate < 0 || ov.WinRate > 100 {
		return nil, ConfigurationError{"overrides.win_rate", "must be in [0, 100]"}
	}
	if ov.BreakevenRate < 0 {
		return nil, ConfigurationError{"overrides.breakeven_rate", "must be >= 0"}
	}
	if ov.WinRate+ov.BreakevenRate > 100 {
		return nil, ConfigurationError{"overrides", fmt.Sprintf(
			"win_rate + breakeven_rate must be <= 100, got %.2f", ov.WinRate+ov.BreakevenRate)}
	}
	if ov.RewardRiskRatio <= 0 {
		return nil, ConfigurationError{"overrides.reward_risk_ratio", "must be > 0"}
	}
	if ov.CommissionCents < 0 {
		return nil, ConfigurationError{"overrides.commission_cents", "must be >= 0"}
	}
	if ov.TradesPerDay <= 0 {
		return nil, ConfigurationError{"overrides.trades_per_day", "must be > 0"}
	}
	if ov.MaxConsecutiveLosses < 0 {
		return nil, ConfigurationError{"overrides.max_consecutive_losses", "must be >= 0"}
	}
	if ov.StartingBalanceCents <= 0 {
		return nil, ConfigurationError{"overrides.starting_balance_cents", "must be > 0"}
	}

	// === Loss-recovery ladder: left-to-right fold ===
	baseRisk := p.BaseTrade.RiskCents
	previousRisk := baseRisk
	steps := make([]RecoveryStep, 0, len(p.LossRecovery.Sequence))

	for i, rule := range p.LossRecovery.Sequence {
		field := fmt.Sprintf("loss_recovery.sequence[%d]", i)

		var resolved int64
		switch rule.Kind {
		case profile.RulePercentOfBase:
			// percent_of_base는 항상 base 기준, 직전 스텝 기준이 아님
			resolved = int64(math.Round(float64(baseRisk) * rule.Percent / 100))
		case profile.RuleSameAsPrevious:
			resolved = previousRisk
		case profile.RuleFixedAmount:
			resolved = rule.AmountCents
		default:
			return nil, ConfigurationError{field, fmt.Sprintf("unresolved rule kind %q", rule.Kind)}
		}

		if resolved <= 0 {
			return nil, ConfigurationError{field, fmt.Sprintf("resolved risk must be > 0, got %d", resolved)}
		}

		steps = append(steps, RecoveryStep{RiskCents: resolved})
		previousRisk = resolved
	}

	// === Gain mode ===
	// fixed 모드는 중립값으로 정규화: 재투자 0%, stop_on_first_loss true
	reinvestPct := 0.0
	stopOnFirstLoss := true
	if p.GainMode.Mode == profile.GainCompounding {
		reinvestPct = p.GainMode.ReinvestmentPercent
		stopOnFirstLoss = p.GainMode.StopOnFirstLoss
	}

	// === Daily target: gain_mode가 프로필 필드보다 우선 ===
	var dailyTarget int64
	if p.GainMode.DailyTargetCents != nil {
		dailyTarget = *p.GainMode.DailyTargetCents
	} else if p.DailyProfitTargetCents != nil {
		dailyTarget = *p.DailyProfitTargetCents
	}

	var weeklyLimit int64
	if p.WeeklyLossCents != nil {
		weeklyLimit = *p.WeeklyLossCents
	}

	cfg := &Config{
		BaseRiskCents:   baseRisk,
		RewardRiskRatio: ov.RewardRiskRatio,
		WinRate:         ov.WinRate,
		BreakevenRate:   ov.BreakevenRate,

		RecoverySteps:        steps,
		ExecuteAllRegardless: p.LossRecovery.ExecuteAllRegardless,
		StopAfterSequence:    p.LossRecovery.StopAfterSequence,

		ReinvestmentPercent: reinvestPct,
		StopOnFirstLoss:     stopOnFirstLoss,

		DailyLossLimitCents:   p.DailyLossCents,
		DailyTargetCents:      dailyTarget,
		WeeklyLossLimitCents:  weeklyLimit,
		MonthlyLossLimitCents: p.MonthlyLossCents,
		MaxConsecutiveLosses:  ov.MaxConsecutiveLosses,

		CommissionCents:      ov.CommissionCents,
		TradesPerDay:         ov.TradesPerDay,
		StartingBalanceCents: ov.StartingBalanceCents,
	}

	return cfg, nil
}

// forMode returns a copy of the config narrowed to the requested run mode.
// simple 모드: base risk 고정, 일일 한도만 적용
func (c *Config) forMode(mode RunMode) *Config {
	if mode != ModeSimple {
		return c
	}

	narrowed := *c
	narrowed.RecoverySteps = nil
	narrowed.StopAfterSequence = false
	narrowed.ReinvestmentPercent = 0
	narrowed.WeeklyLossLimitCents = 0
	narrowed.MonthlyLossLimitCents = 0
	return &narrowed
}
