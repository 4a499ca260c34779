package profile

import (
	"fmt"
)

// ValidationError 검증 실패 (시뮬레이션 시작 전 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints on a profile
// 실패 시 error 반환 — 어떤 트라이얼도 실행되기 전에 거부
func Validate(p *Profile) error {
	if p.Name == "" {
		return ValidationError{"name", "required"}
	}

	// === BaseTrade ===
	if p.BaseTrade.RiskCents <= 0 {
		return ValidationError{"base_trade.risk_cents", "must be > 0"}
	}

	// === LossRecovery ===
	for i, rule := range p.LossRecovery.Sequence {
		field := fmt.Sprintf("loss_recovery.sequence[%d]", i)
		switch rule.Kind {
		case RulePercentOfBase:
			if rule.Percent <= 0 {
				return ValidationError{field + ".percent", "must be > 0"}
			}
		case RuleSameAsPrevious:
			// no parameters
		case RuleFixedAmount:
			if rule.AmountCents <= 0 {
				return ValidationError{field + ".amount_cents", "must be > 0"}
			}
		default:
			return ValidationError{field + ".kind", fmt.Sprintf("unknown kind %q", rule.Kind)}
		}
	}

	// === GainMode ===
	switch p.GainMode.Mode {
	case GainCompounding:
		if p.GainMode.ReinvestmentPercent < 0 || p.GainMode.ReinvestmentPercent > 100 {
			return ValidationError{"gain_mode.reinvestment_percent", "must be in [0, 100]"}
		}
	case GainFixed:
		// no parameters
	default:
		return ValidationError{"gain_mode.mode", fmt.Sprintf("unknown mode %q", p.GainMode.Mode)}
	}
	if p.GainMode.DailyTargetCents != nil && *p.GainMode.DailyTargetCents <= 0 {
		return ValidationError{"gain_mode.daily_target_cents", "must be > 0 when set"}
	}

	// === Limits ===
	if p.DailyLossCents <= 0 {
		return ValidationError{"daily_loss_cents", "must be > 0"}
	}
	if p.DailyProfitTargetCents != nil && *p.DailyProfitTargetCents <= 0 {
		return ValidationError{"daily_profit_target_cents", "must be > 0 when set"}
	}
	if p.WeeklyLossCents != nil && *p.WeeklyLossCents <= 0 {
		return ValidationError{"weekly_loss_cents", "must be > 0 when set"}
	}
	if p.MonthlyLossCents <= 0 {
		return ValidationError{"monthly_loss_cents", "must be > 0"}
	}
	if p.WeeklyLossCents != nil && *p.WeeklyLossCents < p.DailyLossCents {
		return ValidationError{"weekly_loss_cents", "must be >= daily_loss_cents"}
	}
	if p.MonthlyLossCents < p.DailyLossCents {
		return ValidationError{"monthly_loss_cents", "must be >= daily_loss_cents"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	// 래더가 base risk를 키우는 방향이면 마틴게일성 경고
	if n := len(p.LossRecovery.Sequence); n > 0 {
		last := p.LossRecovery.Sequence[n-1]
		if last.Kind == RulePercentOfBase && last.Percent > 100 {
			warnings = append(warnings, Warning{
				Code:    "ESCALATING_LADDER",
				Message: "마지막 복구 스텝이 base risk 초과: 연속 손실 시 드로다운 급증 위험",
			})
		}
	}

	if len(p.LossRecovery.Sequence) > 10 {
		warnings = append(warnings, Warning{
			Code:    "LONG_LADDER",
			Message: "복구 래더 10스텝 초과: 일일 손실 한도가 먼저 도달할 가능성 높음",
		})
	}

	if p.WeeklyLossCents == nil {
		warnings = append(warnings, Warning{
			Code:    "NO_WEEKLY_LIMIT",
			Message: "주간 손실 한도 미설정",
		})
	}

	return warnings
}
