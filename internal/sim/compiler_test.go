package sim

import (
	"errors"
	"testing"

	"github.com/kyuwon/riskbook/internal/profile"
)

func i64(v int64) *int64 { return &v }

// baseProfile 테스트용 최소 유효 프로필
func baseProfile() *profile.Profile {
	return &profile.Profile{
		Name:      "test",
		BaseTrade: profile.BaseTrade{RiskCents: 1000},
		GainMode:  profile.GainMode{Mode: profile.GainFixed},

		DailyLossCents:   5000,
		MonthlyLossCents: 50000,
	}
}

func TestCompileLadderPercentThenSame(t *testing.T) {
	p := baseProfile()
	p.LossRecovery.Sequence = []profile.RecoveryRule{
		{Kind: profile.RulePercentOfBase, Percent: 50},
		{Kind: profile.RuleSameAsPrevious},
	}

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := []int64{500, 500}
	if len(cfg.RecoverySteps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(cfg.RecoverySteps))
	}
	for i, w := range want {
		if cfg.RecoverySteps[i].RiskCents != w {
			t.Errorf("step %d: expected %d, got %d", i, w, cfg.RecoverySteps[i].RiskCents)
		}
	}
}

func TestCompileLadderFixedThenPercent(t *testing.T) {
	// percent_of_base는 직전 스텝이 아니라 항상 base 기준
	p := baseProfile()
	p.LossRecovery.Sequence = []profile.RecoveryRule{
		{Kind: profile.RuleFixedAmount, AmountCents: 300},
		{Kind: profile.RulePercentOfBase, Percent: 200},
	}

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := []int64{300, 2000}
	for i, w := range want {
		if cfg.RecoverySteps[i].RiskCents != w {
			t.Errorf("step %d: expected %d, got %d", i, w, cfg.RecoverySteps[i].RiskCents)
		}
	}
}

func TestCompileSameAsPreviousChain(t *testing.T) {
	// same_as_previous는 직전에 "확정된" 스텝을 참조
	p := baseProfile()
	p.LossRecovery.Sequence = []profile.RecoveryRule{
		{Kind: profile.RuleFixedAmount, AmountCents: 300},
		{Kind: profile.RuleSameAsPrevious},
		{Kind: profile.RulePercentOfBase, Percent: 50},
		{Kind: profile.RuleSameAsPrevious},
	}

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	want := []int64{300, 300, 500, 500}
	for i, w := range want {
		if cfg.RecoverySteps[i].RiskCents != w {
			t.Errorf("step %d: expected %d, got %d", i, w, cfg.RecoverySteps[i].RiskCents)
		}
	}
}

func TestCompileSameAsPreviousFirstStepUsesBase(t *testing.T) {
	p := baseProfile()
	p.LossRecovery.Sequence = []profile.RecoveryRule{
		{Kind: profile.RuleSameAsPrevious},
	}

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cfg.RecoverySteps[0].RiskCents != 1000 {
		t.Errorf("expected first same_as_previous to resolve to base 1000, got %d",
			cfg.RecoverySteps[0].RiskCents)
	}
}

func TestCompileUnknownRuleKind(t *testing.T) {
	p := baseProfile()
	p.LossRecovery.Sequence = []profile.RecoveryRule{
		{Kind: "martingale"},
	}

	_, err := Compile(p, DefaultOverrides())
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestCompileNonPositiveResolvedRisk(t *testing.T) {
	// round(1000 * 0.01 / 100) = 0 → 거부
	p := baseProfile()
	p.LossRecovery.Sequence = []profile.RecoveryRule{
		{Kind: profile.RulePercentOfBase, Percent: 0.01},
	}

	_, err := Compile(p, DefaultOverrides())
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestCompileWinPlusBreakevenOver100(t *testing.T) {
	ov := DefaultOverrides()
	ov.WinRate = 70
	ov.BreakevenRate = 40

	_, err := Compile(baseProfile(), ov)
	var cfgErr ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestCompileDailyTargetPrecedence(t *testing.T) {
	p := baseProfile()
	p.DailyProfitTargetCents = i64(3000)

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cfg.DailyTargetCents != 3000 {
		t.Errorf("expected fallback to profile target 3000, got %d", cfg.DailyTargetCents)
	}

	// gain_mode의 타깃이 프로필 필드보다 우선
	p.GainMode.DailyTargetCents = i64(7000)
	cfg, err = Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cfg.DailyTargetCents != 7000 {
		t.Errorf("expected gain_mode target 7000 to win, got %d", cfg.DailyTargetCents)
	}
}

func TestCompileFixedModeNeutralDefaults(t *testing.T) {
	p := baseProfile()
	p.GainMode = profile.GainMode{
		Mode:                profile.GainFixed,
		ReinvestmentPercent: 80, // fixed 모드에서는 무시되어야 함
		StopOnFirstLoss:     false,
	}

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cfg.ReinvestmentPercent != 0 {
		t.Errorf("fixed mode: expected reinvestment 0, got %v", cfg.ReinvestmentPercent)
	}
	if !cfg.StopOnFirstLoss {
		t.Error("fixed mode: expected stop_on_first_loss neutral default true")
	}
}

func TestCompileCompoundingModeCarriesParams(t *testing.T) {
	p := baseProfile()
	p.GainMode = profile.GainMode{
		Mode:                profile.GainCompounding,
		ReinvestmentPercent: 50,
		StopOnFirstLoss:     false,
	}

	cfg, err := Compile(p, DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if cfg.ReinvestmentPercent != 50 {
		t.Errorf("expected reinvestment 50, got %v", cfg.ReinvestmentPercent)
	}
	if cfg.StopOnFirstLoss {
		t.Error("expected stop_on_first_loss false to carry through")
	}
}

func TestCompileEmptyLadder(t *testing.T) {
	cfg, err := Compile(baseProfile(), DefaultOverrides())
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if len(cfg.RecoverySteps) != 0 {
		t.Errorf("expected no steps, got %d", len(cfg.RecoverySteps))
	}
}
