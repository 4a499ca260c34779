package sim

import (
	"math"
	"math/rand"
	"testing"
)

func TestDrawOutcomeDegenerateRates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	// winRate=100 ⇒ 모든 트레이드 승리
	for i := 0; i < 1000; i++ {
		if out := DrawOutcome(100, 0, rng); out != OutcomeWin {
			t.Fatalf("winRate=100: expected win, got %s at draw %d", out, i)
		}
	}

	// winRate=0, breakevenRate=0 ⇒ 모든 트레이드 손실
	for i := 0; i < 1000; i++ {
		if out := DrawOutcome(0, 0, rng); out != OutcomeLoss {
			t.Fatalf("winRate=0: expected loss, got %s at draw %d", out, i)
		}
	}

	// breakevenRate=100 ⇒ 모든 트레이드 본전
	for i := 0; i < 1000; i++ {
		if out := DrawOutcome(0, 100, rng); out != OutcomeBreakeven {
			t.Fatalf("breakevenRate=100: expected breakeven, got %s at draw %d", out, i)
		}
	}
}

func TestDrawOutcomeDeterministicWithSeed(t *testing.T) {
	a := rand.New(rand.NewSource(42))
	b := rand.New(rand.NewSource(42))

	for i := 0; i < 10_000; i++ {
		outA := DrawOutcome(55, 10, a)
		outB := DrawOutcome(55, 10, b)
		if outA != outB {
			t.Fatalf("draw %d diverged: %s vs %s", i, outA, outB)
		}
	}
}

func TestDrawOutcomeDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	const n = 100_000
	counts := map[Outcome]int{}
	for i := 0; i < n; i++ {
		counts[DrawOutcome(60, 10, rng)]++
	}

	winPct := float64(counts[OutcomeWin]) / n * 100
	bePct := float64(counts[OutcomeBreakeven]) / n * 100
	lossPct := float64(counts[OutcomeLoss]) / n * 100

	// 고정 시드이므로 결정적이지만, 기대치 주변 1%p 안에 있어야 정상
	if math.Abs(winPct-60) > 1 {
		t.Errorf("win fraction %.2f%% too far from 60%%", winPct)
	}
	if math.Abs(bePct-10) > 1 {
		t.Errorf("breakeven fraction %.2f%% too far from 10%%", bePct)
	}
	if math.Abs(lossPct-30) > 1 {
		t.Errorf("loss fraction %.2f%% too far from 30%%", lossPct)
	}
}
