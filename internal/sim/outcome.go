package sim

import "math/rand"

// DrawOutcome maps one uniform draw in [0,100) onto a trade outcome:
// [0, breakevenRate) → Breakeven, [breakevenRate, breakevenRate+winRate) → Win,
// 나머지 → Loss.
//
// rng는 주입된 스트림이므로 동일 시드 = 동일 결과 시퀀스 (재현 실행과
// 단위 테스트의 전제). 전역 rand는 사용하지 않는다.
func DrawOutcome(winRate, breakevenRate float64, rng *rand.Rand) Outcome {
	u := rng.Float64() * 100

	switch {
	case u < breakevenRate:
		return OutcomeBreakeven
	case u < breakevenRate+winRate:
		return OutcomeWin
	default:
		return OutcomeLoss
	}
}
