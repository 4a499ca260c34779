package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyuwon/riskbook/internal/profile"
	"github.com/kyuwon/riskbook/internal/sim"
)

// simulateCmd represents the simulate command
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Monte Carlo 리스크 시뮬레이션 실행",
	Long: `YAML 리스크 프로필로 Monte Carlo 시뮬레이션을 실행합니다.

시뮬레이션은 다음을 추정합니다:
- 터미널 자본 분포 (p5/p25/p50/p75/p95)
- 파산 확률 (terminal < starting)
- 최대 드로다운 분포
- 트레이드당 기대값

Flags:
  --profile        프로필 YAML 경로 (필수)
  --trials         시뮬레이션 횟수 (기본: 10000)
  --months         시뮬레이션 기간 (월, 기본: 12)
  --days-per-month 월별 트레이딩 일수 (기본: 21)
  --mode           simple | advanced (기본: advanced)
  --seed           마스터 시드 (0 = 랜덤, 같은 시드 = 같은 결과)
  --win-rate       승률 %% (기본: 50)
  --rr             보상/리스크 비율 (기본: 2.0)

Example:
  go run ./cmd/riskbook simulate --profile profiles/conservative.yaml
  go run ./cmd/riskbook simulate --profile p.yaml --trials 100000 --seed 42
  go run ./cmd/riskbook simulate --profile p.yaml --mode simple --win-rate 45`,
	RunE: runSimulate,
}

var (
	simProfilePath  string
	simTrials       int
	simMonths       int
	simDaysPerMonth int
	simMode         string
	simSeed         int64

	simWinRate       float64
	simBreakevenRate float64
	simRewardRisk    float64
	simCommission    int64
	simTradesPerDay  int
	simMaxConsec     int
	simBalance       int64
)

func init() {
	rootCmd.AddCommand(simulateCmd)

	// Flags
	simulateCmd.Flags().StringVar(&simProfilePath, "profile", "", "프로필 YAML 경로 (필수)")
	simulateCmd.MarkFlagRequired("profile")

	simulateCmd.Flags().IntVar(&simTrials, "trials", 10_000, "시뮬레이션 횟수")
	simulateCmd.Flags().IntVar(&simMonths, "months", 12, "시뮬레이션 기간 (월)")
	simulateCmd.Flags().IntVar(&simDaysPerMonth, "days-per-month", 21, "월별 트레이딩 일수")
	simulateCmd.Flags().StringVar(&simMode, "mode", "advanced", "simple | advanced")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "마스터 시드 (0 = 랜덤)")

	simulateCmd.Flags().Float64Var(&simWinRate, "win-rate", 50, "승률 %")
	simulateCmd.Flags().Float64Var(&simBreakevenRate, "breakeven-rate", 0, "본전 비율 %")
	simulateCmd.Flags().Float64Var(&simRewardRisk, "rr", 2.0, "보상/리스크 비율")
	simulateCmd.Flags().Int64Var(&simCommission, "commission", 0, "트레이드당 수수료 (cents)")
	simulateCmd.Flags().IntVar(&simTradesPerDay, "trades-per-day", 10, "하루 최대 트레이드 수")
	simulateCmd.Flags().IntVar(&simMaxConsec, "max-consec-losses", 0, "연속 손실 한도 (0 = 없음)")
	simulateCmd.Flags().Int64Var(&simBalance, "balance", 1_000_000, "시작 자본 (cents)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	fmt.Println("=== riskbook Monte Carlo Simulation ===")

	// 1. Load profile
	p, err := profile.Load(simProfilePath)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	for _, warning := range profile.Warn(p) {
		PrintWarning(fmt.Sprintf("[%s] %s", warning.Code, warning.Message))
	}

	// 2. Compile execution plan
	overrides := sim.Overrides{
		WinRate:              simWinRate,
		BreakevenRate:        simBreakevenRate,
		RewardRiskRatio:      simRewardRisk,
		CommissionCents:      simCommission,
		TradesPerDay:         simTradesPerDay,
		MaxConsecutiveLosses: simMaxConsec,
		StartingBalanceCents: simBalance,
	}
	cfg, err := sim.Compile(p, overrides)
	if err != nil {
		return fmt.Errorf("compile profile: %w", err)
	}

	fmt.Printf("\n📋 Profile: %s\n", p.Name)
	fmt.Printf("💰 Starting Balance: %s\n", formatDollars(cfg.StartingBalanceCents))
	fmt.Printf("🎯 Base Risk: %s / trade, RR %.1f, Win %.1f%%\n",
		formatDollars(cfg.BaseRiskCents), cfg.RewardRiskRatio, cfg.WinRate)
	fmt.Printf("🔁 Trials: %d × %d months (%d days/month), mode: %s\n\n",
		simTrials, simMonths, simDaysPerMonth, simMode)

	// 3. Run — Ctrl+C는 협조적 취소, 부분 결과를 보고
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	req := sim.Request{
		SimulationCount:     simTrials,
		MonthsToTrade:       simMonths,
		TradingDaysPerMonth: simDaysPerMonth,
		Mode:                sim.RunMode(simMode),
		Seed:                simSeed,
	}

	// 진행률 콜백은 워커 고루틴에서 동시에 불리므로 CAS로 10% 단위 출력
	var lastDecile atomic.Int64
	lastDecile.Store(-1)
	runner := sim.NewRunner(sim.WithProgress(func(done, total int) {
		pct := done * 100 / total
		decile := int64(pct / 10)
		for {
			prev := lastDecile.Load()
			if decile <= prev {
				return
			}
			if lastDecile.CompareAndSwap(prev, decile) {
				fmt.Printf("  ... %d%% (%d/%d trials)\n", pct, done, total)
				return
			}
		}
	}))

	start := time.Now()
	result, err := runner.Run(ctx, cfg, req)
	if err != nil {
		return fmt.Errorf("run simulation: %w", err)
	}
	duration := time.Since(start)

	// 4. Aggregate & report
	summary := sim.Aggregate(result, cfg)
	printSummaryReport(summary, duration)

	return nil
}

func printSummaryReport(s *sim.Summary, duration time.Duration) {
	fmt.Println("\n✅ Simulation Completed")
	fmt.Println("=" + strings.Repeat("=", 60))
	fmt.Println()

	fmt.Println("📊 Summary")
	fmt.Printf("Run ID:   %s\n", s.RunID)
	fmt.Printf("Status:   %s\n", s.Status)
	fmt.Printf("Seed:     %d\n", s.Seed)
	fmt.Printf("Trials:   %d (%d total trades)\n", s.TrialCount, s.TotalTrades)
	fmt.Printf("Duration: %.2f seconds\n", duration.Seconds())
	fmt.Println()

	if s.Status == sim.StatusNoData {
		PrintError("No trials to aggregate")
		return
	}
	if s.Status == sim.StatusCancelled {
		PrintWarning("Cancelled — statistics cover completed trials only")
	}

	fmt.Println("💰 Terminal Equity")
	fmt.Printf("Starting:        %s\n", formatDollars(s.StartingBalanceCents))
	fmt.Printf("Mean:            %s\n", formatDollars(s.MeanTerminalEquityCents))
	fmt.Printf("p5  (worst 5%%):  %s\n", formatDollars(s.PercentileEquityCents[5]))
	fmt.Printf("p25:             %s\n", formatDollars(s.PercentileEquityCents[25]))
	fmt.Printf("p50 (median):    %s\n", formatDollars(s.PercentileEquityCents[50]))
	fmt.Printf("p75:             %s\n", formatDollars(s.PercentileEquityCents[75]))
	fmt.Printf("p95 (best 5%%):   %s\n", formatDollars(s.PercentileEquityCents[95]))
	fmt.Println()

	fmt.Println("📉 Risk Metrics")
	fmt.Printf("Ruin Probability: %.2f%%", s.RuinProbability*100)
	switch {
	case s.RuinProbability <= 0.05:
		fmt.Println("  👍")
	case s.RuinProbability <= 0.25:
		fmt.Println("  ⚠️")
	default:
		fmt.Println("  ❌")
	}
	fmt.Printf("Mean Drawdown:    %s\n", formatDollars(s.MeanMaxDrawdownCents))
	fmt.Printf("Median Drawdown:  %s\n", formatDollars(s.MedianMaxDrawdownCents))
	fmt.Printf("Expectancy:       %.1f cents / trade\n", s.ImpliedExpectancyCents)
	fmt.Println()
}
