package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kyuwon/riskbook/internal/journal"
	"github.com/kyuwon/riskbook/pkg/config"
	"github.com/kyuwon/riskbook/pkg/database"
	"github.com/kyuwon/riskbook/pkg/logger"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "브로커 CSV 임포트",
	Long: `브로커 거래내역 CSV를 저널에 임포트합니다.

한 행이라도 깨져 있으면 전체 임포트가 거부됩니다 (부분 임포트 없음).

Example:
  go run ./cmd/riskbook import --account main --file trades.csv`,
	RunE: runImport,
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "저널 통계 출력",
	Long: `계정의 저널 통계를 콘솔에 출력합니다.

Example:
  go run ./cmd/riskbook stats --account main`,
	RunE: runStats,
}

var (
	journalAccount string
	importFile     string
)

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statsCmd)

	// Flags
	importCmd.Flags().StringVar(&journalAccount, "account", "", "계정 ID (필수)")
	importCmd.Flags().StringVar(&importFile, "file", "", "CSV 파일 경로 (필수)")
	importCmd.MarkFlagRequired("account")
	importCmd.MarkFlagRequired("file")

	statsCmd.Flags().StringVar(&journalAccount, "account", "", "계정 ID (필수)")
	statsCmd.MarkFlagRequired("account")
}

func runImport(cmd *cobra.Command, args []string) error {
	fmt.Println("=== riskbook CSV Import ===")

	file, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	trades, err := journal.ImportCSV(file, journalAccount)
	if err != nil {
		return fmt.Errorf("parse csv: %w", err)
	}
	fmt.Printf("📄 Parsed %d trades from %s\n", len(trades), importFile)

	repo, db, err := journalRepo()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.SaveBatch(ctx, trades); err != nil {
		return fmt.Errorf("import trades: %w", err)
	}

	PrintSuccess(fmt.Sprintf("Imported %d trades into account %q", len(trades), journalAccount))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	repo, db, err := journalRepo()
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	trades, err := repo.ListByAccount(ctx, journalAccount, time.Time{}, time.Time{})
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	s := journal.Compute(trades)

	fmt.Printf("\n📊 Journal Stats — account %q\n", journalAccount)
	PrintSeparator()
	PrintKeyValue("Trades", fmt.Sprintf("%d (%d W / %d L / %d BE)",
		s.TradeCount, s.Wins, s.Losses, s.Breakevens), 16)
	PrintKeyValue("Win Rate", fmt.Sprintf("%.1f%%", s.WinRatePercent), 16)
	PrintKeyValue("Total PnL", formatDollars(s.TotalPnLCents), 16)
	PrintKeyValue("Total Fees", formatDollars(s.TotalFeesCents), 16)
	PrintKeyValue("Avg Win", formatDollars(s.AvgWinCents), 16)
	PrintKeyValue("Avg Loss", formatDollars(-s.AvgLossCents), 16)
	PrintKeyValue("Avg RR", fmt.Sprintf("%.2f", s.AvgRewardRiskRatio), 16)
	PrintKeyValue("Profit Factor", fmt.Sprintf("%.2f", s.ProfitFactor), 16)
	PrintKeyValue("Expectancy", fmt.Sprintf("%.1f cents/trade", s.ExpectancyCents), 16)
	PrintKeyValue("Max Drawdown", formatDollars(s.MaxDrawdownCents), 16)
	PrintKeyValue("Best Day", formatDollars(s.BestDayCents), 16)
	PrintKeyValue("Worst Day", formatDollars(s.WorstDayCents), 16)
	PrintSeparator()

	return nil
}

// journalRepo connects config → database → repository for CLI commands
func journalRepo() (*journal.Repository, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to database")

	return journal.NewRepository(db.Pool), db, nil
}
