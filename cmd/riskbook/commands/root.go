package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "riskbook",
	Short: "riskbook - 트레이딩 저널 + 리스크 시뮬레이션",
	Long: `riskbook Unified CLI

개인 트레이딩 저널과 Monte Carlo 리스크 시뮬레이션 엔진.
리스크 프로필을 정의하고, 수천 번의 가상 트레이딩을 돌려
파산 확률과 드로다운 분포를 확인한다.

Usage:
  go run ./cmd/riskbook [command]

Examples:
  go run ./cmd/riskbook api
  go run ./cmd/riskbook simulate --profile profiles/conservative.yaml
  go run ./cmd/riskbook import --account main --file trades.csv`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
