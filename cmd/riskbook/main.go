package main

import (
	"os"

	"github.com/kyuwon/riskbook/cmd/riskbook/commands"
)

// main is the entry point for the riskbook CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/riskbook [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
