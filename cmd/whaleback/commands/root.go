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
	Use:   "whaleback",
	Short: "Whaleback - 한국 주식 퀀트 분석 백엔드",
	Long: `Whaleback Unified CLI

수급(고래)·가치·모멘텀·시뮬레이션 4축 종합 점수를 계산하는
한국 주식 분석 배치/API 서버.

Usage:
  go run ./cmd/whaleback [command]

Examples:
  go run ./cmd/whaleback analyze
  go run ./cmd/whaleback analyze --date 2026-08-28
  go run ./cmd/whaleback simulate 005930
  go run ./cmd/whaleback api
  go run ./cmd/whaleback scheduler
  go run ./cmd/whaleback test-db`,
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
