package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var analyzeDate string

// analyzeCmd runs the full analysis batch once
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "전 종목 분석 배치 실행",
	Long: `활성 종목 전체에 대해 일일 분석 배치를 실행합니다.

이 명령어는:
- 데이터 커버리지 점검
- 종목별 가치(RIM + F-Score)·수급(고래)·모멘텀(RS)·리스크 지표 계산
- 몬테카를로 앙상블 시뮬레이션
- 섹터 순환/수급 집계 및 4축 종합 점수 산출
- analysis 스키마에 스냅샷 저장

Example:
  go run ./cmd/whaleback analyze
  go run ./cmd/whaleback analyze --date 2026-08-28`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeDate, "date", "", "분석 기준일 (YYYY-MM-DD, 기본: 오늘)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Whaleback Analysis Batch ===")

	asOf := time.Now()
	if analyzeDate != "" {
		parsed, err := time.Parse("2006-01-02", analyzeDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", analyzeDate)
		}
		asOf = parsed
	}

	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.close()

	runner, err := b.newRunner()
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	summary, err := runner.Run(context.Background(), asOf)
	if err != nil {
		return fmt.Errorf("analysis batch: %w", err)
	}

	fmt.Printf("\n✅ Batch complete (run_id: %s)\n", summary.RunID)
	fmt.Printf("   Date:        %s\n", summary.AsOfDate.Format("2006-01-02"))
	fmt.Printf("   Tickers:     %d\n", summary.Tickers)
	fmt.Printf("   Quant:       %d\n", summary.Quant)
	fmt.Printf("   Whale:       %d\n", summary.Whale)
	fmt.Printf("   Flow:        %d\n", summary.Flow)
	fmt.Printf("   Trend:       %d\n", summary.Trend)
	fmt.Printf("   Risk:        %d\n", summary.Risk)
	fmt.Printf("   Simulation:  %d\n", summary.Simulation)
	fmt.Printf("   Composite:   %d\n", summary.Composite)
	fmt.Printf("   Sector flow: %d\n", summary.SectorFlow)
	fmt.Printf("   Rotations:   %d\n", summary.Rotations)
	fmt.Printf("   Failed:      %d\n", summary.Failed)
	fmt.Printf("   Elapsed:     %v\n", summary.Elapsed.Round(time.Millisecond))

	return nil
}
