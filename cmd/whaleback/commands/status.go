package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/whaleback/internal/s0_data"
	"github.com/wonny/whaleback/internal/s0_data/quality"
)

var statusLimit int

// statusCmd shows the latest analysis state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "최신 분석 결과 요약",
	Long: `최근 커버리지 스냅샷과 종합 점수 상위 종목을 표시합니다.

Example:
  go run ./cmd/whaleback status
  go run ./cmd/whaleback status --limit 20`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "랭킹 표시 개수")
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Whaleback Status ===")

	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()

	// Coverage
	qualityRepo := quality.NewRepository(b.db.Pool)
	coverage, err := qualityRepo.GetLatest(ctx)
	if err != nil {
		return fmt.Errorf("load coverage: %w", err)
	}
	if coverage == nil {
		fmt.Println("\n📡 Data coverage: (none yet)")
	} else {
		mark := "✅"
		if !coverage.Passed {
			mark = "⚠️"
		}
		fmt.Printf("\n📡 Data coverage %s (%s)\n", mark, coverage.Date.Format("2006-01-02"))
		fmt.Printf("   Quality score: %.2f\n", coverage.QualityScore)
		for _, key := range []string{"price", "volume", "fundamentals", "investor"} {
			if v, ok := coverage.Coverage[key]; ok {
				fmt.Printf("   %-12s %.1f%%\n", key, v*100)
			}
		}
	}

	// Composite ranking
	snapshots := s0_data.NewSnapshotRepository(b.db.Pool)
	ranking, err := snapshots.GetCompositeRanking(ctx, time.Now(), statusLimit)
	if err != nil {
		return fmt.Errorf("load ranking: %w", err)
	}
	if len(ranking) == 0 {
		fmt.Println("\n🏆 Composite ranking: (no snapshots yet, run `analyze` first)")
		return nil
	}

	fmt.Printf("\n🏆 Composite ranking (%s)\n", ranking[0].AsOfDate.Format("2006-01-02"))
	fmt.Println("   Rank  Ticker  Score  Tier       Confluence")
	for i, snap := range ranking {
		score := 0.0
		if snap.CompositeScore != nil {
			score = *snap.CompositeScore
		}
		fmt.Printf("   %4d  %-6s  %5.1f  %-9s  %s\n",
			i+1, snap.Ticker, score, snap.Tier, snap.ConfluencePattern)
	}

	return nil
}
