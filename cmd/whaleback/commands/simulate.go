package commands

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/whaleback/internal/analysis/simulation"
	"github.com/wonny/whaleback/internal/s0_data"
)

var simulateDate string

// simulateCmd runs the Monte Carlo ensemble for one ticker
var simulateCmd = &cobra.Command{
	Use:   "simulate [ticker]",
	Short: "단일 종목 몬테카를로 시뮬레이션",
	Long: `한 종목에 대해 4개 모델(GBM, GARCH, Heston, Merton) 앙상블
시뮬레이션을 실행하고 구간별 가격 분포를 출력합니다.

Example:
  go run ./cmd/whaleback simulate 005930
  go run ./cmd/whaleback simulate 005930 --date 2026-08-28`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVar(&simulateDate, "date", "", "기준일 (YYYY-MM-DD, 기본: 오늘)")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ticker := args[0]

	asOf := time.Now()
	if simulateDate != "" {
		parsed, err := time.Parse("2006-01-02", simulateDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", simulateDate)
		}
		asOf = parsed
	}

	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()
	prices := s0_data.NewPriceRepository(b.db.Pool)

	bars, err := prices.GetByTickerAndDateRange(ctx, ticker, asOf.AddDate(0, 0, -550), asOf)
	if err != nil {
		return fmt.Errorf("load prices for %s: %w", ticker, err)
	}
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = float64(bar.Close)
	}

	engine := simulation.NewEngine(b.params.Simulation, b.log)
	result, err := engine.Compute(ticker, closes)
	if err != nil {
		return fmt.Errorf("simulate %s: %w", ticker, err)
	}

	fmt.Printf("=== Monte Carlo Ensemble: %s ===\n", ticker)
	fmt.Printf("Base price:  %d\n", result.BasePrice)
	fmt.Printf("Mu (annual): %.4f  Sigma (annual): %.4f\n", result.Mu, result.Sigma)
	fmt.Printf("Paths:       %d  Input days: %d\n", result.NumSimulations, result.InputDaysUsed)
	fmt.Printf("Score:       %.1f (%s)\n\n", result.SimulationScore, result.SimulationGrade)

	horizons := make([]int, 0, len(result.Horizons))
	for h := range result.Horizons {
		horizons = append(horizons, h)
	}
	sort.Ints(horizons)

	fmt.Println("Horizon      P5       P25      P50      P75      P95    Upside")
	for _, h := range horizons {
		s := result.Horizons[h]
		fmt.Printf("%-8s %8d %8d %8d %8d %8d   %5.1f%%\n",
			s.Label, s.P5, s.P25, s.P50, s.P75, s.P95, s.UpsideProb*100)
	}

	fmt.Println("\nTarget probabilities:")
	targets := make([]string, 0, len(result.TargetProbs))
	for t := range result.TargetProbs {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	for _, t := range targets {
		for _, h := range horizons {
			if p, ok := result.TargetProbs[t][h]; ok {
				fmt.Printf("  %s @ %dd: %.1f%%\n", t, h, p*100)
			}
		}
	}

	fmt.Println("\nModel breakdown:")
	for _, m := range result.ModelBreakdown {
		if m.Score != nil {
			fmt.Printf("  %-7s weight %.2f  score %.1f\n", m.Model, m.Weight, *m.Score)
		} else {
			fmt.Printf("  %-7s weight %.2f  (skipped)\n", m.Model, m.Weight)
		}
	}

	return nil
}
