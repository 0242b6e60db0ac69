package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/whaleback/internal/s0_data/quality"
	"github.com/wonny/whaleback/internal/scheduler"
	"github.com/wonny/whaleback/internal/scheduler/jobs"
)

// schedulerCmd runs the cron scheduler with the daily jobs
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "일일 배치 스케줄러 시작",
	Long: `cron 스케줄러를 시작하고 일일 작업을 등록합니다.

등록 작업:
  data_coverage  - 평일 18:00 입력 데이터 커버리지 점검
  daily_analysis - 평일 18:10 전 종목 분석 배치 (PIPELINE_CRON으로 변경)

Example:
  go run ./cmd/whaleback scheduler`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Whaleback Scheduler ===")

	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.close()

	runner, err := b.newRunner()
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	s := scheduler.New(b.log)

	gate := quality.NewCoverageGate(b.db.Pool, quality.DefaultConfig())
	qualityRepo := quality.NewRepository(b.db.Pool)

	if err := s.AddJob(jobs.NewCoverageJob(gate, qualityRepo, b.log)); err != nil {
		return fmt.Errorf("add coverage job: %w", err)
	}
	if err := s.AddJob(jobs.NewAnalysisJob(runner, b.cfg.Pipeline.CronSpec, b.log)); err != nil {
		return fmt.Errorf("add analysis job: %w", err)
	}

	s.Start()
	fmt.Println("Scheduler running. Press Ctrl+C to stop.")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.Stop()
	return nil
}
