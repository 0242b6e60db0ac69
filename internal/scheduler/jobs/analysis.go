package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/whaleback/internal/pipeline"
	"github.com/wonny/whaleback/pkg/logger"
)

// defaultAnalysisSchedule: 평일 장 마감 후 18:10 (수급 확정치 반영 대기)
const defaultAnalysisSchedule = "0 10 18 * * MON-FRI"

// AnalysisJob runs the daily analysis batch
type AnalysisJob struct {
	runner   *pipeline.Runner
	schedule string
	logger   *logger.Logger
}

// NewAnalysisJob creates the daily analysis job.
// schedule이 비어 있으면 기본 스케줄 사용.
func NewAnalysisJob(runner *pipeline.Runner, schedule string, log *logger.Logger) *AnalysisJob {
	if schedule == "" {
		schedule = defaultAnalysisSchedule
	}
	return &AnalysisJob{
		runner:   runner,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *AnalysisJob) Name() string {
	return "daily_analysis"
}

// Schedule returns the cron schedule expression (with seconds)
func (j *AnalysisJob) Schedule() string {
	return j.schedule
}

// Run executes the analysis batch for today
func (j *AnalysisJob) Run(ctx context.Context) error {
	asOf := time.Now()
	j.logger.WithField("as_of", asOf.Format("2006-01-02")).Info("Starting scheduled analysis batch")

	summary, err := j.runner.Run(ctx, asOf)
	if err != nil {
		return fmt.Errorf("analysis batch: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    summary.RunID,
		"tickers":   summary.Tickers,
		"composite": summary.Composite,
		"failed":    summary.Failed,
	}).Info("Scheduled analysis batch complete")

	return nil
}
