package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/whaleback/internal/s0_data/quality"
	"github.com/wonny/whaleback/pkg/logger"
)

// CoverageJob checks and records input data coverage before the
// analysis batch runs. 배치보다 10분 먼저 돌아 경고를 남긴다.
type CoverageJob struct {
	gate   *quality.CoverageGate
	repo   *quality.Repository
	logger *logger.Logger
}

// NewCoverageJob creates the daily coverage check job
func NewCoverageJob(gate *quality.CoverageGate, repo *quality.Repository, log *logger.Logger) *CoverageJob {
	return &CoverageJob{
		gate:   gate,
		repo:   repo,
		logger: log,
	}
}

// Name returns the job name
func (j *CoverageJob) Name() string {
	return "data_coverage"
}

// Schedule returns the cron schedule expression (with seconds)
func (j *CoverageJob) Schedule() string {
	return "0 0 18 * * MON-FRI"
}

// Run checks today's coverage and persists the snapshot
func (j *CoverageJob) Run(ctx context.Context) error {
	snapshot, err := j.gate.Check(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("coverage check: %w", err)
	}

	if err := j.repo.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save coverage snapshot: %w", err)
	}

	if !snapshot.Passed {
		j.logger.WithFields(map[string]interface{}{
			"quality_score": snapshot.QualityScore,
			"coverage":      snapshot.Coverage,
		}).Warn("Data coverage below thresholds")
	}

	return nil
}
