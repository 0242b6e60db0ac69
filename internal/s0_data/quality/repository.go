package quality

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// Repository handles coverage snapshot persistence
// ⭐ SSOT: 커버리지 스냅샷 저장/조회
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new coverage repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveSnapshot saves a coverage snapshot, one row per date
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *contracts.DataCoverageSnapshot) error {
	query := `
		INSERT INTO analysis.data_coverage (
			snapshot_date, quality_score, total_tickers, covered_tickers,
			price_coverage, volume_coverage, fundamental_coverage, investor_coverage, passed
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (snapshot_date) DO UPDATE SET
			quality_score = EXCLUDED.quality_score,
			total_tickers = EXCLUDED.total_tickers,
			covered_tickers = EXCLUDED.covered_tickers,
			price_coverage = EXCLUDED.price_coverage,
			volume_coverage = EXCLUDED.volume_coverage,
			fundamental_coverage = EXCLUDED.fundamental_coverage,
			investor_coverage = EXCLUDED.investor_coverage,
			passed = EXCLUDED.passed,
			updated_at = NOW()
	`

	_, err := r.pool.Exec(ctx, query,
		snapshot.Date,
		snapshot.QualityScore,
		snapshot.TotalTickers,
		snapshot.CoveredTicker,
		snapshot.Coverage["price"],
		snapshot.Coverage["volume"],
		snapshot.Coverage["fundamentals"],
		snapshot.Coverage["investor"],
		snapshot.Passed,
	)
	if err != nil {
		return fmt.Errorf("save coverage snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recent coverage snapshot
func (r *Repository) GetLatest(ctx context.Context) (*contracts.DataCoverageSnapshot, error) {
	query := `
		SELECT
			snapshot_date, quality_score, total_tickers, covered_tickers,
			price_coverage, volume_coverage, fundamental_coverage, investor_coverage, passed
		FROM analysis.data_coverage
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	snapshot := &contracts.DataCoverageSnapshot{
		Coverage: make(map[string]float64),
	}

	var priceCov, volumeCov, fundamentalCov, investorCov float64
	err := r.pool.QueryRow(ctx, query).Scan(
		&snapshot.Date,
		&snapshot.QualityScore,
		&snapshot.TotalTickers,
		&snapshot.CoveredTicker,
		&priceCov,
		&volumeCov,
		&fundamentalCov,
		&investorCov,
		&snapshot.Passed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest coverage snapshot: %w", err)
	}

	snapshot.Coverage["price"] = priceCov
	snapshot.Coverage["volume"] = volumeCov
	snapshot.Coverage["fundamentals"] = fundamentalCov
	snapshot.Coverage["investor"] = investorCov

	return snapshot, nil
}
