package s0_data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// FundamentalRepository implements contracts.FundamentalRepository
// ⭐ SSOT: 재무 지표 조회는 여기서만
//
// 손실 기업의 PER처럼 정의되지 않는 값은 NULL로 저장되며
// 포인터로 그대로 전달된다. COALESCE 금지 — 0과 결측은 다르다.
type FundamentalRepository struct {
	pool *pgxpool.Pool
}

// NewFundamentalRepository creates a new fundamental repository
func NewFundamentalRepository(pool *pgxpool.Pool) *FundamentalRepository {
	return &FundamentalRepository{pool: pool}
}

const fundamentalColumns = `ticker, snapshot_date, bps, per, pbr, eps, div_yield, dps, roe`

// GetLatestByTicker retrieves the most recent snapshot on or before asOf
func (r *FundamentalRepository) GetLatestByTicker(ctx context.Context, ticker string, asOf time.Time) (*contracts.FundamentalSnapshot, error) {
	query := `
		SELECT ` + fundamentalColumns + `
		FROM data.fundamentals
		WHERE ticker = $1 AND snapshot_date <= $2
		ORDER BY snapshot_date DESC
		LIMIT 1
	`

	var f contracts.FundamentalSnapshot
	err := r.pool.QueryRow(ctx, query, ticker, asOf).Scan(
		&f.Ticker, &f.Date, &f.BPS, &f.PER, &f.PBR, &f.EPS, &f.DIV, &f.DPS, &f.ROE,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetNearestByTicker retrieves the snapshot closest to the given date in
// either direction. F-Score의 전기 비교에서 1년 전 근방 스냅샷을 찾을 때 사용.
func (r *FundamentalRepository) GetNearestByTicker(ctx context.Context, ticker string, around time.Time) (*contracts.FundamentalSnapshot, error) {
	query := `
		SELECT ` + fundamentalColumns + `
		FROM data.fundamentals
		WHERE ticker = $1
		ORDER BY ABS(EXTRACT(EPOCH FROM (snapshot_date - $2::timestamptz)))
		LIMIT 1
	`

	var f contracts.FundamentalSnapshot
	err := r.pool.QueryRow(ctx, query, ticker, around).Scan(
		&f.Ticker, &f.Date, &f.BPS, &f.PER, &f.PBR, &f.EPS, &f.DIV, &f.DPS, &f.ROE,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetSectorMedians computes median PER/PBR across a sector's members as of
// a date. 0 이하 값은 의미가 없으므로 집계에서 제외.
func (r *FundamentalRepository) GetSectorMedians(ctx context.Context, sector string, asOf time.Time) (medianPER, medianPBR *float64, err error) {
	query := `
		WITH latest AS (
			SELECT DISTINCT ON (f.ticker) f.per, f.pbr
			FROM data.fundamentals f
			JOIN data.stocks s ON s.ticker = f.ticker
			WHERE s.sector = $1 AND f.snapshot_date <= $2
			ORDER BY f.ticker, f.snapshot_date DESC
		)
		SELECT
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY per) FILTER (WHERE per > 0),
			PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY pbr) FILTER (WHERE pbr > 0)
		FROM latest
	`

	if err := r.pool.QueryRow(ctx, query, sector, asOf).Scan(&medianPER, &medianPBR); err != nil {
		return nil, nil, err
	}
	return medianPER, medianPBR, nil
}
