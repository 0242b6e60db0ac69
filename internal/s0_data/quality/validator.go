package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// CoverageGate validates input data coverage before an analysis run
// ⭐ SSOT: 배치 전 데이터 커버리지 판정
type CoverageGate struct {
	db     *pgxpool.Pool
	config Config
}

// Config holds coverage thresholds
type Config struct {
	MinPriceCoverage       float64 `yaml:"min_price_coverage"`       // 0.95
	MinVolumeCoverage      float64 `yaml:"min_volume_coverage"`      // 0.95
	MinFundamentalCoverage float64 `yaml:"min_fundamental_coverage"` // 0.80
	MinInvestorCoverage    float64 `yaml:"min_investor_coverage"`    // 0.80
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{
		MinPriceCoverage:       0.95,
		MinVolumeCoverage:      0.95,
		MinFundamentalCoverage: 0.80,
		MinInvestorCoverage:    0.80,
	}
}

// NewCoverageGate creates a new CoverageGate instance
func NewCoverageGate(db *pgxpool.Pool, config Config) *CoverageGate {
	return &CoverageGate{db: db, config: config}
}

// Check computes coverage ratios for the analysis date.
// Passed=false는 배치 중단이 아닌 경고 — 부분 데이터로도 축 단위
// data_completeness가 결측을 전파한다.
func (g *CoverageGate) Check(ctx context.Context, date time.Time) (*contracts.DataCoverageSnapshot, error) {
	snapshot := &contracts.DataCoverageSnapshot{
		Date:     date,
		Coverage: make(map[string]float64),
	}

	total, err := g.countActiveTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active tickers: %w", err)
	}
	snapshot.TotalTickers = total

	priceCov, err := g.checkPriceCoverage(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("check price coverage: %w", err)
	}
	snapshot.Coverage["price"] = priceCov

	volumeCov, err := g.checkVolumeCoverage(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("check volume coverage: %w", err)
	}
	snapshot.Coverage["volume"] = volumeCov

	fundamentalCov, err := g.checkFundamentalCoverage(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("check fundamental coverage: %w", err)
	}
	snapshot.Coverage["fundamentals"] = fundamentalCov

	investorCov, err := g.checkInvestorCoverage(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("check investor coverage: %w", err)
	}
	snapshot.Coverage["investor"] = investorCov

	snapshot.QualityScore = g.calculateScore(snapshot.Coverage)
	snapshot.CoveredTicker = int(float64(total) * snapshot.QualityScore)
	snapshot.Passed = priceCov >= g.config.MinPriceCoverage &&
		volumeCov >= g.config.MinVolumeCoverage &&
		fundamentalCov >= g.config.MinFundamentalCoverage &&
		investorCov >= g.config.MinInvestorCoverage

	return snapshot, nil
}

func (g *CoverageGate) countActiveTickers(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM data.stocks WHERE status = 'active'`

	if err := g.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("query active tickers: %w", err)
	}
	return count, nil
}

func (g *CoverageGate) checkPriceCoverage(ctx context.Context, date time.Time) (float64, error) {
	query := `
		SELECT
			COALESCE(COUNT(DISTINCT dp.ticker)::FLOAT / NULLIF(COUNT(DISTINCT s.ticker), 0), 0)
		FROM data.stocks s
		LEFT JOIN data.daily_prices dp ON s.ticker = dp.ticker AND dp.trade_date = $1
		WHERE s.status = 'active'
	`

	var coverage float64
	if err := g.db.QueryRow(ctx, query, date).Scan(&coverage); err != nil {
		return 0, fmt.Errorf("query price coverage: %w", err)
	}
	return coverage, nil
}

func (g *CoverageGate) checkVolumeCoverage(ctx context.Context, date time.Time) (float64, error) {
	query := `
		SELECT
			COALESCE(COUNT(DISTINCT dp.ticker)::FLOAT / NULLIF(COUNT(DISTINCT s.ticker), 0), 0)
		FROM data.stocks s
		LEFT JOIN data.daily_prices dp ON s.ticker = dp.ticker
			AND dp.trade_date = $1
			AND dp.volume > 0
		WHERE s.status = 'active'
	`

	var coverage float64
	if err := g.db.QueryRow(ctx, query, date).Scan(&coverage); err != nil {
		return 0, fmt.Errorf("query volume coverage: %w", err)
	}
	return coverage, nil
}

func (g *CoverageGate) checkFundamentalCoverage(ctx context.Context, date time.Time) (float64, error) {
	// 최근 90일 이내 재무 스냅샷이 있는 종목 비율
	query := `
		SELECT
			COALESCE(COUNT(DISTINCT f.ticker)::FLOAT / NULLIF(COUNT(DISTINCT s.ticker), 0), 0)
		FROM data.stocks s
		LEFT JOIN data.fundamentals f ON s.ticker = f.ticker
			AND f.snapshot_date >= ($1::date - INTERVAL '90 days')
		WHERE s.status = 'active'
	`

	var coverage float64
	if err := g.db.QueryRow(ctx, query, date).Scan(&coverage); err != nil {
		return 0, fmt.Errorf("query fundamental coverage: %w", err)
	}
	return coverage, nil
}

func (g *CoverageGate) checkInvestorCoverage(ctx context.Context, date time.Time) (float64, error) {
	query := `
		SELECT
			COALESCE(COUNT(DISTINCT ifl.ticker)::FLOAT / NULLIF(COUNT(DISTINCT s.ticker), 0), 0)
		FROM data.stocks s
		LEFT JOIN data.investor_flow ifl ON s.ticker = ifl.ticker AND ifl.trade_date = $1
		WHERE s.status = 'active'
	`

	var coverage float64
	if err := g.db.QueryRow(ctx, query, date).Scan(&coverage); err != nil {
		return 0, fmt.Errorf("query investor coverage: %w", err)
	}
	return coverage, nil
}

// calculateScore weights the coverage ratios. 가격/거래량이 분석의
// 전제이므로 높은 가중치.
func (g *CoverageGate) calculateScore(coverage map[string]float64) float64 {
	weights := map[string]float64{
		"price":        0.35,
		"volume":       0.25,
		"fundamentals": 0.20,
		"investor":     0.20,
	}

	score := 0.0
	for key, weight := range weights {
		score += coverage[key] * weight
	}
	return score
}
