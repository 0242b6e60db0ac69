package contracts

import (
	"context"
	"time"
)

// PriceBar represents one trading day of OHLCV data for a ticker
// ⭐ SSOT: 수집 후 불변, 날짜 기준 append-only
type PriceBar struct {
	Ticker       string    `json:"ticker"`
	Date         time.Time `json:"date"`
	Open         int64     `json:"open"`
	High         int64     `json:"high"`
	Low          int64     `json:"low"`
	Close        int64     `json:"close"`
	Volume       int64     `json:"volume"`
	TradingValue int64     `json:"trading_value"` // 거래대금 (KRW)
}

// IndexBar is a benchmark index bar. Same shape as PriceBar but index
// levels are fractional, so float64.
type IndexBar struct {
	IndexCode    string    `json:"index_code"`
	Date         time.Time `json:"date"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
	TradingValue int64     `json:"trading_value"`
}

// FundamentalSnapshot holds per-ticker fundamental metrics for a date.
// 손실 기업의 PER처럼 정의되지 않는 값이 있으므로 모든 지표는 nullable.
type FundamentalSnapshot struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	BPS    *float64  `json:"bps"`
	PER    *float64  `json:"per"`
	PBR    *float64  `json:"pbr"`
	EPS    *float64  `json:"eps"`
	DIV    *float64  `json:"div"` // 배당수익률 (%)
	DPS    *float64  `json:"dps"`
	ROE    *float64  `json:"roe"` // percentage value, 13.21 = 13.21%
}

// InvestorFlowRecord holds one day of net purchases by investor type.
// Net = buy - sell in KRW; sign encodes direction.
type InvestorFlowRecord struct {
	Ticker           string    `json:"ticker"`
	Date             time.Time `json:"date"`
	InstitutionNet   int64     `json:"institution_net"`
	ForeignNet       int64     `json:"foreign_net"`
	IndividualNet    int64     `json:"individual_net"`
	PensionNet       int64     `json:"pension_net"`
	PrivateEquityNet int64     `json:"private_equity_net"`
	OtherCorpNet     int64     `json:"other_corp_net"`
}

// SectorMembership maps a ticker to its sector (many-to-one)
type SectorMembership struct {
	Ticker     string `json:"ticker"`
	SectorName string `json:"sector_name"`
}

// DataCoverageSnapshot summarises input data coverage for one analysis date.
// 배치 시작 전 게이트 판정에 사용. Passed=false여도 배치는 계속하되 경고.
type DataCoverageSnapshot struct {
	Date          time.Time          `json:"date"`
	TotalTickers  int                `json:"total_tickers"`
	CoveredTicker int                `json:"covered_tickers"`
	Coverage      map[string]float64 `json:"coverage"` // price | volume | fundamentals | investor
	QualityScore  float64            `json:"quality_score"`
	Passed        bool               `json:"passed"`
}

// =============================================================================
// Repository interfaces (data-access layer, implemented in internal/s0_data)
// =============================================================================

// PriceRepository provides ordered read access to price bars.
// 반환 시계열은 날짜 오름차순이며 휴장일/결측일 gap을 포함할 수 있음.
type PriceRepository interface {
	GetByTickerAndDateRange(ctx context.Context, ticker string, from, to time.Time) ([]*PriceBar, error)
	GetLatestByTicker(ctx context.Context, ticker string, asOf time.Time) (*PriceBar, error)
}

// FundamentalRepository provides read access to fundamental snapshots
type FundamentalRepository interface {
	GetLatestByTicker(ctx context.Context, ticker string, asOf time.Time) (*FundamentalSnapshot, error)
	GetNearestByTicker(ctx context.Context, ticker string, around time.Time) (*FundamentalSnapshot, error)
}

// InvestorFlowRepository provides read access to investor flow records
type InvestorFlowRepository interface {
	GetByTickerAndDateRange(ctx context.Context, ticker string, from, to time.Time) ([]*InvestorFlowRecord, error)
}

// SectorRepository provides sector membership reference data
type SectorRepository interface {
	GetSectorMap(ctx context.Context) (map[string]string, error)
	GetActiveTickers(ctx context.Context) ([]string, error)
}

// IndexRepository provides benchmark index bars
type IndexRepository interface {
	GetByDateRange(ctx context.Context, indexCode string, from, to time.Time) ([]*IndexBar, error)
}
