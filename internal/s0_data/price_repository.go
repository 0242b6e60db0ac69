package s0_data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository
// ⭐ SSOT: 가격 데이터 조회는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetByTickerAndDateRange retrieves price bars for a ticker, date ascending
func (r *PriceRepository) GetByTickerAndDateRange(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.PriceBar, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume, trading_value
		FROM data.daily_prices
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []*contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradingValue); err != nil {
			return nil, err
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}

// GetLatestByTicker retrieves the most recent bar on or before asOf
func (r *PriceRepository) GetLatestByTicker(ctx context.Context, ticker string, asOf time.Time) (*contracts.PriceBar, error) {
	query := `
		SELECT ticker, trade_date, open_price, high_price, low_price, close_price, volume, trading_value
		FROM data.daily_prices
		WHERE ticker = $1 AND trade_date <= $2
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var b contracts.PriceBar
	err := r.pool.QueryRow(ctx, query, ticker, asOf).Scan(
		&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradingValue,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
