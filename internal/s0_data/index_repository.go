package s0_data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// IndexRepository implements contracts.IndexRepository
// ⭐ SSOT: 벤치마크 지수 조회는 여기서만
type IndexRepository struct {
	pool *pgxpool.Pool
}

// NewIndexRepository creates a new index repository
func NewIndexRepository(pool *pgxpool.Pool) *IndexRepository {
	return &IndexRepository{pool: pool}
}

// GetByDateRange retrieves index bars for a benchmark, date ascending
func (r *IndexRepository) GetByDateRange(ctx context.Context, indexCode string, from, to time.Time) ([]*contracts.IndexBar, error) {
	query := `
		SELECT index_code, trade_date, open_value, high_value, low_value, close_value, volume, trading_value
		FROM data.index_prices
		WHERE index_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, indexCode, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []*contracts.IndexBar
	for rows.Next() {
		var b contracts.IndexBar
		if err := rows.Scan(&b.IndexCode, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.TradingValue); err != nil {
			return nil, err
		}
		bars = append(bars, &b)
	}
	return bars, rows.Err()
}
