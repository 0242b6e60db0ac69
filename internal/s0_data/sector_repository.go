package s0_data

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SectorRepository implements contracts.SectorRepository
// ⭐ SSOT: 종목-섹터 참조 데이터는 여기서만
type SectorRepository struct {
	pool *pgxpool.Pool
}

// NewSectorRepository creates a new sector repository
func NewSectorRepository(pool *pgxpool.Pool) *SectorRepository {
	return &SectorRepository{pool: pool}
}

// GetSectorMap returns ticker -> sector name for all active stocks
func (r *SectorRepository) GetSectorMap(ctx context.Context) (map[string]string, error) {
	query := `
		SELECT ticker, COALESCE(sector, '')
		FROM data.stocks
		WHERE status = 'active'
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sectorMap := make(map[string]string)
	for rows.Next() {
		var ticker, sector string
		if err := rows.Scan(&ticker, &sector); err != nil {
			return nil, err
		}
		sectorMap[ticker] = sector
	}
	return sectorMap, rows.Err()
}

// GetActiveTickers returns the analysis universe in ticker order
func (r *SectorRepository) GetActiveTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT ticker
		FROM data.stocks
		WHERE status = 'active'
		ORDER BY ticker ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
