package s0_data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// InvestorFlowRepository implements contracts.InvestorFlowRepository
// ⭐ SSOT: 수급 데이터 조회는 여기서만
type InvestorFlowRepository struct {
	pool *pgxpool.Pool
}

// NewInvestorFlowRepository creates a new investor flow repository
func NewInvestorFlowRepository(pool *pgxpool.Pool) *InvestorFlowRepository {
	return &InvestorFlowRepository{pool: pool}
}

// GetByTickerAndDateRange retrieves investor flow records, date ascending
func (r *InvestorFlowRepository) GetByTickerAndDateRange(ctx context.Context, ticker string, from, to time.Time) ([]*contracts.InvestorFlowRecord, error) {
	query := `
		SELECT ticker, trade_date,
		       inst_net_value, foreign_net_value, indiv_net_value,
		       pension_net_value, private_equity_net_value, other_corp_net_value
		FROM data.investor_flow
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flows []*contracts.InvestorFlowRecord
	for rows.Next() {
		var f contracts.InvestorFlowRecord
		if err := rows.Scan(
			&f.Ticker, &f.Date,
			&f.InstitutionNet, &f.ForeignNet, &f.IndividualNet,
			&f.PensionNet, &f.PrivateEquityNet, &f.OtherCorpNet,
		); err != nil {
			return nil, err
		}
		flows = append(flows, &f)
	}
	return flows, rows.Err()
}
