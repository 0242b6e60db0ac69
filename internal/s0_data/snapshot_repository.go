package s0_data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/whaleback/internal/contracts"
)

// SnapshotRepository persists and serves analysis snapshots
// ⭐ SSOT: 분석 결과 저장은 여기서만
//
// 테이블마다 조회용 핵심 컬럼 + 전체 레코드 JSONB payload를 함께 저장.
// 재실행 시 (ticker, as_of_date) upsert — append-only, 당일 내 갱신만 허용.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

func (r *SnapshotRepository) upsert(ctx context.Context, table, ticker string, asOf time.Time, score *float64, record interface{}) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", table, err)
	}

	query := fmt.Sprintf(`
		INSERT INTO analysis.%s (ticker, as_of_date, score, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker, as_of_date) DO UPDATE SET
			score = EXCLUDED.score,
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`, table)

	if _, err := r.pool.Exec(ctx, query, ticker, asOf, score, payload); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

// SaveQuant persists a valuation + F-Score + grade record
func (r *SnapshotRepository) SaveQuant(ctx context.Context, snap *contracts.QuantSnapshot) error {
	score := float64(snap.FScore)
	return r.upsert(ctx, "quant_snapshots", snap.Ticker, snap.AsOfDate, &score, snap)
}

// SaveWhale persists an institutional accumulation record
func (r *SnapshotRepository) SaveWhale(ctx context.Context, snap *contracts.WhaleSnapshot) error {
	return r.upsert(ctx, "whale_snapshots", snap.Ticker, snap.AsOfDate, &snap.WhaleScore, snap)
}

// SaveFlow persists a retail contrarian / smart-dumb divergence record
func (r *SnapshotRepository) SaveFlow(ctx context.Context, snap *contracts.FlowSnapshot) error {
	return r.upsert(ctx, "flow_snapshots", snap.Ticker, snap.AsOfDate, &snap.DivergenceScore, snap)
}

// SaveTrend persists a relative strength record
func (r *SnapshotRepository) SaveTrend(ctx context.Context, snap *contracts.TrendSnapshot) error {
	return r.upsert(ctx, "trend_snapshots", snap.Ticker, snap.AsOfDate, snap.CurrentRS, snap)
}

// SaveRisk persists a risk metrics record
func (r *SnapshotRepository) SaveRisk(ctx context.Context, snap *contracts.RiskSnapshot) error {
	return r.upsert(ctx, "risk_snapshots", snap.Ticker, snap.AsOfDate, snap.Volatility60D, snap)
}

// SaveSimulation persists a Monte Carlo ensemble record
func (r *SnapshotRepository) SaveSimulation(ctx context.Context, snap *contracts.SimulationSnapshot) error {
	return r.upsert(ctx, "simulation_snapshots", snap.Ticker, snap.AsOfDate, &snap.SimulationScore, snap)
}

// SaveComposite persists a composite score record
func (r *SnapshotRepository) SaveComposite(ctx context.Context, snap *contracts.CompositeSnapshot) error {
	return r.upsert(ctx, "composite_snapshots", snap.Ticker, snap.AsOfDate, snap.CompositeScore, snap)
}

// SaveSectorRotation replaces the sector rotation table for a date
func (r *SnapshotRepository) SaveSectorRotation(ctx context.Context, asOf time.Time, rotations []*contracts.SectorRotation) error {
	for _, rot := range rotations {
		payload, err := json.Marshal(rot)
		if err != nil {
			return fmt.Errorf("marshal sector rotation payload: %w", err)
		}
		query := `
			INSERT INTO analysis.sector_rotation (sector, as_of_date, quadrant, momentum_rank, payload)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (sector, as_of_date) DO UPDATE SET
				quadrant = EXCLUDED.quadrant,
				momentum_rank = EXCLUDED.momentum_rank,
				payload = EXCLUDED.payload,
				updated_at = NOW()
		`
		if _, err := r.pool.Exec(ctx, query, rot.Sector, asOf, rot.Quadrant, rot.MomentumRank, payload); err != nil {
			return fmt.Errorf("upsert sector rotation %s: %w", rot.Sector, err)
		}
	}
	return nil
}

// SaveSectorFlows upserts per (sector, investor type) flow aggregates
func (r *SnapshotRepository) SaveSectorFlows(ctx context.Context, flows []*contracts.SectorFlowSnapshot) error {
	for _, flow := range flows {
		payload, err := json.Marshal(flow)
		if err != nil {
			return fmt.Errorf("marshal sector flow payload: %w", err)
		}
		query := `
			INSERT INTO analysis.sector_flow (sector, investor_type, as_of_date, net_purchase, signal, payload)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (sector, investor_type, as_of_date) DO UPDATE SET
				net_purchase = EXCLUDED.net_purchase,
				signal = EXCLUDED.signal,
				payload = EXCLUDED.payload,
				updated_at = NOW()
		`
		if _, err := r.pool.Exec(ctx, query,
			flow.Sector, flow.InvestorType, flow.AsOfDate, flow.NetPurchase, flow.Signal, payload,
		); err != nil {
			return fmt.Errorf("upsert sector flow %s/%s: %w", flow.Sector, flow.InvestorType, err)
		}
	}
	return nil
}

// GetCompositeRanking returns the top N composite records for the most
// recent as_of_date at or before the given date, score descending.
func (r *SnapshotRepository) GetCompositeRanking(ctx context.Context, asOf time.Time, limit int) ([]*contracts.CompositeSnapshot, error) {
	query := `
		SELECT payload
		FROM analysis.composite_snapshots
		WHERE as_of_date = (
			SELECT MAX(as_of_date) FROM analysis.composite_snapshots WHERE as_of_date <= $1
		)
		AND score IS NOT NULL
		ORDER BY score DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []*contracts.CompositeSnapshot
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap contracts.CompositeSnapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal composite payload: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, rows.Err()
}

// TickerScores bundles every persisted axis for one ticker's latest date.
// 축이 없으면 해당 필드는 nil (부분 결과 허용).
type TickerScores struct {
	Quant      *contracts.QuantSnapshot      `json:"quant,omitempty"`
	Whale      *contracts.WhaleSnapshot      `json:"whale,omitempty"`
	Flow       *contracts.FlowSnapshot       `json:"flow,omitempty"`
	Trend      *contracts.TrendSnapshot      `json:"trend,omitempty"`
	Risk       *contracts.RiskSnapshot       `json:"risk,omitempty"`
	Simulation *contracts.SimulationSnapshot `json:"simulation,omitempty"`
	Composite  *contracts.CompositeSnapshot  `json:"composite,omitempty"`
}

// GetTickerScores loads the latest snapshot per axis for a ticker.
func (r *SnapshotRepository) GetTickerScores(ctx context.Context, ticker string) (*TickerScores, error) {
	// 축 부재(no rows)는 오류가 아니라 부분 결과
	load := func(table string, dest interface{}) (bool, error) {
		query := fmt.Sprintf(`
			SELECT payload
			FROM analysis.%s
			WHERE ticker = $1
			ORDER BY as_of_date DESC
			LIMIT 1
		`, table)

		var payload []byte
		err := r.pool.QueryRow(ctx, query, ticker).Scan(&payload)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("load %s: %w", table, err)
		}
		if err := json.Unmarshal(payload, dest); err != nil {
			return false, fmt.Errorf("unmarshal %s payload: %w", table, err)
		}
		return true, nil
	}

	scores := &TickerScores{}

	quant := &contracts.QuantSnapshot{}
	if found, err := load("quant_snapshots", quant); err != nil {
		return nil, err
	} else if found {
		scores.Quant = quant
	}

	whale := &contracts.WhaleSnapshot{}
	if found, err := load("whale_snapshots", whale); err != nil {
		return nil, err
	} else if found {
		scores.Whale = whale
	}

	flow := &contracts.FlowSnapshot{}
	if found, err := load("flow_snapshots", flow); err != nil {
		return nil, err
	} else if found {
		scores.Flow = flow
	}

	trend := &contracts.TrendSnapshot{}
	if found, err := load("trend_snapshots", trend); err != nil {
		return nil, err
	} else if found {
		scores.Trend = trend
	}

	risk := &contracts.RiskSnapshot{}
	if found, err := load("risk_snapshots", risk); err != nil {
		return nil, err
	} else if found {
		scores.Risk = risk
	}

	sim := &contracts.SimulationSnapshot{}
	if found, err := load("simulation_snapshots", sim); err != nil {
		return nil, err
	} else if found {
		scores.Simulation = sim
	}

	composite := &contracts.CompositeSnapshot{}
	if found, err := load("composite_snapshots", composite); err != nil {
		return nil, err
	} else if found {
		scores.Composite = composite
	}

	return scores, nil
}

// GetSectorRotation returns the rotation map for the latest date
func (r *SnapshotRepository) GetSectorRotation(ctx context.Context) ([]*contracts.SectorRotation, error) {
	query := `
		SELECT payload
		FROM analysis.sector_rotation
		WHERE as_of_date = (SELECT MAX(as_of_date) FROM analysis.sector_rotation)
		ORDER BY momentum_rank ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rotations []*contracts.SectorRotation
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rot contracts.SectorRotation
		if err := json.Unmarshal(payload, &rot); err != nil {
			return nil, fmt.Errorf("unmarshal sector rotation payload: %w", err)
		}
		rotations = append(rotations, &rot)
	}
	return rotations, rows.Err()
}
