package trend

import (
	"sort"

	"github.com/wonny/whaleback/internal/contracts"
)

// SectorInput holds the per-sector aggregates fed into the rotation model.
// 집계(rs/변화율 평균)는 파이프라인의 사전 패스에서 수행됨.
type SectorInput struct {
	Sector      string
	StockCount  int
	AvgRS20D    float64
	AvgRSChange float64
}

// ClassifySectorRotation assigns each sector to a rotation quadrant.
//
// 경계는 고정 상수가 아니라 매 실행마다 전체 섹터의 중앙값으로 다시
// 계산한다. 시장 전체가 약한 날에도 사분면이 비지 않도록 하기 위함.
//
//	leading:   rs >= 중앙값, 모멘텀 >= 중앙값
//	weakening: rs >= 중앙값, 모멘텀 <  중앙값
//	improving: rs <  중앙값, 모멘텀 >= 중앙값
//	lagging:   rs <  중앙값, 모멘텀 <  중앙값
//
// 정확히 중앙값인 값은 >= 비교로 항상 위쪽에 배정됨 (결정적 동률 처리).
func ClassifySectorRotation(sectors []SectorInput) []contracts.SectorRotation {
	if len(sectors) == 0 {
		return nil
	}

	rsValues := make([]float64, 0, len(sectors))
	changeValues := make([]float64, 0, len(sectors))
	for _, s := range sectors {
		rsValues = append(rsValues, s.AvgRS20D)
		changeValues = append(changeValues, s.AvgRSChange)
	}
	rsMedian := median(rsValues)
	changeMedian := median(changeValues)

	// momentum_rank: 변화율 내림차순, 1 = 최고
	ranked := make([]int, len(sectors))
	order := make([]int, len(sectors))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sectors[order[a]].AvgRSChange > sectors[order[b]].AvgRSChange
	})
	for rank, idx := range order {
		ranked[idx] = rank + 1
	}

	results := make([]contracts.SectorRotation, 0, len(sectors))
	for i, s := range sectors {
		results = append(results, contracts.SectorRotation{
			Sector:       s.Sector,
			StockCount:   s.StockCount,
			AvgRS20D:     round4(s.AvgRS20D),
			AvgRSChange:  round2(s.AvgRSChange),
			MomentumRank: ranked[i],
			Quadrant:     classifyQuadrant(s.AvgRS20D, s.AvgRSChange, rsMedian, changeMedian),
		})
	}
	return results
}

func classifyQuadrant(rs, change, rsMedian, changeMedian float64) string {
	switch {
	case rs >= rsMedian && change >= changeMedian:
		return "leading"
	case rs >= rsMedian:
		return "weakening"
	case change >= changeMedian:
		return "improving"
	default:
		return "lagging"
	}
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
