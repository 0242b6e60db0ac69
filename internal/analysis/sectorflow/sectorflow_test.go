package sectorflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

var asOf = time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)

func makeFlows(ticker string, days int, institutionNet int64) []*contracts.InvestorFlowRecord {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	records := make([]*contracts.InvestorFlowRecord, 0, days)
	for i := 0; i < days; i++ {
		records = append(records, &contracts.InvestorFlowRecord{
			Ticker:         ticker,
			Date:           base.AddDate(0, 0, i),
			InstitutionNet: institutionNet,
		})
	}
	return records
}

func findRow(rows []*contracts.SectorFlowSnapshot, sector, investorType string) *contracts.SectorFlowSnapshot {
	for _, r := range rows {
		if r.Sector == sector && r.InvestorType == investorType {
			return r
		}
	}
	return nil
}

func TestCompute_AggregatesAcrossSectorMembers(t *testing.T) {
	a := NewAggregator(20, logger.NewNop())

	sectorMap := map[string]string{
		"005930": "반도체",
		"000660": "반도체",
	}
	flows := map[string][]*contracts.InvestorFlowRecord{
		"005930": makeFlows("005930", 20, 1_000_000_000),
		"000660": makeFlows("000660", 20, 500_000_000),
	}
	tradingValues := map[string]float64{
		"005930": 3_000_000_000,
		"000660": 1_000_000_000,
	}

	rows := a.Compute(asOf, sectorMap, flows, tradingValues)

	// 섹터 1개 × 주체 5개
	require.Len(t, rows, 5)

	inst := findRow(rows, "반도체", "institution")
	require.NotNil(t, inst)
	assert.Equal(t, int64(30_000_000_000), inst.NetPurchase)
	assert.Equal(t, 2, inst.StockCount)
	assert.InDelta(t, 1.0, inst.Consistency, 1e-9)
	// avg daily net = 1.5e9, sector trading value = 4e9 → intensity = 0.375
	assert.InDelta(t, 0.375, inst.Intensity, 1e-9)
	assert.Equal(t, "strong_accumulation", inst.Signal)
	assert.Equal(t, int64(7_500_000_000), inst.Trend5D)
	assert.Equal(t, int64(30_000_000_000), inst.Trend20D)
}

func TestCompute_NoFlowForType(t *testing.T) {
	a := NewAggregator(20, logger.NewNop())

	sectorMap := map[string]string{"005930": "반도체"}
	flows := map[string][]*contracts.InvestorFlowRecord{
		"005930": makeFlows("005930", 20, 1_000_000_000),
	}

	rows := a.Compute(asOf, sectorMap, flows, map[string]float64{"005930": 10_000_000_000})

	// 기관 외 주체는 전부 0 → neutral
	pension := findRow(rows, "반도체", "pension")
	require.NotNil(t, pension)
	assert.Equal(t, int64(0), pension.NetPurchase)
	assert.Equal(t, "neutral", pension.Signal)
}

func TestCompute_DistributionSignal(t *testing.T) {
	a := NewAggregator(20, logger.NewNop())

	sectorMap := map[string]string{"005380": "자동차"}
	flows := map[string][]*contracts.InvestorFlowRecord{
		"005380": makeFlows("005380", 20, -2_000_000_000),
	}

	rows := a.Compute(asOf, sectorMap, flows, map[string]float64{"005380": 10_000_000_000})

	inst := findRow(rows, "자동차", "institution")
	require.NotNil(t, inst)
	assert.Negative(t, inst.NetPurchase)
	assert.InDelta(t, 0.0, inst.Consistency, 1e-9)
	assert.Equal(t, "distribution", inst.Signal)
}

func TestCompute_SkipsTickersWithoutFlowData(t *testing.T) {
	a := NewAggregator(20, logger.NewNop())

	sectorMap := map[string]string{
		"005930": "반도체",
		"999999": "반도체", // 수급 데이터 없음
	}
	flows := map[string][]*contracts.InvestorFlowRecord{
		"005930": makeFlows("005930", 20, 1_000_000_000),
	}

	rows := a.Compute(asOf, sectorMap, flows, map[string]float64{"005930": 10_000_000_000})

	inst := findRow(rows, "반도체", "institution")
	require.NotNil(t, inst)
	assert.Equal(t, 1, inst.StockCount)
}

func TestCompute_Empty(t *testing.T) {
	a := NewAggregator(20, logger.NewNop())
	assert.Empty(t, a.Compute(asOf, nil, nil, nil))
}
