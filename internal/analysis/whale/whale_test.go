package whale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

func makeRecords(days int, fill func(i int, r *contracts.InvestorFlowRecord)) []*contracts.InvestorFlowRecord {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	records := make([]*contracts.InvestorFlowRecord, 0, days)
	for i := 0; i < days; i++ {
		r := &contracts.InvestorFlowRecord{
			Ticker: "005930",
			Date:   base.AddDate(0, 0, i),
		}
		fill(i, r)
		records = append(records, r)
	}
	return records
}

func TestCompute_SustainedInstitutionBuying(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 기관이 20일 연속 매수, 일평균 거래대금의 10%
	records := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		r.InstitutionNet = 1_000_000_000
	})

	result := e.Compute("005930", records, 10_000_000_000)

	inst := result.Components["institution"]
	assert.Equal(t, 20, inst.BuyDays)
	assert.Equal(t, 0, inst.SellDays)
	assert.InDelta(t, 1.0, inst.Consistency, 1e-9)
	assert.InDelta(t, 0.1, inst.Intensity, 1e-9)
	// subscore = 1.0*60 + min(0.1*40, 40) = 64
	assert.InDelta(t, 64.0, inst.Score, 1e-9)

	// 기관만 활성 → whale = 64*0.5 + 64*0.5 = 64 → mild_accumulation
	assert.InDelta(t, 64.0, result.WhaleScore, 1e-9)
	assert.Equal(t, "mild_accumulation", result.Signal)
	assert.Equal(t, "완만한 매집", result.SignalLabel)
	assert.Equal(t, 20, result.LookbackDays)
	assert.InDelta(t, 1.0, result.DataCompleteness, 1e-9)
}

func TestCompute_IntensityCappedAtOne(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	records := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		r.ForeignNet = 500_000_000_000 // 거래대금 훨씬 초과
	})

	result := e.Compute("005930", records, 1_000_000_000)

	frgn := result.Components["foreign"]
	assert.InDelta(t, 1.0, frgn.Intensity, 1e-9)
	// 60 + 40 = 100, 클램프 경계
	assert.InDelta(t, 100.0, frgn.Score, 1e-9)
	assert.Equal(t, "strong_accumulation", result.Signal)
	assert.LessOrEqual(t, result.WhaleScore, 100.0)
}

func TestCompute_IntensityFallbackWithoutTradingValue(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	records := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		r.PensionNet = 100_000_000
	})

	result := e.Compute("005930", records, 0)

	pension := result.Components["pension"]
	// intensity = consistency * 0.5 = 0.5 → subscore = 60 + 20 = 80
	assert.InDelta(t, 0.5, pension.Intensity, 1e-9)
	assert.InDelta(t, 80.0, pension.Score, 1e-9)
	assert.Equal(t, "strong_accumulation", result.Signal)
}

func TestCompute_DistributionRequiresNegativeNet(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 전 주체 매도 → 낮은 점수 + 음수 순매수 → distribution
	selling := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		r.InstitutionNet = -500_000_000
		r.ForeignNet = -300_000_000
	})
	result := e.Compute("005930", selling, 10_000_000_000)
	assert.Less(t, result.WhaleScore, 30.0)
	assert.Equal(t, "distribution", result.Signal)
	assert.Equal(t, "매도 우위", result.SignalLabel)

	// 점수는 낮지만 순매수 합이 양수 → distribution이 아닌 neutral
	mixed := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		if i == 19 {
			r.InstitutionNet = 10_000_000_000 // 마지막 날 대량 매수
		} else {
			r.InstitutionNet = -100_000_000
		}
	})
	result = e.Compute("005930", mixed, 100_000_000_000_000)
	require.Less(t, result.WhaleScore, 30.0)
	assert.Equal(t, "neutral", result.Signal)
}

func TestCompute_ShortHistoryReducesCompleteness(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 신규 상장: 8일치만 존재
	records := makeRecords(8, func(i int, r *contracts.InvestorFlowRecord) {
		r.InstitutionNet = 1_000_000_000
	})

	result := e.Compute("005930", records, 10_000_000_000)

	assert.Equal(t, 8, result.LookbackDays)
	assert.InDelta(t, 0.4, result.DataCompleteness, 1e-9)
	// 짧은 창에서도 점수는 정상 계산
	assert.Greater(t, result.WhaleScore, 0.0)
}

func TestCompute_EmptyRecords(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	result := e.Compute("005930", nil, 10_000_000_000)

	assert.Equal(t, 0.0, result.WhaleScore)
	assert.Equal(t, "neutral", result.Signal)
	assert.Equal(t, 0, result.LookbackDays)
	assert.Len(t, result.Components, len(InvestorTypes))
}

func TestCompute_UsesOnlyMostRecentLookback(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 과거 40일은 매도, 최근 20일은 매수 → 최근 창만 반영되어야 함
	records := makeRecords(60, func(i int, r *contracts.InvestorFlowRecord) {
		if i < 40 {
			r.InstitutionNet = -1_000_000_000
		} else {
			r.InstitutionNet = 1_000_000_000
		}
	})

	result := e.Compute("005930", records, 10_000_000_000)

	inst := result.Components["institution"]
	assert.Equal(t, 20, inst.BuyDays)
	assert.Equal(t, 0, inst.SellDays)
	assert.Equal(t, int64(20_000_000_000), inst.NetTotal)
}

func TestAvgTradingValue_SkipsZeroDays(t *testing.T) {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := []*contracts.PriceBar{
		{Date: base, TradingValue: 1_000_000},
		{Date: base.AddDate(0, 0, 1), TradingValue: 0}, // 거래정지일
		{Date: base.AddDate(0, 0, 2), TradingValue: 3_000_000},
	}

	assert.InDelta(t, 2_000_000, AvgTradingValue(bars), 1e-9)
	assert.Equal(t, 0.0, AvgTradingValue(nil))
}

func TestComputeRetailContrarian(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 80일 중 마지막 20일에 개인이 비정상적 대량 매수 → Z > 2
	records := makeRecords(80, func(i int, r *contracts.InvestorFlowRecord) {
		if i >= 60 {
			r.IndividualNet = 5_000_000_000
		} else {
			r.IndividualNet = 10_000_000
		}
	})

	result := e.ComputeRetailContrarian(records, 10_000_000_000)

	assert.Greater(t, result.RetailZ, 2.0)
	assert.Equal(t, "extreme_buying", result.Signal)
	assert.Equal(t, "역발상 매도 경고", result.SignalLabel)
	assert.InDelta(t, 1.0, result.RetailConsistency, 1e-9)
}

func TestComputeRetailContrarian_InsufficientHistory(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 60일 미만이면 Z=0 → neutral
	records := makeRecords(30, func(i int, r *contracts.InvestorFlowRecord) {
		r.IndividualNet = 5_000_000_000
	})

	result := e.ComputeRetailContrarian(records, 10_000_000_000)

	assert.Equal(t, 0.0, result.RetailZ)
	assert.Equal(t, "neutral", result.Signal)
}

func TestComputeSmartDumbDivergence(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	// 스마트머니 매수 / 개인 매도 → 양의 괴리
	records := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		r.InstitutionNet = 2_000_000_000
		r.ForeignNet = 2_000_000_000
		r.PensionNet = 1_000_000_000
		r.IndividualNet = -5_000_000_000
	})

	result := e.ComputeSmartDumbDivergence(records, 10_000_000_000)

	// smart = 100e9/200e9 = 0.5, dumb = -100e9/200e9 = -0.5 → divergence = 1.0
	assert.InDelta(t, 0.5, result.SmartRatio, 1e-9)
	assert.InDelta(t, -0.5, result.DumbRatio, 1e-9)
	assert.InDelta(t, 1.0, result.DivergenceScore, 1e-9)
	assert.Equal(t, "smart_accumulation", result.Signal)
	assert.Equal(t, "스마트머니 매집", result.SignalLabel)
}

func TestComputeSmartDumbDivergence_Mixed(t *testing.T) {
	e := NewEngine(20, logger.NewNop())

	records := makeRecords(20, func(i int, r *contracts.InvestorFlowRecord) {
		r.InstitutionNet = 100_000_000
		r.IndividualNet = 50_000_000
	})

	result := e.ComputeSmartDumbDivergence(records, 10_000_000_000)

	assert.Equal(t, "mixed", result.Signal)
	assert.Equal(t, "혼재", result.SignalLabel)
}
