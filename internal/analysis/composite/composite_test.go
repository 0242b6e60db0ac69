package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/pkg/logger"
)

func f64(v float64) *float64 { return &v }
func intPtr(v int) *int      { return &v }

func newScorer() *Scorer {
	return NewScorer(analysisconfig.Default().Composite, logger.NewNop())
}

func fullInputs() Inputs {
	return Inputs{
		Quant:      &QuantInput{FScore: 8, SafetyMarginPct: f64(30.0), DataCompleteness: 1.0},
		Whale:      &WhaleInput{WhaleScore: 72.0, DataCompleteness: 1.0},
		Trend:      &TrendInput{RSPercentile: intPtr(80), SectorQuadrant: "leading"},
		Simulation: &SimulationInput{SimulationScore: 68.0},
	}
}

func TestCompute_AllAxes(t *testing.T) {
	s := newScorer()

	result := s.Compute("005930", fullInputs())

	require.NotNil(t, result.CompositeScore)
	assert.Equal(t, 4, result.AxesAvailable)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)

	// value = 0.55*85.80 + 0.45*76.85 = 81.77
	require.NotNil(t, result.ValueScore)
	assert.InDelta(t, 81.77, *result.ValueScore, 0.05)

	// momentum = 80 + 15(leading) = 95
	require.NotNil(t, result.MomentumScore)
	assert.InDelta(t, 95.0, *result.MomentumScore, 1e-9)

	// flow = 72, forecast = 68
	assert.InDelta(t, 72.0, *result.FlowScore, 1e-9)
	assert.InDelta(t, 68.0, *result.ForecastScore, 1e-9)

	// composite = 0.30*81.33 + 0.30*72 + 0.20*95 + 0.20*68
	expected := 0.30**result.ValueScore + 0.30*72.0 + 0.20*95.0 + 0.20*68.0
	assert.InDelta(t, expected, *result.CompositeScore, 0.05)

	// 가중치가 4축 전부에 배분됨
	assert.InDelta(t, 0.30, result.WeightsUsed[AxisValue], 1e-9)
	assert.InDelta(t, 0.20, result.WeightsUsed[AxisForecast], 1e-9)
}

func TestCompute_MissingAxisRedistributesWeights(t *testing.T) {
	s := newScorer()

	in := fullInputs()
	in.Simulation = nil // forecast 축 결측

	result := s.Compute("005930", in)

	assert.Equal(t, 3, result.AxesAvailable)
	assert.InDelta(t, 0.75, result.Confidence, 1e-9)

	// 가중치 재배분: 0.30/0.80, 0.30/0.80, 0.20/0.80
	assert.InDelta(t, 0.375, result.WeightsUsed[AxisValue], 1e-4)
	assert.InDelta(t, 0.375, result.WeightsUsed[AxisFlow], 1e-4)
	assert.InDelta(t, 0.25, result.WeightsUsed[AxisMomentum], 1e-4)
	assert.Equal(t, 0.0, result.WeightsUsed[AxisForecast])

	// 결측 축이 0점으로 섞이지 않음: 가용 축 점수의 가중 평균이어야 함
	expected := 0.375**result.ValueScore + 0.375*72.0 + 0.25*95.0
	assert.InDelta(t, expected, *result.CompositeScore, 0.05)
}

func TestCompute_LowCompletenessExcludesAxis(t *testing.T) {
	s := newScorer()

	in := fullInputs()
	in.Quant.DataCompleteness = 0.4 // 최소 기준(0.5) 미달

	result := s.Compute("005930", in)

	assert.Nil(t, result.ValueScore)
	assert.Equal(t, 3, result.AxesAvailable)
}

func TestCompute_NoAxes(t *testing.T) {
	s := newScorer()

	result := s.Compute("005930", Inputs{})

	assert.Nil(t, result.CompositeScore)
	assert.Equal(t, 0, result.AxesAvailable)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "unknown", result.Tier.Tier)
	assert.Equal(t, "no_data", result.Confluence.Pattern)
}

func TestCompute_SectorFlowBonusClamped(t *testing.T) {
	s := newScorer()

	in := Inputs{
		Whale:           &WhaleInput{WhaleScore: 95.0, DataCompleteness: 1.0},
		SectorFlowBonus: 15.0,
	}

	result := s.Compute("005930", in)

	require.NotNil(t, result.FlowScore)
	assert.InDelta(t, 100.0, *result.FlowScore, 1e-9)
}

func TestNormalizeFScore(t *testing.T) {
	// 1.3 지수는 중간 구간 압축: 5/9는 선형(55.6)보다 낮음
	assert.InDelta(t, 46.57, normalizeFScore(5), 0.05)
	assert.InDelta(t, 85.80, normalizeFScore(8), 0.05)
	assert.InDelta(t, 100.0, normalizeFScore(9), 1e-9)
	assert.InDelta(t, 0.0, normalizeFScore(0), 1e-9)
	assert.InDelta(t, 0.0, normalizeFScore(-3), 1e-9)
}

func TestNormalizeSafetyMargin(t *testing.T) {
	assert.InDelta(t, 50.0, normalizeSafetyMargin(f64(0)), 1e-9)
	assert.InDelta(t, 76.85, normalizeSafetyMargin(f64(30)), 0.05)
	assert.InDelta(t, 23.15, normalizeSafetyMargin(f64(-30)), 0.05)
	// 결측 마진은 중립값
	assert.InDelta(t, 50.0, normalizeSafetyMargin(nil), 1e-9)
	// 극단값에서도 오버플로 없이 [0,100] 경계 수렴
	assert.InDelta(t, 100.0, normalizeSafetyMargin(f64(1e9)), 0.01)
	assert.InDelta(t, 0.0, normalizeSafetyMargin(f64(-1e9)), 0.01)
}

func TestDetectConfluence_Tiers(t *testing.T) {
	tests := []struct {
		name         string
		value        *float64
		flow         *float64
		momentum     *float64
		forecast     *float64
		wantTier     int
		wantPattern  string
		wantAction   string
		wantDivLabel string
	}{
		{
			name:  "quad strong buy",
			value: f64(80), flow: f64(85), momentum: f64(90), forecast: f64(78),
			wantTier: 5, wantPattern: "quad_strong_buy", wantAction: "적극 매수",
		},
		{
			name:  "quad buy mixed strength",
			value: f64(80), flow: f64(65), momentum: f64(62), forecast: f64(70),
			wantTier: 4, wantPattern: "quad_buy", wantAction: "매수 추천",
		},
		{
			name:  "two strong plus neutral",
			value: f64(80), flow: f64(78), momentum: f64(50), forecast: nil,
			wantTier: 3, wantPattern: "multi_strong_buy", wantAction: "매수 검토",
		},
		{
			name:  "single strong signal",
			value: f64(80), flow: f64(50), momentum: f64(45), forecast: f64(55),
			wantTier: 2, wantPattern: "single_strong_buy", wantAction: "관심 편입",
		},
		{
			name:  "conflicting signals",
			value: f64(80), flow: f64(50), momentum: f64(20), forecast: f64(55),
			wantTier: 1, wantPattern: "mixed", wantAction: "관망",
			wantDivLabel: "가치-모멘텀 괴리 (바닥 가능성)",
		},
		{
			name:  "quad strong sell",
			value: f64(10), flow: f64(15), momentum: f64(20), forecast: f64(5),
			wantTier: 5, wantPattern: "quad_strong_sell", wantAction: "적극 매도",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DetectConfluence(tt.value, tt.flow, tt.momentum, tt.forecast)
			assert.Equal(t, tt.wantTier, c.Tier)
			assert.Equal(t, tt.wantPattern, c.Pattern)
			assert.Equal(t, tt.wantAction, c.ActionLabel)
			assert.Equal(t, tt.wantDivLabel, c.DivergenceLabel)
		})
	}
}

func TestLookupDivergence(t *testing.T) {
	tests := []struct {
		name     string
		v, f, m  string
		fc       string
		wantType string
	}{
		{"value up momentum down", SignalStrongBuy, SignalNeutral, SignalSell, SignalNeutral, "value_momentum_divergence"},
		{"momentum up value down", SignalSell, SignalNeutral, SignalBuy, SignalNeutral, "momentum_value_divergence"},
		{"flow up value down", SignalStrongSell, SignalStrongBuy, SignalNeutral, SignalNeutral, "flow_value_divergence"},
		{"forecast up value down", SignalSell, SignalNeutral, SignalNeutral, SignalBuy, "forecast_value_divergence"},
		{"forecast down momentum up", SignalNeutral, SignalNeutral, SignalStrongBuy, SignalSell, "forecast_momentum_divergence"},
		{"no conflict", SignalBuy, SignalBuy, SignalBuy, SignalBuy, ""},
		{"all neutral", SignalNeutral, SignalNeutral, SignalNeutral, SignalNeutral, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := lookupDivergence(tt.v, tt.f, tt.m, tt.fc)
			if tt.wantType == "" {
				assert.Nil(t, d)
				return
			}
			require.NotNil(t, d)
			assert.Equal(t, tt.wantType, d.Type)
		})
	}
}

func TestClassifyTier(t *testing.T) {
	tests := []struct {
		score    *float64
		wantTier string
		wantLbl  string
	}{
		{f64(92), "excellent", "최우량"},
		{f64(80), "excellent", "최우량"},
		{f64(70), "good", "우량"},
		{f64(55), "fair", "양호"},
		{f64(40), "average", "보통"},
		{f64(25), "caution", "주의"},
		{f64(10), "risk", "위험"},
		{nil, "unknown", "분석 불가"},
	}

	for _, tt := range tests {
		tier := ClassifyTier(tt.score)
		assert.Equal(t, tt.wantTier, tier.Tier)
		assert.Equal(t, tt.wantLbl, tier.Label)
	}
}

func TestComputeProfileScore(t *testing.T) {
	s := newScorer()
	in := fullInputs()

	// value 프로필: fscore>=6, margin>=10 모두 충족
	result := s.ComputeProfileScore("005930", in, "value")
	assert.True(t, result.Eligible)
	assert.Equal(t, "가치 투자", result.ProfileLabel)
	assert.True(t, result.FiltersMet["fscore"])
	assert.True(t, result.FiltersMet["safety_margin"])
	require.NotNil(t, result.Score)

	// momentum 프로필: rs_percentile 80 >= 70 충족
	result = s.ComputeProfileScore("005930", in, "momentum")
	assert.True(t, result.Eligible)

	// 미달 케이스
	in.Quant.FScore = 3
	result = s.ComputeProfileScore("005930", in, "value")
	assert.False(t, result.Eligible)
	assert.False(t, result.FiltersMet["fscore"])
}

func TestComputeProfileScore_UnknownProfileFallsBack(t *testing.T) {
	s := newScorer()

	result := s.ComputeProfileScore("005930", fullInputs(), "yolo")
	assert.Equal(t, "balanced", result.Profile)
}

func TestProfileWeightsSumToOne(t *testing.T) {
	for name, prof := range Profiles {
		sum := 0.0
		for _, w := range prof.Weights {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "profile %s", name)
	}
}
