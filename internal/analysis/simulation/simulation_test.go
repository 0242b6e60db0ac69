package simulation

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

func testConfig() analysisconfig.Simulation {
	cfg := analysisconfig.Default().Simulation
	cfg.NumPaths = 2000 // 테스트에서는 경로 수 축소
	return cfg
}

// syntheticCloses generates a lognormal random walk with a fixed seed
func syntheticCloses(days int, dailyMu, dailySigma float64) []float64 {
	rng := rand.New(rand.NewSource(7))
	closes := make([]float64, days)
	price := 50000.0
	for i := 0; i < days; i++ {
		price *= math.Exp(dailyMu + dailySigma*rng.NormFloat64())
		closes[i] = price
	}
	return closes
}

func TestComputeDeterministic(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := syntheticCloses(250, 0.0005, 0.02)

	first, err := e.Compute("005930", closes)
	require.NoError(t, err)
	second, err := e.Compute("005930", closes)
	require.NoError(t, err)

	assert.Equal(t, first.SimulationScore, second.SimulationScore)
	assert.Equal(t, first.SimulationGrade, second.SimulationGrade)
	assert.Equal(t, first.Horizons, second.Horizons)
	assert.Equal(t, first.TargetProbs, second.TargetProbs)
	assert.Equal(t, first.Seeds, second.Seeds)
}

func TestComputePercentileOrdering(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := syntheticCloses(250, 0.0005, 0.02)

	result, err := e.Compute("005930", closes)
	require.NoError(t, err)
	require.Len(t, result.Horizons, 3)

	for days, h := range result.Horizons {
		assert.LessOrEqual(t, h.P5, h.P25, "horizon %d", days)
		assert.LessOrEqual(t, h.P25, h.P50, "horizon %d", days)
		assert.LessOrEqual(t, h.P50, h.P75, "horizon %d", days)
		assert.LessOrEqual(t, h.P75, h.P95, "horizon %d", days)
		assert.GreaterOrEqual(t, h.UpsideProb, 0.0)
		assert.LessOrEqual(t, h.UpsideProb, 1.0)
	}
}

func TestComputeInsufficientHistory(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := syntheticCloses(40, 0.0005, 0.02)

	_, err := e.Compute("005930", closes)
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)
}

func TestComputeSkipsDirtyPrices(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := syntheticCloses(250, 0.0005, 0.02)
	closes = append(closes, math.NaN(), -100, 0)

	result, err := e.Compute("005930", closes)
	require.NoError(t, err)
	assert.Equal(t, 250, result.InputDaysUsed)
}

func TestComputeConstantPrices(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := make([]float64, 100)
	for i := range closes {
		closes[i] = 50000
	}

	_, err := e.Compute("005930", closes)
	assert.Error(t, err)
}

func TestComputeResultMetadata(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := syntheticCloses(250, 0.0005, 0.02)

	result, err := e.Compute("005930", closes)
	require.NoError(t, err)

	assert.Equal(t, int64(closes[len(closes)-1]), result.BasePrice)
	assert.Equal(t, 2000, result.NumSimulations)
	assert.Greater(t, result.Sigma, 0.0)
	assert.LessOrEqual(t, result.Sigma, 1.50)
	assert.Len(t, result.Seeds, 4)
	assert.Len(t, result.ModelBreakdown, 4)

	// 가중치는 가용 모델에 재정규화되어 합이 1
	total := 0.0
	for _, ms := range result.ModelBreakdown {
		total += ms.Weight
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestSeedForStablePerModel(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())

	seen := map[int64]bool{}
	for _, model := range AllModels {
		s1 := e.seedFor("005930", model)
		s2 := e.seedFor("005930", model)
		assert.Equal(t, s1, s2)
		assert.GreaterOrEqual(t, s1, int64(0))
		seen[s1] = true
	}
	assert.Len(t, seen, 4, "each model gets a distinct seed")

	assert.NotEqual(t, e.seedFor("005930", ModelGBM), e.seedFor("000660", ModelGBM))
}

// GBM 종가 평균은 S0·exp(μ_arith·h)에 수렴해야 한다 (drift 복원 검증)
func TestGBMTerminalMeanMatchesDrift(t *testing.T) {
	dailySigma := 0.01
	dailyMuArith := 0.001
	// 로그수익률 평균이 μ_arith − ½σ²가 되도록 구성
	dailyLogMu := dailyMuArith - 0.5*dailySigma*dailySigma

	rng := rand.New(rand.NewSource(11))
	logReturns := make([]float64, 500)
	for i := range logReturns {
		logReturns[i] = dailyLogMu + dailySigma*rng.NormFloat64()
	}

	basePrice := int64(10000)
	horizon := 21
	result := simulateGBM(logReturns, basePrice, 20000, []int{horizon},
		rand.New(rand.NewSource(1)), 1.50, 0, 1.0)
	require.NotNil(t, result)

	prices := result.TerminalPrices[horizon]
	require.NotEmpty(t, prices)

	m := estimateMoments(logReturns)
	expected := float64(basePrice) * math.Exp(m.muArithDaily*float64(horizon))
	assert.InDelta(t, expected, mean(prices), expected*0.05)
}

func TestTargetProbsMonotone(t *testing.T) {
	e := NewEngine(testConfig(), logger.NewNop())
	closes := syntheticCloses(250, 0.0005, 0.02)

	result, err := e.Compute("005930", closes)
	require.NoError(t, err)

	require.Contains(t, result.TargetProbs, "1.1")
	require.Contains(t, result.TargetProbs, "1.3")
	require.Contains(t, result.TargetProbs, "1.5")

	for days := range result.Horizons {
		p110 := result.TargetProbs["1.1"][days]
		p130 := result.TargetProbs["1.3"][days]
		p150 := result.TargetProbs["1.5"][days]
		assert.Greater(t, p110, 0.0, "horizon %d", days)
		assert.GreaterOrEqual(t, p110, p130, "horizon %d", days)
		assert.GreaterOrEqual(t, p130, p150, "horizon %d", days)
	}
}

func TestFitGARCHVarianceDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	logReturns := make([]float64, 300)
	sigma := 0.01
	// 단순 변동성 군집: 구간별 σ 전환
	for i := range logReturns {
		if i%60 == 0 {
			if sigma == 0.01 {
				sigma = 0.03
			} else {
				sigma = 0.01
			}
		}
		logReturns[i] = sigma * rng.NormFloat64()
	}

	f1 := fitGARCHVariance(logReturns, 21)
	f2 := fitGARCHVariance(logReturns, 21)
	assert.Equal(t, f1, f2)
	assert.Len(t, f1, 21)
}

func TestSimulateGARCHShortHistory(t *testing.T) {
	logReturns := make([]float64, garchMinReturns-1)
	result := simulateGARCH(logReturns, 10000, 100, []int{21},
		rand.New(rand.NewSource(1)), 1.50, 0, 1.0)
	assert.Nil(t, result)
}

func TestScoreFromHorizons(t *testing.T) {
	tests := []struct {
		name      string
		ret6m     float64
		upside3m  float64
		var3m     float64
		wantGrade string
	}{
		{"strong upside", 40.0, 0.85, -8.0, "positive"},
		{"flat", 0.0, 0.50, -15.0, "neutral_positive"},
		{"mildly weak", -10.0, 0.40, -22.0, "neutral"},
		{"deep drawdown", -30.0, 0.15, -35.0, "negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			horizons := map[int]contracts.HorizonStats{
				horizon3M: {UpsideProb: tt.upside3m, VaR5PctPct: tt.var3m},
				horizon6M: {ExpectedReturnPct: tt.ret6m},
			}
			score, grade := scoreFromHorizons(horizons)
			require.NotNil(t, score)
			assert.GreaterOrEqual(t, *score, 0.0)
			assert.LessOrEqual(t, *score, 100.0)
			assert.Equal(t, tt.wantGrade, grade)
		})
	}
}

func TestScoreFromHorizonsMissing(t *testing.T) {
	score, grade := scoreFromHorizons(map[int]contracts.HorizonStats{
		21: {ExpectedReturnPct: 5},
	})
	assert.Nil(t, score)
	assert.Empty(t, grade)
}
