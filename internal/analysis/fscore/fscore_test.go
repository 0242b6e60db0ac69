package fscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func fullSnapshot() *contracts.FundamentalSnapshot {
	return &contracts.FundamentalSnapshot{
		BPS: f64(45230),
		PER: f64(9.8),
		PBR: f64(1.1),
		EPS: f64(5120),
		DIV: f64(2.1),
		ROE: f64(13.21),
	}
}

func prevSnapshot() *contracts.FundamentalSnapshot {
	return &contracts.FundamentalSnapshot{
		BPS: f64(41800),
		PER: f64(11.2),
		PBR: f64(1.25),
		EPS: f64(4430),
		DIV: f64(1.9),
		ROE: f64(12.05),
	}
}

func TestCompute_AllSignalsPass(t *testing.T) {
	s := NewScorer(logger.NewNop())

	medians := SectorMedians{MedianPER: f64(12.5), MedianPBR: f64(1.4)}
	result := s.Compute("005930", fullSnapshot(), prevSnapshot(), medians,
		i64(15_000_000), i64(12_000_000))

	assert.Equal(t, 9, result.Score)
	assert.Equal(t, 9, result.MaxScore)
	assert.Len(t, result.Criteria, 9)
	assert.Equal(t, 1.0, result.DataCompleteness)

	for _, c := range result.Criteria {
		assert.Equal(t, 1, c.Score, "criterion %s should pass", c.Name)
	}
}

func TestCompute_OneSignalFails(t *testing.T) {
	s := NewScorer(logger.NewNop())

	// EPS 감소 → eps_increasing만 실패
	current := fullSnapshot()
	current.EPS = f64(4000)
	prev := prevSnapshot() // prev EPS 4430

	medians := SectorMedians{MedianPER: f64(12.5), MedianPBR: f64(1.4)}
	result := s.Compute("005930", current, prev, medians,
		i64(15_000_000), i64(12_000_000))

	assert.Equal(t, 8, result.Score)
	assert.Equal(t, 1.0, result.DataCompleteness)

	byName := criteriaByName(result.Criteria)
	assert.Equal(t, 0, byName["eps_increasing"].Score)
	require.NotNil(t, byName["eps_increasing"].Value)
	assert.InDelta(t, -430.0, *byName["eps_increasing"].Value, 1e-9)
	assert.Equal(t, 1, byName["positive_eps"].Score)
}

func TestCompute_MissingInputsScoreZero(t *testing.T) {
	s := NewScorer(logger.NewNop())

	current := fullSnapshot()
	current.ROE = nil // kills positive_roe and roe_increasing

	result := s.Compute("005930", current, prevSnapshot(),
		SectorMedians{MedianPER: f64(12.5), MedianPBR: f64(1.4)},
		i64(15_000_000), i64(12_000_000))

	byName := criteriaByName(result.Criteria)
	assert.Equal(t, 0, byName["positive_roe"].Score)
	assert.NotEmpty(t, byName["positive_roe"].Note)
	assert.Equal(t, 0, byName["roe_increasing"].Score)

	// 9개 중 7개만 계산 가능
	assert.InDelta(t, 0.78, result.DataCompleteness, 1e-9)
	assert.Equal(t, 7, result.Score)
}

func TestCompute_NoSectorMedians(t *testing.T) {
	s := NewScorer(logger.NewNop())

	result := s.Compute("005930", fullSnapshot(), prevSnapshot(),
		SectorMedians{}, i64(15_000_000), i64(12_000_000))

	byName := criteriaByName(result.Criteria)
	assert.Equal(t, 0, byName["pbr_below_sector"].Score)
	assert.Equal(t, "섹터 데이터 없음", byName["pbr_below_sector"].Note)
	assert.Equal(t, 0, byName["per_below_sector"].Score)
	assert.InDelta(t, 0.78, result.DataCompleteness, 1e-9)
}

func TestCompute_NegativePERNeverPasses(t *testing.T) {
	s := NewScorer(logger.NewNop())

	current := fullSnapshot()
	current.PER = f64(-5.0) // 적자 기업: PER < 중앙값이어도 탈락

	result := s.Compute("005930", current, prevSnapshot(),
		SectorMedians{MedianPER: f64(12.5), MedianPBR: f64(1.4)},
		i64(15_000_000), i64(12_000_000))

	byName := criteriaByName(result.Criteria)
	assert.Equal(t, 0, byName["per_below_sector"].Score)
}

func TestCompute_NilCurrentSnapshot(t *testing.T) {
	s := NewScorer(logger.NewNop())

	result := s.Compute("005930", nil, nil, SectorMedians{}, nil, nil)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0.0, result.DataCompleteness)
}

func TestCompute_NilPreviousSnapshot(t *testing.T) {
	s := NewScorer(logger.NewNop())

	result := s.Compute("005930", fullSnapshot(), nil,
		SectorMedians{MedianPER: f64(12.5), MedianPBR: f64(1.4)},
		i64(15_000_000), nil)

	// YoY 시그널 3개 + 거래량 1개 결측 → 5/9 계산 가능
	assert.InDelta(t, 0.56, result.DataCompleteness, 1e-9)
	byName := criteriaByName(result.Criteria)
	assert.Equal(t, "전기 데이터 없음", byName["roe_increasing"].Note)
}

func TestComputeGrade(t *testing.T) {
	tests := []struct {
		name         string
		fScore       int
		margin       *float64
		completeness float64
		wantGrade    string
		wantLabel    string
	}{
		{"strong buy", 8, f64(35.0), 1.0, "A+", "강력 매수"},
		{"a plus boundary", 8, f64(30.0), 1.0, "A+", "강력 매수"},
		{"buy", 7, f64(25.0), 1.0, "A", "매수"},
		{"high fscore low margin", 9, f64(5.0), 1.0, "B", "보유"},
		{"consider buy", 6, f64(12.0), 1.0, "B+", "매수 검토"},
		{"hold", 5, f64(0.0), 1.0, "B", "보유"},
		{"watch", 4, f64(-10.0), 1.0, "C+", "관망"},
		{"caution", 3, nil, 1.0, "C", "주의"},
		{"risk", 2, f64(50.0), 1.0, "D", "위험"},
		{"nil margin blocks margin grades", 8, nil, 1.0, "C+", "관망"},
		{"insufficient data", 9, f64(40.0), 0.44, "F", "데이터 부족"},
		{"completeness boundary passes", 5, f64(1.0), 0.5, "B", "보유"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ComputeGrade(tt.fScore, tt.margin, tt.completeness)
			assert.Equal(t, tt.wantGrade, g.Grade)
			assert.Equal(t, tt.wantLabel, g.Label)
		})
	}
}

func criteriaByName(criteria []contracts.FScoreCriterion) map[string]contracts.FScoreCriterion {
	m := make(map[string]contracts.FScoreCriterion, len(criteria))
	for _, c := range criteria {
		m[c.Name] = c
	}
	return m
}
