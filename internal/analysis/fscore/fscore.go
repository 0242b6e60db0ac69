package fscore

import (
	"math"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// TotalSignals 고정 9개 시그널, 결측 시그널도 분모에서 제외하지 않음
const TotalSignals = 9

// SectorMedians holds per-sector PER/PBR medians supplied by the
// aggregation pre-pass (two-phase batch: aggregate first, then score).
type SectorMedians struct {
	MedianPER *float64
	MedianPBR *float64
}

// Scorer computes the Modified Piotroski F-Score (0-9)
// ⭐ SSOT: 재무 건전성 점수 계산은 여기서만
//
// pykrx로 수집 가능한 한국 시장 데이터에 맞춘 9개 시그널:
//  1. EPS > 0            6. PBR < 섹터 중앙값
//  2. ROE > 0            7. 배당수익률 > 0
//  3. ROE 증가 (YoY)      8. 0 < PER < 섹터 중앙값
//  4. EPS 증가 (YoY)      9. 거래량 증가 (YoY)
//  5. BPS 증가 (YoY)
type Scorer struct {
	logger *logger.Logger
}

// Result holds the F-Score with its explainability breakdown
type Result struct {
	Score            int                         `json:"score"` // 0-9
	MaxScore         int                         `json:"max_score"`
	Criteria         []contracts.FScoreCriterion `json:"criteria"`
	DataCompleteness float64                     `json:"data_completeness"` // computable signals / 9
}

// NewScorer creates an F-Score scorer
func NewScorer(log *logger.Logger) *Scorer {
	return &Scorer{logger: log}
}

// Compute evaluates all nine signals.
//
// 입력이 결측인 시그널은 0점 처리하되 분해 내역에 사유를 남기고,
// data_completeness에 반영한다. 결측을 조용히 건너뛰지 않음.
func (s *Scorer) Compute(
	ticker string,
	current, previous *contracts.FundamentalSnapshot,
	medians SectorMedians,
	volumeCurrent, volumePrevious *int64,
) *Result {
	if current == nil {
		return &Result{Score: 0, MaxScore: TotalSignals, Criteria: nil, DataCompleteness: 0}
	}

	var prev contracts.FundamentalSnapshot
	if previous != nil {
		prev = *previous
	}

	criteria := make([]contracts.FScoreCriterion, 0, TotalSignals)
	computable := 0

	add := func(c contracts.FScoreCriterion, hasInputs bool) {
		if hasInputs {
			computable++
		} else {
			c.Score = 0
			if c.Note == "" {
				c.Note = "데이터 없음"
			}
		}
		criteria = append(criteria, c)
	}

	// 1. EPS > 0 (profitability)
	add(binarySignal("positive_eps", "당기순이익 > 0", current.EPS, func(v float64) bool { return v > 0 }),
		current.EPS != nil)

	// 2. ROE > 0
	add(binarySignal("positive_roe", "자기자본이익률 > 0", current.ROE, func(v float64) bool { return v > 0 }),
		current.ROE != nil)

	// 3. ROE increasing YoY
	add(deltaSignal("roe_increasing", "ROE 증가", current.ROE, prev.ROE, 4),
		current.ROE != nil && prev.ROE != nil)

	// 4. EPS increasing YoY
	add(deltaSignal("eps_increasing", "EPS 증가", current.EPS, prev.EPS, 2),
		current.EPS != nil && prev.EPS != nil)

	// 5. BPS increasing YoY (자본축적 proxy)
	add(deltaSignal("bps_increasing", "BPS 증가 (자본축적)", current.BPS, prev.BPS, 2),
		current.BPS != nil && prev.BPS != nil)

	// 6. PBR < sector median (relative valuation), PBR > 0 required
	pbrOK := current.PBR != nil && medians.MedianPBR != nil && *current.PBR > 0
	pbrCrit := contracts.FScoreCriterion{
		Name:  "pbr_below_sector",
		Label: "PBR < 섹터 중앙값",
		Value: current.PBR,
		Note:  noteUnless(pbrOK, "섹터 데이터 없음"),
	}
	if pbrOK && *current.PBR < *medians.MedianPBR {
		pbrCrit.Score = 1
	}
	add(pbrCrit, pbrOK)

	// 7. DIV > 0 (shareholder returns)
	add(binarySignal("positive_dividend", "배당수익률 > 0", current.DIV, func(v float64) bool { return v > 0 }),
		current.DIV != nil)

	// 8. 0 < PER < sector median
	perOK := current.PER != nil && medians.MedianPER != nil && *current.PER > 0 && *medians.MedianPER > 0
	perCrit := contracts.FScoreCriterion{
		Name:  "per_below_sector",
		Label: "PER < 섹터 중앙값",
		Value: current.PER,
		Note:  noteUnless(perOK, "섹터/PER 데이터 없음"),
	}
	if perOK && *current.PER < *medians.MedianPER {
		perCrit.Score = 1
	}
	add(perCrit, perOK)

	// 9. Volume increasing YoY
	volOK := volumeCurrent != nil && volumePrevious != nil && *volumePrevious > 0
	volCrit := contracts.FScoreCriterion{
		Name:  "volume_increasing",
		Label: "거래량 증가",
		Note:  noteUnless(volOK, "거래량 데이터 없음"),
	}
	if volOK {
		diff := float64(*volumeCurrent - *volumePrevious)
		volCrit.Value = &diff
		if *volumeCurrent > *volumePrevious {
			volCrit.Score = 1
		}
	}
	add(volCrit, volOK)

	total := 0
	for _, c := range criteria {
		total += c.Score
	}

	result := &Result{
		Score:            total,
		MaxScore:         TotalSignals,
		Criteria:         criteria,
		DataCompleteness: math.Round(float64(computable)/TotalSignals*100) / 100,
	}

	s.logger.WithFields(map[string]interface{}{
		"ticker":       ticker,
		"fscore":       total,
		"completeness": result.DataCompleteness,
	}).Debug("Computed F-Score")

	return result
}

// binarySignal scores 1 when the predicate holds for a present value
func binarySignal(name, label string, value *float64, pass func(float64) bool) contracts.FScoreCriterion {
	c := contracts.FScoreCriterion{Name: name, Label: label, Value: value}
	if value != nil && pass(*value) {
		c.Score = 1
	}
	return c
}

// deltaSignal scores 1 when current > previous; Value carries the rounded delta
func deltaSignal(name, label string, current, previous *float64, decimals int) contracts.FScoreCriterion {
	c := contracts.FScoreCriterion{Name: name, Label: label, Note: ""}
	if current == nil || previous == nil {
		c.Note = "전기 데이터 없음"
		return c
	}
	delta := roundN(*current-*previous, decimals)
	c.Value = &delta
	if *current > *previous {
		c.Score = 1
	}
	return c
}

func noteUnless(ok bool, note string) string {
	if ok {
		return ""
	}
	return note
}

func roundN(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
