package simulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/wonny/whaleback/internal/contracts"
)

// TradingDaysPerYear 연간 거래일 수
const TradingDaysPerYear = 252

// maxDailyMu: 연환산 drift ±100% 상한의 일간 환산값
const maxDailyMu = 1.0 / TradingDaysPerYear

// Model names
const (
	ModelGBM    = "gbm"
	ModelGARCH  = "garch"
	ModelHeston = "heston"
	ModelMerton = "merton"
)

// AllModels in canonical order
var AllModels = []string{ModelGBM, ModelGARCH, ModelHeston, ModelMerton}

// horizonLabels maps trading-day horizons to Korean labels
var horizonLabels = map[int]string{
	21:  "1개월",
	63:  "3개월",
	126: "6개월",
	252: "1년",
}

// ModelResult is the standard per-model simulation output
type ModelResult struct {
	Model          string
	TerminalPrices map[int][]float64 // horizon → terminal price samples
	Horizons       map[int]contracts.HorizonStats
}

// moments are the drift/volatility estimates shared across models.
//
// 일간 로그수익률 표본 평균은 암묵적 Ito 보정을 포함하므로
// 산술 drift로 되돌린 뒤 각 모델이 자기 변동성으로 Ito 보정을
// 다시 적용한다. 이렇게 해야 σ→0 극한에서 기대 종가가
// base·exp(μ·h/252)로 수렴하는 일관된 (μ, σ) 쌍이 됨.
type moments struct {
	dailyMu      float64 // 로그수익률 표본 평균
	dailySigma   float64 // 로그수익률 표본 표준편차 (ddof=1)
	muArithDaily float64 // 산술 drift (클램프 적용)
}

func estimateMoments(logReturns []float64) moments {
	mu := mean(logReturns)
	sigma := sampleStd(logReturns)

	// E[log_ret] = (μ_arith − ½σ²)·dt → μ_arith = 평균 + ½σ²
	muArith := mu + 0.5*sigma*sigma
	muArith = clampF(muArith, -maxDailyMu, maxDailyMu)

	return moments{dailyMu: mu, dailySigma: sigma, muArithDaily: muArith}
}

// computeHorizonStats summarizes a terminal price distribution
func computeHorizonStats(terminal []float64, basePrice int64, horizon int) contracts.HorizonStats {
	sorted := make([]float64, len(terminal))
	copy(sorted, terminal)
	sort.Float64s(sorted)

	p5 := percentile(sorted, 5)
	above := 0
	sum := 0.0
	for _, v := range terminal {
		sum += v
		if v > float64(basePrice) {
			above++
		}
	}
	meanTerminal := sum / float64(len(terminal))

	return contracts.HorizonStats{
		Label:             horizonLabel(horizon),
		P5:                int64(p5),
		P25:               int64(percentile(sorted, 25)),
		P50:               int64(percentile(sorted, 50)),
		P75:               int64(percentile(sorted, 75)),
		P95:               int64(percentile(sorted, 95)),
		ExpectedReturnPct: round2((meanTerminal/float64(basePrice) - 1) * 100),
		VaR5PctPct:        round2((p5/float64(basePrice) - 1) * 100),
		UpsideProb:        round4(float64(above) / float64(len(terminal))),
	}
}

func horizonLabel(h int) string {
	if label, ok := horizonLabels[h]; ok {
		return label
	}
	return fmt.Sprintf("%d일", h)
}

// clipTerminal bounds a terminal price to [base·0.001, base·100].
// 극단 경로가 백분위 통계를 오염시키지 않도록 전 모델 공통 적용.
func clipTerminal(v float64, basePrice int64) float64 {
	return clampF(v, float64(basePrice)*0.001, float64(basePrice)*100)
}

// =============================================================================
// 통계 유틸리티
// =============================================================================

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd 표본 표준편차 (ddof=1)
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sumSq float64
	for _, v := range values {
		diff := v - m
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// percentile: 선형 보간, sorted는 오름차순이어야 함
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}

	idx := p / 100.0 * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := idx - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func clampF(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
