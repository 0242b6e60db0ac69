package simulation

import (
	"math"
	"strconv"

	"github.com/wonny/whaleback/internal/contracts"
)

// 시뮬레이션 점수 가중치:
// 6개월 기대수익률 40%, 3개월 상승확률 35%, 3개월 VaR 25%
const (
	scoreWeightReturn6M = 0.40
	scoreWeightUpside3M = 0.35
	scoreWeightVaR3M    = 0.25

	horizon3M = 63
	horizon6M = 126
)

// scoreFromHorizons derives the 0-100 simulation score and grade.
// 3개월/6개월 통계가 없으면 (nil, "") 반환.
func scoreFromHorizons(horizons map[int]contracts.HorizonStats) (*float64, string) {
	h6m, ok6 := horizons[horizon6M]
	h3m, ok3 := horizons[horizon3M]
	if !ok6 || !ok3 {
		return nil, ""
	}

	normReturn := sigmoidScale(h6m.ExpectedReturnPct, 0, 20)
	normUpside := h3m.UpsideProb * 100
	normVaR := sigmoidScale(h3m.VaR5PctPct, -15, 10)

	score := scoreWeightReturn6M*normReturn +
		scoreWeightUpside3M*normUpside +
		scoreWeightVaR3M*normVaR
	score = round2(clampF(score, 0, 100))

	return &score, gradeForScore(score)
}

func gradeForScore(score float64) string {
	switch {
	case score >= 70:
		return "positive"
	case score >= 50:
		return "neutral_positive"
	case score >= 30:
		return "neutral"
	default:
		return "negative"
	}
}

// sigmoidScale maps an unbounded value to 0-100.
//
// 수익률: center=0, scale=20 → 반응 구간 대략 ±40%.
// VaR: center=-15, scale=10 → 3개월 -15% 손실이 중립(50점).
// 한국 시장 6개월 수익률 분포에 맞춘 보정값.
func sigmoidScale(value, center, scale float64) float64 {
	return 100.0 / (1.0 + math.Exp(-(value-center)/scale))
}

// formatMultiplier renders a target multiplier as a stable map key ("1.1")
func formatMultiplier(mult float64) string {
	return strconv.FormatFloat(mult, 'g', -1, 64)
}
