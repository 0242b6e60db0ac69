package composite

import "fmt"

// Signal levels per axis
const (
	SignalStrongBuy  = "strong_buy"
	SignalBuy        = "buy"
	SignalNeutral    = "neutral"
	SignalSell       = "sell"
	SignalStrongSell = "strong_sell"
	SignalUnknown    = "unknown"
)

// Confluence describes cross-axis signal agreement
type Confluence struct {
	Tier    int    `json:"confluence_tier"` // 1-5
	Pattern string `json:"confluence_pattern"`

	ValueSignal    string `json:"value_signal"`
	FlowSignal     string `json:"flow_signal"`
	MomentumSignal string `json:"momentum_signal"`
	ForecastSignal string `json:"forecast_signal"`

	DivergenceType     string `json:"divergence_type,omitempty"`
	DivergenceSeverity string `json:"divergence_severity,omitempty"`
	DivergenceLabel    string `json:"divergence_label,omitempty"`

	ActionLabel       string `json:"action_label"`
	ActionDescription string `json:"action_description"`
}

// DetectConfluence evaluates agreement across the four axis scores.
//
// 등급:
//
//	5 - 알려진 축 전부 강한 같은 방향
//	4 - 알려진 축 전부 같은 방향
//	3 - 강한 신호 2개 + 나머지 중립
//	2 - 강한 신호 정확히 1개
//	1 - 혼재 또는 강한 신호 없음
func DetectConfluence(valueScore, flowScore, momentumScore, forecastScore *float64) Confluence {
	vSig := classifySignal(valueScore)
	fSig := classifySignal(flowScore)
	mSig := classifySignal(momentumScore)
	fcSig := classifySignal(forecastScore)

	known := 0
	buyCount, sellCount, strongBuyCount, strongSellCount := 0, 0, 0, 0
	for _, sig := range []string{vSig, fSig, mSig, fcSig} {
		if sig == SignalUnknown {
			continue
		}
		known++
		switch sig {
		case SignalStrongBuy:
			strongBuyCount++
			buyCount++
		case SignalBuy:
			buyCount++
		case SignalStrongSell:
			strongSellCount++
			sellCount++
		case SignalSell:
			sellCount++
		}
	}

	tier, direction := confluenceTier(known, buyCount, sellCount, strongBuyCount, strongSellCount)
	action, actionDesc := actionForTier(tier, direction)

	c := Confluence{
		Tier:              tier,
		Pattern:           describePattern(tier, direction, known),
		ValueSignal:       vSig,
		FlowSignal:        fSig,
		MomentumSignal:    mSig,
		ForecastSignal:    fcSig,
		ActionLabel:       action,
		ActionDescription: actionDesc,
	}

	if d := lookupDivergence(vSig, fSig, mSig, fcSig); d != nil {
		c.DivergenceType = d.Type
		c.DivergenceSeverity = d.Severity
		c.DivergenceLabel = d.Label
	}

	return c
}

func confluenceTier(known, buyCount, sellCount, strongBuyCount, strongSellCount int) (int, string) {
	switch {
	case known >= 3 && strongBuyCount == known:
		return 5, "buy"
	case known >= 3 && strongSellCount == known:
		return 5, "sell"
	case known >= 3 && buyCount == known:
		return 4, "buy"
	case known >= 3 && sellCount == known:
		return 4, "sell"
	case strongBuyCount >= 2 && known-buyCount <= 1:
		return 3, "buy"
	case strongSellCount >= 2 && known-sellCount <= 1:
		return 3, "sell"
	case strongBuyCount == 1 && sellCount == 0:
		return 2, "buy"
	case strongSellCount == 1 && buyCount == 0:
		return 2, "sell"
	default:
		return 1, "neutral"
	}
}

func describePattern(tier int, direction string, known int) string {
	if known == 0 {
		return "no_data"
	}
	prefix := "triple"
	if known >= 4 {
		prefix = "quad"
	}
	switch tier {
	case 5:
		return fmt.Sprintf("%s_strong_%s", prefix, direction)
	case 4:
		return fmt.Sprintf("%s_%s", prefix, direction)
	case 3:
		return fmt.Sprintf("multi_strong_%s", direction)
	case 2:
		return fmt.Sprintf("single_strong_%s", direction)
	default:
		return "mixed"
	}
}

func actionForTier(tier int, direction string) (string, string) {
	switch {
	case tier == 5 && direction == "buy":
		return "적극 매수", "가치·수급·모멘텀·전망 모두 강한 매수 신호입니다"
	case tier == 5:
		return "적극 매도", "가치·수급·모멘텀·전망 모두 강한 매도 신호입니다"
	case tier == 4 && direction == "buy":
		return "매수 추천", "다수 축이 매수 방향을 가리킵니다"
	case tier == 4:
		return "매도 추천", "다수 축이 매도 방향을 가리킵니다"
	case tier == 3 && direction == "buy":
		return "매수 검토", "두 가지 이상의 강한 매수 신호가 있습니다"
	case tier == 3:
		return "매도 검토", "두 가지 이상의 강한 매도 신호가 있습니다"
	case tier == 2:
		return "관심 편입", "강한 신호가 하나 감지되었습니다"
	default:
		return "관망", "명확한 방향성이 없어 추가 관찰이 필요합니다"
	}
}

// classifySignal maps a sub-score to a discrete signal level
func classifySignal(score *float64) string {
	if score == nil {
		return SignalUnknown
	}
	switch {
	case *score >= 75:
		return SignalStrongBuy
	case *score >= 60:
		return SignalBuy
	case *score >= 40:
		return SignalNeutral
	case *score >= 25:
		return SignalSell
	default:
		return SignalStrongSell
	}
}
