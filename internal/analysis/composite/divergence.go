package composite

// 축 간 충돌 패턴을 사용자 설명용 라벨로 변환하는 조회 테이블.
// 분석 피드백에 따라 패턴이 계속 늘어나므로 조건문이 아닌 테이블로 유지.

// axisDirection collapses signal levels into a coarse direction
type axisDirection int

const (
	dirAny axisDirection = iota // 와일드카드
	dirBullish
	dirBearish
	dirNeutral // neutral/unknown: 방향 조건에 매칭되지 않음
)

// Divergence is one recognized cross-axis conflict
type Divergence struct {
	Type     string
	Severity string // low | medium | high
	Label    string
}

// divergenceRule matches a (value, flow, momentum, forecast) direction tuple.
// dirAny인 축은 매칭에 참여하지 않음.
type divergenceRule struct {
	value, flow, momentum, forecast axisDirection
	result                          Divergence
}

// divergenceTable is evaluated in order; first match wins.
// 순서가 우선순위: 과열 경고(high)보다 바닥 신호를 먼저 본다.
var divergenceTable = []divergenceRule{
	{
		value: dirBullish, momentum: dirBearish,
		result: Divergence{
			Type:     "value_momentum_divergence",
			Severity: "medium",
			Label:    "가치-모멘텀 괴리 (바닥 가능성)",
		},
	},
	{
		value: dirBearish, momentum: dirBullish,
		result: Divergence{
			Type:     "momentum_value_divergence",
			Severity: "high",
			Label:    "모멘텀-가치 괴리 (과열 주의)",
		},
	},
	{
		value: dirBearish, flow: dirBullish,
		result: Divergence{
			Type:     "flow_value_divergence",
			Severity: "medium",
			Label:    "수급-가치 괴리 (테마주 가능성)",
		},
	},
	{
		value: dirBearish, forecast: dirBullish,
		result: Divergence{
			Type:     "forecast_value_divergence",
			Severity: "low",
			Label:    "전망-가치 괴리 (시뮬레이션 긍정적이나 가치 부족)",
		},
	},
	{
		momentum: dirBullish, forecast: dirBearish,
		result: Divergence{
			Type:     "forecast_momentum_divergence",
			Severity: "medium",
			Label:    "전망-모멘텀 괴리 (단기 강세이나 장기 불확실)",
		},
	},
}

// lookupDivergence returns the first matching divergence, nil if none
func lookupDivergence(valueSig, flowSig, momentumSig, forecastSig string) *Divergence {
	dirs := [4]axisDirection{
		signalDirection(valueSig),
		signalDirection(flowSig),
		signalDirection(momentumSig),
		signalDirection(forecastSig),
	}

	for i := range divergenceTable {
		rule := &divergenceTable[i]
		if matches(rule.value, dirs[0]) &&
			matches(rule.flow, dirs[1]) &&
			matches(rule.momentum, dirs[2]) &&
			matches(rule.forecast, dirs[3]) {
			return &rule.result
		}
	}
	return nil
}

func matches(want, got axisDirection) bool {
	return want == dirAny || want == got
}

func signalDirection(sig string) axisDirection {
	switch sig {
	case SignalStrongBuy, SignalBuy:
		return dirBullish
	case SignalStrongSell, SignalSell:
		return dirBearish
	default:
		return dirNeutral
	}
}
