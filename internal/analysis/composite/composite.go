package composite

import (
	"math"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/pkg/logger"
)

// Axis keys used in weights_used maps
const (
	AxisValue    = "value"
	AxisFlow     = "flow"
	AxisMomentum = "momentum"
	AxisForecast = "forecast"
)

// Scorer combines the four analysis axes into one 0-100 score
// ⭐ SSOT: 종합 점수 합성은 여기서만
//
//	value    = 0.55·fscore_norm + 0.45·margin_norm, completeness 스케일
//	flow     = whale_score + 섹터 수급 보너스 (클램프)
//	momentum = clamp(rs_percentile + 사분면 보너스, 0, 100)
//	forecast = simulation_score
//
// 가용 축에만 가중치를 재배분한다. 결측 축을 0점으로 섞으면 점수가
// 체계적으로 내려앉으므로 절대 그렇게 하지 않음.
type Scorer struct {
	cfg    analysisconfig.Composite
	logger *logger.Logger
}

// QuantInput is the Value axis input
type QuantInput struct {
	FScore           int
	SafetyMarginPct  *float64
	DataCompleteness float64
}

// WhaleInput is the Flow axis input
type WhaleInput struct {
	WhaleScore       float64
	DataCompleteness float64
}

// TrendInput is the Momentum axis input
type TrendInput struct {
	RSPercentile   *int
	SectorQuadrant string
}

// SimulationInput is the Forecast axis input
type SimulationInput struct {
	SimulationScore float64
}

// Inputs bundles all per-ticker axis inputs. nil = 축 결측.
type Inputs struct {
	Quant           *QuantInput
	Whale           *WhaleInput
	Trend           *TrendInput
	Simulation      *SimulationInput
	SectorFlowBonus float64 // [0, 15]
}

// Result is the composite score with diagnostics
type Result struct {
	CompositeScore *float64
	ValueScore     *float64
	FlowScore      *float64
	MomentumScore  *float64
	ForecastScore  *float64

	WeightsUsed   map[string]float64
	Confidence    float64
	AxesAvailable int

	Confluence Confluence
	Tier       Tier
}

// NewScorer creates a composite scorer
func NewScorer(cfg analysisconfig.Composite, log *logger.Logger) *Scorer {
	return &Scorer{cfg: cfg, logger: log}
}

// Compute scores one ticker from its axis inputs. Uses the configured
// default weights; see ComputeWithWeights for profile presets.
func (s *Scorer) Compute(ticker string, in Inputs) *Result {
	return s.ComputeWithWeights(ticker, in, map[string]float64{
		AxisValue:    s.cfg.WeightValue,
		AxisFlow:     s.cfg.WeightFlow,
		AxisMomentum: s.cfg.WeightMomentum,
		AxisForecast: s.cfg.WeightForecast,
	})
}

// ComputeWithWeights scores with an explicit axis weight set (summing to 1)
func (s *Scorer) ComputeWithWeights(ticker string, in Inputs, weights map[string]float64) *Result {
	valueScore := s.valueScore(in.Quant)
	flowScore := s.flowScore(in.Whale, in.SectorFlowBonus)
	momentumScore := momentumScore(in.Trend)
	forecastScore := forecastScore(in.Simulation)

	scores := map[string]*float64{
		AxisValue:    valueScore,
		AxisFlow:     flowScore,
		AxisMomentum: momentumScore,
		AxisForecast: forecastScore,
	}

	axesAvailable := 0
	availableWeight := 0.0
	for axis, score := range scores {
		if score != nil {
			axesAvailable++
			availableWeight += weights[axis]
		}
	}

	result := &Result{
		ValueScore:    valueScore,
		FlowScore:     flowScore,
		MomentumScore: momentumScore,
		ForecastScore: forecastScore,
		WeightsUsed:   map[string]float64{AxisValue: 0, AxisFlow: 0, AxisMomentum: 0, AxisForecast: 0},
		AxesAvailable: axesAvailable,
		Confidence:    round2(float64(axesAvailable) / 4),
	}

	if axesAvailable > 0 && availableWeight > 0 {
		composite := 0.0
		for axis, score := range scores {
			if score == nil {
				continue
			}
			w := round4(weights[axis] / availableWeight)
			result.WeightsUsed[axis] = w
			composite += w * *score
		}
		composite = round2(clamp(composite, 0, 100))
		result.CompositeScore = &composite
	}

	result.Confluence = DetectConfluence(valueScore, flowScore, momentumScore, forecastScore)
	result.Tier = ClassifyTier(result.CompositeScore)

	s.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"axes":   axesAvailable,
		"tier":   result.Tier.Tier,
	}).Debug("Computed composite score")

	return result
}

// valueScore: F-Score와 안전마진의 비선형 결합, completeness로 감쇠
func (s *Scorer) valueScore(q *QuantInput) *float64 {
	if q == nil || q.DataCompleteness < s.cfg.MinAxisCompleteness {
		return nil
	}
	completeness := math.Min(q.DataCompleteness, 1.0)
	raw := 0.55*normalizeFScore(q.FScore) + 0.45*normalizeSafetyMargin(q.SafetyMarginPct)
	v := round2(raw * completeness)
	return &v
}

func (s *Scorer) flowScore(w *WhaleInput, sectorBonus float64) *float64 {
	if w == nil || w.DataCompleteness < s.cfg.MinAxisCompleteness {
		return nil
	}
	v := round2(clamp(w.WhaleScore+sectorBonus, 0, 100))
	return &v
}

func momentumScore(t *TrendInput) *float64 {
	if t == nil || t.RSPercentile == nil {
		return nil
	}
	v := round2(clamp(float64(*t.RSPercentile)+quadrantBonus(t.SectorQuadrant), 0, 100))
	return &v
}

func forecastScore(sim *SimulationInput) *float64 {
	if sim == nil {
		return nil
	}
	v := round2(sim.SimulationScore)
	return &v
}

// normalizeFScore maps 0-9 to 0-100 with a 1.3 exponent.
// 지수가 고득점 구간을 벌리고 중간 구간을 압축함: 5/9→44.4, 8/9→85.0.
func normalizeFScore(fscore int) float64 {
	if fscore < 0 {
		fscore = 0
	}
	ratio := float64(fscore) / 9.0
	return round2(math.Pow(ratio, 1.3) * 100)
}

// normalizeSafetyMargin maps the unbounded margin pct to 0-100 via sigmoid.
// -30% → 23.1, 0% → 50, +30% → 76.8. 결측이면 중립값 50.
func normalizeSafetyMargin(marginPct *float64) float64 {
	if marginPct == nil {
		return 50.0
	}
	clamped := clamp(*marginPct, -500, 500)
	return round2(100 / (1 + math.Exp(-clamped/25)))
}

func quadrantBonus(quadrant string) float64 {
	switch quadrant {
	case "leading":
		return 15
	case "improving":
		return 10
	case "weakening":
		return -5
	case "lagging":
		return -15
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
