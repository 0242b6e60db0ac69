package whale

import (
	"math"

	"github.com/wonny/whaleback/internal/contracts"
)

// 개인 수급 역발상 시그널 + 스마트/덤머니 괴리.
// 기관/외인/연기금 = 스마트머니, 개인 = 덤머니.

// minZScoreDays: Z-score 롤링 통계에 필요한 최소 일수
const minZScoreDays = 60

// RetailResult is the retail contrarian signal
type RetailResult struct {
	RetailZ           float64
	RetailIntensity   float64
	RetailConsistency float64
	Signal            string
	SignalLabel       string
	LookbackDays      int
}

// DivergenceResult is the smart/dumb money divergence signal
type DivergenceResult struct {
	DivergenceScore float64
	SmartRatio      float64
	DumbRatio       float64
	Signal          string
	SignalLabel     string
	LookbackDays    int
}

// ComputeRetailContrarian detects extreme retail positioning via Z-score.
// Z > 2.0 → 개인 과매수(역발상 매도 경고), Z < -2.0 → 과매도(역발상 매수 기회).
func (e *Engine) ComputeRetailContrarian(records []*contracts.InvestorFlowRecord, avgDailyTradingValue float64) *RetailResult {
	if len(records) == 0 {
		return &RetailResult{Signal: "neutral", SignalLabel: "중립"}
	}

	data := trimToLookback(records, e.lookbackDays)
	totalDays := len(data)

	var netTotal int64
	buyDays := 0
	for _, r := range data {
		netTotal += r.IndividualNet
		if r.IndividualNet > 0 {
			buyDays++
		}
	}

	intensity := 0.0
	if avgDailyTradingValue > 0 {
		intensity = float64(netTotal) / (avgDailyTradingValue * float64(e.lookbackDays))
	}

	consistency := 0.0
	if totalDays > 0 {
		consistency = float64(buyDays) / float64(totalDays)
	}

	z := retailZScore(records, avgDailyTradingValue, e.lookbackDays)
	signal := classifyRetailSignal(z)

	return &RetailResult{
		RetailZ:           round2(z),
		RetailIntensity:   round4(intensity),
		RetailConsistency: round4(consistency),
		Signal:            signal,
		SignalLabel:       retailSignalLabel(signal),
		LookbackDays:      totalDays,
	}
}

// ComputeSmartDumbDivergence compares institutional+foreign+pension flow to
// retail flow over the lookback window. 양수 = 스마트 매수 / 개인 매도.
func (e *Engine) ComputeSmartDumbDivergence(records []*contracts.InvestorFlowRecord, avgDailyTradingValue float64) *DivergenceResult {
	if len(records) == 0 {
		return &DivergenceResult{Signal: "mixed", SignalLabel: "혼재"}
	}

	data := trimToLookback(records, e.lookbackDays)

	var smartFlow, dumbFlow int64
	for _, r := range data {
		smartFlow += r.InstitutionNet + r.ForeignNet + r.PensionNet
		dumbFlow += r.IndividualNet
	}

	smartRatio, dumbRatio := 0.0, 0.0
	if avgDailyTradingValue > 0 {
		denom := avgDailyTradingValue * float64(e.lookbackDays)
		smartRatio = float64(smartFlow) / denom
		dumbRatio = float64(dumbFlow) / denom
	}

	score := smartRatio - dumbRatio
	signal := classifyDivergenceSignal(score)

	return &DivergenceResult{
		DivergenceScore: round4(score),
		SmartRatio:      round4(smartRatio),
		DumbRatio:       round4(dumbRatio),
		Signal:          signal,
		SignalLabel:     divergenceSignalLabel(signal),
		LookbackDays:    len(data),
	}
}

// retailZScore computes Z over rolling-window intensities across full history
func retailZScore(records []*contracts.InvestorFlowRecord, avgDailyTradingValue float64, windowSize int) float64 {
	if len(records) < minZScoreDays || avgDailyTradingValue <= 0 || windowSize <= 0 {
		return 0
	}

	sorted := trimToLookback(records, len(records))

	n := len(sorted) - windowSize + 1
	if n < 2 {
		return 0
	}

	intensities := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		var netTotal int64
		for _, r := range sorted[i : i+windowSize] {
			netTotal += r.IndividualNet
		}
		intensities = append(intensities, float64(netTotal)/(avgDailyTradingValue*float64(windowSize)))
	}

	mean := 0.0
	for _, v := range intensities {
		mean += v
	}
	mean /= float64(len(intensities))

	variance := 0.0
	for _, v := range intensities {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(intensities))
	std := math.Sqrt(variance)
	if std <= 0 {
		return 0
	}

	return (intensities[len(intensities)-1] - mean) / std
}

func classifyRetailSignal(z float64) string {
	switch {
	case z > 2.0:
		return "extreme_buying"
	case z < -2.0:
		return "extreme_selling"
	default:
		return "neutral"
	}
}

func retailSignalLabel(signal string) string {
	switch signal {
	case "extreme_buying":
		return "역발상 매도 경고"
	case "extreme_selling":
		return "역발상 매수 기회"
	case "neutral":
		return "중립"
	default:
		return "알 수 없음"
	}
}

func classifyDivergenceSignal(score float64) string {
	switch {
	case score > 0.5:
		return "smart_accumulation"
	case score < -0.5:
		return "smart_distribution"
	default:
		return "mixed"
	}
}

func divergenceSignalLabel(signal string) string {
	switch signal {
	case "smart_accumulation":
		return "스마트머니 매집"
	case "smart_distribution":
		return "스마트머니 매도"
	case "mixed":
		return "혼재"
	default:
		return "알 수 없음"
	}
}
