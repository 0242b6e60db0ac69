package whale

import (
	"math"
	"sort"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// InvestorTypes tracked for accumulation scoring.
// 개인(individual)은 역발상 축이므로 제외.
var InvestorTypes = []string{
	"institution",
	"foreign",
	"pension",
	"private_equity",
	"other_corp",
}

// Engine computes the institutional accumulation (whale) score
// ⭐ SSOT: 주체별 매집 점수 계산은 여기서만
//
// 주체별:
//
//	consistency = 순매수일 / 활성일
//	intensity   = min(|net 합계|/활성일/평균거래대금, 1.0)
//	subscore    = consistency*60 + min(intensity*40, 40)
//
// 종합: max(subscore)*0.5 + avg(subscore)*0.5 (데이터 있는 주체만)
type Engine struct {
	lookbackDays int
	logger       *logger.Logger
}

// Result is the whale score with per-investor-type breakdown
type Result struct {
	WhaleScore       float64
	Components       map[string]contracts.WhaleComponent
	Signal           string
	SignalLabel      string
	LookbackDays     int     // actual days used
	DataCompleteness float64 // actual / configured lookback
}

// NewEngine creates a whale scoring engine
func NewEngine(lookbackDays int, log *logger.Logger) *Engine {
	return &Engine{lookbackDays: lookbackDays, logger: log}
}

// Compute scores the lookback window of investor flow records.
// avgDailyTradingValue <= 0이면 intensity는 consistency 기반 폴백 사용.
func (e *Engine) Compute(ticker string, records []*contracts.InvestorFlowRecord, avgDailyTradingValue float64) *Result {
	if len(records) == 0 {
		return emptyResult()
	}

	data := trimToLookback(records, e.lookbackDays)
	totalDays := len(data)
	if totalDays == 0 {
		return emptyResult()
	}

	components := make(map[string]contracts.WhaleComponent, len(InvestorTypes))
	activeScores := make([]float64, 0, len(InvestorTypes))

	for _, investorType := range InvestorTypes {
		comp := scoreInvestorType(data, investorType, avgDailyTradingValue)
		components[investorType] = comp
		if comp.BuyDays+comp.SellDays > 0 {
			activeScores = append(activeScores, comp.Score)
		}
	}

	whaleScore := 0.0
	if len(activeScores) > 0 {
		maxScore, sum := activeScores[0], 0.0
		for _, s := range activeScores {
			if s > maxScore {
				maxScore = s
			}
			sum += s
		}
		whaleScore = maxScore*0.5 + sum/float64(len(activeScores))*0.5
	}
	whaleScore = clamp(whaleScore, 0, 100)

	signal := classifySignal(whaleScore, components)

	result := &Result{
		WhaleScore:       round2(whaleScore),
		Components:       components,
		Signal:           signal,
		SignalLabel:      signalLabel(signal),
		LookbackDays:     totalDays,
		DataCompleteness: math.Min(float64(totalDays)/float64(e.lookbackDays), 1.0),
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":      ticker,
		"whale_score": result.WhaleScore,
		"signal":      signal,
		"days":        totalDays,
	}).Debug("Computed whale score")

	return result
}

// AvgTradingValue averages daily trading value, skipping zero-value days
// so that a suspended trading day cannot push the denominator to zero.
func AvgTradingValue(bars []*contracts.PriceBar) float64 {
	sum, n := 0.0, 0
	for _, b := range bars {
		if b.TradingValue > 0 {
			sum += float64(b.TradingValue)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func scoreInvestorType(data []*contracts.InvestorFlowRecord, investorType string, avgTradingValue float64) contracts.WhaleComponent {
	var netTotal int64
	buyDays, sellDays := 0, 0
	activeDays := len(data)

	for _, r := range data {
		v := netByType(r, investorType)
		netTotal += v
		switch {
		case v > 0:
			buyDays++
		case v < 0:
			sellDays++
		}
	}

	consistency := 0.0
	if activeDays > 0 {
		consistency = float64(buyDays) / float64(activeDays)
	}

	var intensity float64
	if avgTradingValue > 0 && activeDays > 0 {
		avgNet := math.Abs(float64(netTotal)) / float64(activeDays)
		intensity = math.Min(avgNet/avgTradingValue, 1.0)
	} else {
		// 거래대금 없으면 consistency 기반 폴백
		intensity = consistency * 0.5
	}

	score := clamp(consistency*60+math.Min(intensity*40, 40), 0, 100)

	return contracts.WhaleComponent{
		NetTotal:    netTotal,
		BuyDays:     buyDays,
		SellDays:    sellDays,
		NeutralDays: activeDays - buyDays - sellDays,
		Consistency: round4(consistency),
		Intensity:   round4(intensity),
		Score:       round2(score),
	}
}

// classifySignal: 점수가 낮아도 순매수 합이 양수면 distribution이 아니라 neutral
func classifySignal(whaleScore float64, components map[string]contracts.WhaleComponent) string {
	switch {
	case whaleScore >= 70:
		return "strong_accumulation"
	case whaleScore >= 50:
		return "mild_accumulation"
	case whaleScore >= 30:
		return "neutral"
	}

	var totalNet int64
	for _, c := range components {
		totalNet += c.NetTotal
	}
	if totalNet < 0 {
		return "distribution"
	}
	return "neutral"
}

func signalLabel(signal string) string {
	switch signal {
	case "strong_accumulation":
		return "강한 매집"
	case "mild_accumulation":
		return "완만한 매집"
	case "neutral":
		return "중립"
	case "distribution":
		return "매도 우위"
	default:
		return "알 수 없음"
	}
}

func netByType(r *contracts.InvestorFlowRecord, investorType string) int64 {
	switch investorType {
	case "institution":
		return r.InstitutionNet
	case "foreign":
		return r.ForeignNet
	case "pension":
		return r.PensionNet
	case "private_equity":
		return r.PrivateEquityNet
	case "other_corp":
		return r.OtherCorpNet
	default:
		return 0
	}
}

// trimToLookback sorts by date ascending and keeps the most recent n records
func trimToLookback(records []*contracts.InvestorFlowRecord, n int) []*contracts.InvestorFlowRecord {
	sorted := make([]*contracts.InvestorFlowRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

func emptyResult() *Result {
	components := make(map[string]contracts.WhaleComponent, len(InvestorTypes))
	for _, t := range InvestorTypes {
		components[t] = contracts.WhaleComponent{}
	}
	return &Result{
		WhaleScore:   0,
		Components:   components,
		Signal:       "neutral",
		SignalLabel:  "중립",
		LookbackDays: 0,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
