package riskmetrics

import (
	"math"
	"sort"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// Analyzer computes per-ticker risk metrics
// ⭐ SSOT: 변동성/베타/MDD/VaR 계산은 여기서만
//
// DB 의존 없음. 종가 시계열을 인자로 받아 순수 계산만 수행.
type Analyzer struct {
	logger *logger.Logger
}

// NewAnalyzer creates a risk metrics analyzer
func NewAnalyzer(log *logger.Logger) *Analyzer {
	return &Analyzer{logger: log}
}

const (
	tradingDaysPerYear = 252

	varConfidence = 0.95
	varLookback   = 252
)

var (
	volPeriods  = []int{20, 60, 252}
	betaPeriods = []int{60, 252}
	mddPeriods  = []int{60, 252}
)

// Compute assembles the full risk snapshot for one ticker.
// 지수 시계열이 없으면 베타만 비워진다.
func (a *Analyzer) Compute(ticker string, closes, indexCloses []float64) *contracts.RiskSnapshot {
	snap := &contracts.RiskSnapshot{
		RiskLevel:          "unknown",
		RiskLabel:          "알 수 없음",
		BetaInterpretation: "unknown",
		BetaLabel:          "알 수 없음",
		RecoveryLabel:      "알 수 없음",
	}
	snap.Ticker = ticker

	returns := simpleReturns(closes)
	if len(returns) == 0 {
		a.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
		}).Debug("Risk metrics skipped, no usable returns")
		return snap
	}

	a.fillVolatility(snap, returns)
	a.fillBeta(snap, closes, indexCloses)
	a.fillDrawdown(snap, closes)

	// VaR/CVaR: 최근 1년 일간 수익률 기반 historical simulation
	varReturns := returns
	if len(varReturns) > varLookback {
		varReturns = varReturns[len(varReturns)-varLookback:]
	}
	v, cv := HistoricalVaR(varReturns, varConfidence)
	snap.VaR95 = &v
	snap.CVaR95 = &cv

	return snap
}

// fillVolatility computes annualized volatility at 20/60/252 days and
// classifies the 60-day figure.
func (a *Analyzer) fillVolatility(snap *contracts.RiskSnapshot, returns []float64) {
	for _, period := range volPeriods {
		if len(returns) < period {
			continue
		}
		window := returns[len(returns)-period:]
		// 연환산: σ_daily · √252, 퍼센트 표기
		vol := round4(sampleStd(window) * math.Sqrt(tradingDaysPerYear) * 100)
		switch period {
		case 20:
			snap.Volatility20D = &vol
		case 60:
			snap.Volatility60D = &vol
		case 252:
			snap.Volatility1Y = &vol
		}
	}

	if snap.Volatility60D == nil {
		return
	}
	switch vol := *snap.Volatility60D; {
	case vol < 20:
		snap.RiskLevel, snap.RiskLabel = "low", "저변동"
	case vol < 40:
		snap.RiskLevel, snap.RiskLabel = "medium", "보통"
	case vol < 60:
		snap.RiskLevel, snap.RiskLabel = "high", "고변동"
	default:
		snap.RiskLevel, snap.RiskLabel = "very_high", "초고변동"
	}
}

// fillBeta computes Cov(stock, market)/Var(market) at 60/252 days.
func (a *Analyzer) fillBeta(snap *contracts.RiskSnapshot, closes, indexCloses []float64) {
	if len(closes) == 0 || len(indexCloses) == 0 {
		return
	}
	// 길이가 다르면 최근 구간으로 맞춤
	if len(closes) != len(indexCloses) {
		n := len(closes)
		if len(indexCloses) < n {
			n = len(indexCloses)
		}
		closes = closes[len(closes)-n:]
		indexCloses = indexCloses[len(indexCloses)-n:]
	}

	stockReturns := make([]float64, 0, len(closes))
	marketReturns := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 && indexCloses[i-1] > 0 {
			stockReturns = append(stockReturns, (closes[i]-closes[i-1])/closes[i-1])
			marketReturns = append(marketReturns, (indexCloses[i]-indexCloses[i-1])/indexCloses[i-1])
		}
	}

	for _, period := range betaPeriods {
		if len(stockReturns) < period {
			continue
		}
		s := stockReturns[len(stockReturns)-period:]
		m := marketReturns[len(marketReturns)-period:]

		marketVar := sampleVariance(m)
		if marketVar <= 0 {
			continue
		}
		beta := round4(sampleCovariance(s, m) / marketVar)
		switch period {
		case 60:
			snap.Beta60D = &beta
		case 252:
			snap.Beta252D = &beta
		}
	}

	if snap.Beta60D == nil {
		return
	}
	switch beta := *snap.Beta60D; {
	case beta < 0.8:
		snap.BetaInterpretation, snap.BetaLabel = "defensive", "방어적"
	case beta < 1.2:
		snap.BetaInterpretation, snap.BetaLabel = "neutral", "중립"
	case beta < 1.5:
		snap.BetaInterpretation, snap.BetaLabel = "aggressive", "공격적"
	default:
		snap.BetaInterpretation, snap.BetaLabel = "highly_aggressive", "초공격적"
	}
}

// fillDrawdown computes peak-to-trough max drawdown at 60/252 days plus
// the current drawdown from the series high.
func (a *Analyzer) fillDrawdown(snap *contracts.RiskSnapshot, closes []float64) {
	if len(closes) < 2 {
		return
	}

	for _, period := range mddPeriods {
		if len(closes) < period {
			continue
		}
		mdd := maxDrawdown(closes[len(closes)-period:])
		if mdd == nil {
			continue
		}
		switch period {
		case 60:
			snap.MDD60D = mdd
		case 252:
			snap.MDD1Y = mdd
		}
	}

	high := closes[0]
	for _, p := range closes {
		if p > high {
			high = p
		}
	}
	if high <= 0 {
		return
	}

	currentDD := round4((closes[len(closes)-1] - high) / high)
	snap.CurrentDrawdown = &currentDD
	switch {
	case currentDD > -0.05:
		snap.RecoveryLabel = "회복"
	case currentDD > -0.15:
		snap.RecoveryLabel = "조정 중"
	default:
		snap.RecoveryLabel = "하락 지속"
	}
}

// maxDrawdown: MDD = min((price − running_peak) / running_peak)
func maxDrawdown(prices []float64) *float64 {
	peak := 0.0
	worst := 0.0
	found := false
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			dd := (p - peak) / peak
			if !found || dd < worst {
				worst = dd
			}
			found = true
		}
	}
	if !found {
		return nil
	}
	rounded := round4(worst)
	return &rounded
}

// HistoricalVaR computes (1−confidence) tail VaR and CVaR from daily
// returns. 손실을 양수로 표현 (예: 0.05 = 5% 손실 가능).
func HistoricalVaR(returns []float64, confidence float64) (float64, float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	varValue := 0.0
	if sorted[idx] < 0 {
		varValue = -sorted[idx]
	}

	// CVaR (Expected Shortfall): VaR 이하 tail 평균
	sum := 0.0
	for i := 0; i <= idx; i++ {
		sum += sorted[i]
	}
	avgTail := sum / float64(idx+1)
	cvar := 0.0
	if avgTail < 0 {
		cvar = -avgTail
	}

	return round4(varValue), round4(cvar)
}

// simpleReturns converts a close series to daily simple returns,
// skipping steps with a nonpositive previous close.
func simpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] > 0 {
			returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
		}
	}
	return returns
}

func sampleStd(values []float64) float64 {
	return math.Sqrt(sampleVariance(values))
}

func sampleVariance(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values)-1)
}

func sampleCovariance(a, b []float64) float64 {
	if len(a) != len(b) || len(a) < 2 {
		return 0
	}
	ma, mb := mean(a), mean(b)
	sum := 0.0
	for i := range a {
		sum += (a[i] - ma) * (b[i] - mb)
	}
	return sum / float64(len(a)-1)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
