package simulation

import (
	"math"
	"math/rand"

	"github.com/wonny/whaleback/internal/contracts"
)

// GARCH(1,1) 변동성 예측 기반 시뮬레이션.
//
// 3단계 폴백: 적률법 적합 → 평균회귀 EWMA(λ=0.94) → 상수 σ.
// 적합은 결정적이어야 하므로 MLE 대신 제곱수익률 자기상관을 맞추는
// 격자 탐색 적률법을 쓴다. 같은 입력이면 항상 같은 (ω, α, β).

const (
	garchMinReturns = 30
	ewmaLambda      = 0.94
)

// simulateGARCH runs paths whose volatility follows the forecast variance
// trajectory. 모든 경로가 같은 변동성 궤적을 공유하므로 경로별 분산
// 진화보다 꼬리가 가볍지만 스크리닝 목적에는 충분함.
func simulateGARCH(
	logReturns []float64,
	basePrice int64,
	numSimulations int,
	horizons []int,
	rng *rand.Rand,
	maxSigma float64,
	driftAdjDaily float64,
	varMultiplier float64,
) *ModelResult {
	if len(logReturns) < garchMinReturns {
		return nil
	}

	m := estimateMoments(logReturns)
	muArith := m.muArithDaily + driftAdjDaily

	maxHorizon := 0
	for _, h := range horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	forecastVariance := fitGARCHVariance(logReturns, maxHorizon)
	if forecastVariance == nil {
		forecastVariance = meanRevertingVariance(logReturns, maxHorizon, ewmaLambda)
	}
	if forecastVariance == nil {
		dailySigma := sampleStd(logReturns)
		if dailySigma == 0 {
			return nil
		}
		forecastVariance = make([]float64, maxHorizon)
		for t := range forecastVariance {
			forecastVariance[t] = dailySigma * dailySigma
		}
	}

	maxDailySigma := maxSigma / math.Sqrt(TradingDaysPerYear)
	maxVar := maxDailySigma * maxDailySigma
	for t := range forecastVariance {
		forecastVariance[t] = clampF(forecastVariance[t]*varMultiplier, 1e-10, maxVar)
	}

	result := &ModelResult{
		Model:          ModelGARCH,
		TerminalPrices: make(map[int][]float64, len(horizons)),
		Horizons:       make(map[int]contracts.HorizonStats, len(horizons)),
	}

	for _, h := range horizons {
		terminal := make([]float64, numSimulations)
		for i := 0; i < numSimulations; i++ {
			cumulative := 0.0
			for t := 0; t < h; t++ {
				sigmaT := math.Sqrt(forecastVariance[t])
				// 산술 drift + 시변 Ito 보정
				cumulative += (muArith - 0.5*sigmaT*sigmaT) + sigmaT*rng.NormFloat64()
			}
			terminal[i] = clipTerminal(float64(basePrice)*math.Exp(cumulative), basePrice)
		}
		result.TerminalPrices[h] = terminal
		result.Horizons[h] = computeHorizonStats(terminal, basePrice, h)
	}

	return result
}

// fitGARCHVariance fits GARCH(1,1) by method of moments and returns the
// multi-step variance forecast, nil when the fit is not credible.
//
// 적합: 제곱수익률의 표본 ACF(시차 1..5)와 모델 ACF
// ρ_k = ρ_1·(α+β)^(k-1)의 제곱오차를 최소화하는 (α, β) 격자 탐색.
// ω는 분산 타게팅: ω = σ²·(1−α−β).
func fitGARCHVariance(logReturns []float64, maxHorizon int) []float64 {
	longRunVar := sampleVariance(logReturns)
	if longRunVar <= 0 {
		return nil
	}

	sampleACF := squaredReturnACF(logReturns, 5)
	// 제곱수익률에 양의 자기상관이 없으면 GARCH 의미 없음
	if sampleACF[0] <= 0.01 {
		return nil
	}

	bestAlpha, bestBeta := 0.0, 0.0
	bestErr := math.MaxFloat64
	for alpha := 0.02; alpha <= 0.30+1e-12; alpha += 0.02 {
		for beta := 0.50; beta <= 0.97+1e-12; beta += 0.01 {
			persistence := alpha + beta
			if persistence >= 0.999 {
				continue
			}
			// GARCH(1,1) 제곱수익률 ACF: ρ1 = α(1−αβ−β²)/(1−2αβ−β²), ρk = ρ1·(α+β)^(k−1)
			denom := 1 - 2*alpha*beta - beta*beta
			if denom <= 0 {
				continue
			}
			rho1 := alpha * (1 - alpha*beta - beta*beta) / denom
			errSum := 0.0
			for k := 0; k < len(sampleACF); k++ {
				model := rho1 * math.Pow(persistence, float64(k))
				diff := model - sampleACF[k]
				errSum += diff * diff
			}
			if errSum < bestErr {
				bestErr = errSum
				bestAlpha, bestBeta = alpha, beta
			}
		}
	}

	if bestAlpha == 0 {
		return nil
	}

	persistence := bestAlpha + bestBeta
	omega := longRunVar * (1 - persistence)

	// 조건부 분산 재귀로 σ²_t와 ε²_t의 마지막 값 추정
	condVar := longRunVar
	for _, r := range logReturns {
		condVar = omega + bestAlpha*r*r + bestBeta*condVar
	}
	lastRet := logReturns[len(logReturns)-1]

	forecast := make([]float64, maxHorizon)
	forecast[0] = omega + bestAlpha*lastRet*lastRet + bestBeta*condVar
	for t := 1; t < maxHorizon; t++ {
		// 다단계 예측은 장기 분산으로 기하 수렴
		forecast[t] = omega + persistence*forecast[t-1]
	}

	for _, v := range forecast {
		if math.IsNaN(v) || v <= 0 {
			return nil
		}
	}
	return forecast
}

// meanRevertingVariance: RiskMetrics EWMA의 평탄한 예측 대신 장기 분산으로
// 서서히 회귀하는 경로를 생성. 다단계 예측에 더 적합.
func meanRevertingVariance(logReturns []float64, maxHorizon int, lambda float64) []float64 {
	recent := logReturns
	if len(logReturns) >= 20 {
		recent = logReturns[len(logReturns)-20:]
	}
	dailyVar := sampleVariance(recent)
	if dailyVar <= 0 {
		return nil
	}
	longRunVar := sampleVariance(logReturns)

	path := make([]float64, maxHorizon)
	path[0] = dailyVar
	for t := 1; t < maxHorizon; t++ {
		path[t] = lambda*path[t-1] + (1-lambda)*longRunVar
	}
	return path
}

func sampleVariance(values []float64) float64 {
	s := sampleStd(values)
	return s * s
}

// squaredReturnACF: 제곱수익률의 시차 1..maxLag 자기상관
func squaredReturnACF(logReturns []float64, maxLag int) []float64 {
	sq := make([]float64, len(logReturns))
	for i, r := range logReturns {
		sq[i] = r * r
	}
	m := mean(sq)

	var denom float64
	for _, v := range sq {
		denom += (v - m) * (v - m)
	}

	acf := make([]float64, maxLag)
	if denom == 0 {
		return acf
	}
	for lag := 1; lag <= maxLag; lag++ {
		var num float64
		for i := lag; i < len(sq); i++ {
			num += (sq[i] - m) * (sq[i-lag] - m)
		}
		acf[lag-1] = num / denom
	}
	return acf
}
