package simulation

import (
	"math"
	"math/rand"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
)

// Heston 확률변동성 모델. Euler-Maruyama 이산화, full truncation:
//
//	dS = μ·S·dt + √V·S·dW₁
//	dV = κ(θ − V)dt + ξ√V·dW₂,  corr(W₁, W₂) = ρ
func simulateHeston(
	logReturns []float64,
	basePrice int64,
	numSimulations int,
	horizons []int,
	rng *rand.Rand,
	params analysisconfig.HestonParams,
	driftAdjAnnual float64,
) *ModelResult {
	if len(logReturns) < garchMinReturns {
		return nil
	}

	rho := clampF(params.Rho, -0.99, 0.99)
	kappa, theta, xi := params.Kappa, params.Theta, params.Xi

	m := estimateMoments(logReturns)
	dt := 1.0 / TradingDaysPerYear

	// 연환산 산술 drift; Ito 보정은 경로 내 확률 분산 V_t로 1회만 적용
	muArithAnnual := (m.dailyMu + 0.5*m.dailySigma*m.dailySigma) * TradingDaysPerYear
	muArithAnnual += driftAdjAnnual

	// 초기 분산: 최근 20일 분산을 연환산해 θ와 같은 스케일로
	recent := logReturns
	if len(logReturns) >= 20 {
		recent = logReturns[len(logReturns)-20:]
	}
	v0 := math.Max(sampleVariance(recent)*TradingDaysPerYear, 1e-8)

	maxHorizon := 0
	for _, h := range horizons {
		if h > maxHorizon {
			maxHorizon = h
		}
	}

	horizonSet := make(map[int]bool, len(horizons))
	for _, h := range horizons {
		horizonSet[h] = true
	}

	result := &ModelResult{
		Model:          ModelHeston,
		TerminalPrices: make(map[int][]float64, len(horizons)),
		Horizons:       make(map[int]contracts.HorizonStats, len(horizons)),
	}
	for _, h := range horizons {
		result.TerminalPrices[h] = make([]float64, numSimulations)
	}

	sqrtDt := math.Sqrt(dt)
	corrComp := math.Sqrt(1 - rho*rho)

	for i := 0; i < numSimulations; i++ {
		logS := 0.0
		v := v0
		for t := 1; t <= maxHorizon; t++ {
			z1 := rng.NormFloat64()
			z2 := rho*z1 + corrComp*rng.NormFloat64()

			vPos := math.Max(v, 0) // full truncation
			sqrtV := math.Sqrt(vPos)

			logS += (muArithAnnual-0.5*vPos)*dt + sqrtV*sqrtDt*z1
			v += kappa*(theta-vPos)*dt + xi*sqrtV*sqrtDt*z2

			if horizonSet[t] {
				result.TerminalPrices[t][i] = clipTerminal(float64(basePrice)*math.Exp(logS), basePrice)
			}
		}
	}

	for _, h := range horizons {
		result.Horizons[h] = computeHorizonStats(result.TerminalPrices[h], basePrice, h)
	}

	return result
}
