package simulation

import (
	"math"
	"math/rand"

	"github.com/wonny/whaleback/internal/contracts"
)

// simulateGBM runs constant-volatility geometric Brownian motion paths.
//
//	dS/S = μ·dt + σ·dW
//
// 로그공간에서 일 단위 누적: log_ret = (μ_arith − ½σ²) + σ·z
func simulateGBM(
	logReturns []float64,
	basePrice int64,
	numSimulations int,
	horizons []int,
	rng *rand.Rand,
	maxSigma float64,
	driftAdjDaily float64,
	volMultiplier float64,
) *ModelResult {
	m := estimateMoments(logReturns)

	sigma := m.dailySigma * math.Sqrt(TradingDaysPerYear)
	if sigma > maxSigma {
		sigma = maxSigma
	}
	if sigma == 0 {
		return nil
	}
	dailyVol := sigma / math.Sqrt(TradingDaysPerYear)

	muArith := m.muArithDaily + driftAdjDaily
	muArith = clampF(muArith, -maxDailyMu*2, maxDailyMu*2)

	dailyVol *= volMultiplier
	maxDailyVol := maxSigma / math.Sqrt(TradingDaysPerYear)
	if dailyVol > maxDailyVol {
		dailyVol = maxDailyVol
	}
	dailyDrift := muArith - 0.5*dailyVol*dailyVol

	result := &ModelResult{
		Model:          ModelGBM,
		TerminalPrices: make(map[int][]float64, len(horizons)),
		Horizons:       make(map[int]contracts.HorizonStats, len(horizons)),
	}

	for _, h := range horizons {
		terminal := make([]float64, numSimulations)
		for i := 0; i < numSimulations; i++ {
			cumulative := 0.0
			for t := 0; t < h; t++ {
				cumulative += dailyDrift + dailyVol*rng.NormFloat64()
			}
			terminal[i] = clipTerminal(float64(basePrice)*math.Exp(cumulative), basePrice)
		}
		result.TerminalPrices[h] = terminal
		result.Horizons[h] = computeHorizonStats(terminal, basePrice, h)
	}

	return result
}
