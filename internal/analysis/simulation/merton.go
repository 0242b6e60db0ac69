package simulation

import (
	"math"
	"math/rand"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
)

// Merton 점프확산 모델. GBM + 복합 포아송 점프:
//
//	dS/S = (μ − λk)dt + σ·dW + J·dN
//	N ~ Poisson(λ·dt), log(1+J) ~ N(μ_j, σ_j²)
func simulateMerton(
	logReturns []float64,
	basePrice int64,
	numSimulations int,
	horizons []int,
	rng *rand.Rand,
	params analysisconfig.MertonParams,
	maxSigma float64,
) *ModelResult {
	if len(logReturns) < garchMinReturns {
		return nil
	}

	m := estimateMoments(logReturns)

	sigma := m.dailySigma * math.Sqrt(TradingDaysPerYear)
	if sigma > maxSigma {
		sigma = maxSigma
	}
	dailySigma := sigma / math.Sqrt(TradingDaysPerYear)
	if dailySigma == 0 {
		return nil
	}

	lamDaily := params.Lambda / TradingDaysPerYear

	// 점프 기대값 보상: k = E[J−1] = exp(μ_j + ½σ_j²) − 1
	k := math.Exp(params.MuJ+0.5*params.SigmaJ*params.SigmaJ) - 1
	driftComp := m.muArithDaily - lamDaily*k

	result := &ModelResult{
		Model:          ModelMerton,
		TerminalPrices: make(map[int][]float64, len(horizons)),
		Horizons:       make(map[int]contracts.HorizonStats, len(horizons)),
	}
	for _, h := range horizons {
		result.TerminalPrices[h] = make([]float64, numSimulations)
	}

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

	baseDrift := driftComp - 0.5*dailySigma*dailySigma

	for i := 0; i < numSimulations; i++ {
		cumulative := 0.0
		for t := 1; t <= maxHorizon; t++ {
			jump := 0.0
			for n := samplePoisson(rng, lamDaily); n > 0; n-- {
				jump += params.MuJ + params.SigmaJ*rng.NormFloat64()
			}
			cumulative += baseDrift + dailySigma*rng.NormFloat64() + jump

			if horizonSet[t] {
				result.TerminalPrices[t][i] = clipTerminal(float64(basePrice)*math.Exp(cumulative), basePrice)
			}
		}
	}

	for _, h := range horizons {
		result.Horizons[h] = computeHorizonStats(result.TerminalPrices[h], basePrice, h)
	}

	return result
}

// samplePoisson: Knuth 곱셈법. 일간 점프 강도(λ/252)가 매우 작아 충분함.
func samplePoisson(rng *rand.Rand, lambda float64) int {
	if lambda <= 0 {
		return 0
	}
	threshold := math.Exp(-lambda)
	count := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= threshold {
			return count
		}
		count++
	}
}
