package simulation

import (
	"math/rand"
	"sort"

	"github.com/wonny/whaleback/internal/contracts"
)

// poolingSeed: 앙상블 샘플링 전용 고정 시드. 모델 시뮬레이션과 독립.
const poolingSeed = 42

// ensembleResult is the pooled multi-model output
type ensembleResult struct {
	Horizons       map[int]contracts.HorizonStats
	TargetProbs    map[string]map[int]float64
	TerminalPrices map[int][]float64
	ModelScores    []contracts.ModelScore
	WeightsUsed    map[string]float64
}

// combineEnsemble pools terminal prices across models, sampling from each
// proportionally to its weight, then recomputes statistics on the pooled set.
//
// 요약통계의 가중평균이 아니라 분포 자체를 합쳐야 한다. 하류의
// 백분위/목표확률 계산이 전체 풀 분포를 요구하기 때문.
func combineEnsemble(
	modelResults map[string]*ModelResult,
	weights map[string]float64,
	horizons []int,
	basePrice int64,
	targetMultipliers []float64,
	totalSamples int,
) *ensembleResult {
	if len(modelResults) == 0 {
		return nil
	}

	// 가용 모델에만 가중치 재정규화; 전부 0이면 균등 배분
	names := make([]string, 0, len(modelResults))
	for name := range modelResults {
		names = append(names, name)
	}
	sort.Strings(names)

	available := make(map[string]float64, len(names))
	totalWeight := 0.0
	for _, name := range names {
		available[name] = weights[name]
		totalWeight += weights[name]
	}
	if totalWeight <= 0 {
		for _, name := range names {
			available[name] = 1.0 / float64(len(names))
		}
	} else {
		for _, name := range names {
			available[name] = available[name] / totalWeight
		}
	}

	// 모델별 샘플 수 배분, 마지막 모델이 잔여분을 가져가 총합을 보장
	sampleCounts := make(map[string]int, len(names))
	allocated := 0
	for i, name := range names {
		if i == len(names)-1 {
			sampleCounts[name] = totalSamples - allocated
			if sampleCounts[name] < 0 {
				sampleCounts[name] = 0
			}
		} else {
			n := int(float64(totalSamples)*available[name] + 0.5)
			sampleCounts[name] = n
			allocated += n
		}
	}

	rng := rand.New(rand.NewSource(poolingSeed))

	result := &ensembleResult{
		Horizons:       make(map[int]contracts.HorizonStats, len(horizons)),
		TargetProbs:    make(map[string]map[int]float64, len(targetMultipliers)),
		TerminalPrices: make(map[int][]float64, len(horizons)),
		WeightsUsed:    make(map[string]float64, len(names)),
	}
	for _, name := range names {
		result.WeightsUsed[name] = round4(available[name])
	}

	for _, h := range horizons {
		pooled := make([]float64, 0, totalSamples)
		for _, name := range names {
			tp := modelResults[name].TerminalPrices[h]
			n := sampleCounts[name]
			if len(tp) == 0 || n <= 0 {
				continue
			}
			// 복원추출
			for i := 0; i < n; i++ {
				pooled = append(pooled, tp[rng.Intn(len(tp))])
			}
		}
		if len(pooled) == 0 {
			continue
		}
		result.TerminalPrices[h] = pooled
		result.Horizons[h] = computeHorizonStats(pooled, basePrice, h)
	}

	for _, mult := range targetMultipliers {
		key := formatMultiplier(mult)
		result.TargetProbs[key] = make(map[int]float64, len(horizons))
		targetPrice := float64(basePrice) * mult
		for _, h := range horizons {
			pooled, ok := result.TerminalPrices[h]
			if !ok {
				continue
			}
			above := 0
			for _, v := range pooled {
				if v > targetPrice {
					above++
				}
			}
			result.TargetProbs[key][h] = round4(float64(above) / float64(len(pooled)))
		}
	}

	// 모델별 단독 점수 (투명성용)
	for _, name := range names {
		score, _ := scoreFromHorizons(modelResults[name].Horizons)
		result.ModelScores = append(result.ModelScores, contracts.ModelScore{
			Model:  name,
			Score:  score,
			Weight: round4(available[name]),
		})
	}

	return result
}
