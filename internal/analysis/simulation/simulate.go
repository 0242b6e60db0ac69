package simulation

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// Engine orchestrates the four-model Monte Carlo ensemble
// ⭐ SSOT: 미래 가격 분포 시뮬레이션은 여기서만
//
// GBM / GARCH(1,1) / Heston / Merton을 독립 실행한 뒤 가중 풀링으로
// 합친다. 모델별 시드는 SHA-256("ticker:모델")에서 유도하므로 실행할
// 모델 집합과 무관하게 모델 단위로 재현 가능.
type Engine struct {
	cfg    analysisconfig.Simulation
	logger *logger.Logger
}

// Result is the full ensemble output for one ticker
type Result struct {
	SimulationScore float64
	SimulationGrade string
	BasePrice       int64
	Mu              float64 // 연환산 drift (메타데이터)
	Sigma           float64 // 연환산 변동성 (상한 적용)
	NumSimulations  int
	InputDaysUsed   int
	Horizons        map[int]contracts.HorizonStats
	TargetProbs     map[string]map[int]float64
	ModelBreakdown  []contracts.ModelScore
	Seeds           map[string]uint64 // 디버깅용: 모델 → 사용 시드
}

// NewEngine creates a simulation engine
func NewEngine(cfg analysisconfig.Simulation, log *logger.Logger) *Engine {
	return &Engine{cfg: cfg, logger: log}
}

// Compute runs the ensemble on a chronological close series.
// 60거래일 미만이면 ErrInsufficientHistory — 신뢰도 0짜리 결과를
// 만들지 않고 명시적으로 실패함.
func (e *Engine) Compute(ticker string, closes []float64) (*Result, error) {
	clean := make([]float64, 0, len(closes))
	for _, p := range closes {
		if !math.IsNaN(p) && !math.IsInf(p, 0) && p > 0 {
			clean = append(clean, p)
		}
	}
	if len(clean) < e.cfg.MinHistoryDays {
		return nil, contracts.ErrInsufficientHistory
	}

	logReturns := make([]float64, len(clean)-1)
	allZero := true
	for i := 1; i < len(clean); i++ {
		logReturns[i-1] = math.Log(clean[i] / clean[i-1])
		if logReturns[i-1] != 0 {
			allZero = false
		}
	}
	if len(logReturns) == 0 || allZero {
		return nil, fmt.Errorf("ticker %s: zero-variance price series", ticker)
	}

	m := estimateMoments(logReturns)
	mu := m.dailyMu * TradingDaysPerYear
	sigma := m.dailySigma * math.Sqrt(TradingDaysPerYear)
	if sigma > e.cfg.MaxSigma {
		sigma = e.cfg.MaxSigma
	}
	if sigma == 0 {
		return nil, fmt.Errorf("ticker %s: zero volatility", ticker)
	}

	basePrice := int64(clean[len(clean)-1])

	// 감성 보정: 연환산 drift 가산 → 일간 환산
	driftAdjDaily := e.cfg.SentimentDriftAdj / TradingDaysPerYear
	volMult := e.cfg.SentimentVolMult
	if volMult <= 0 {
		volMult = 1.0
	}

	modelResults := make(map[string]*ModelResult, len(AllModels))
	seeds := make(map[string]uint64, len(AllModels))

	for _, model := range AllModels {
		seed := e.seedFor(ticker, model)
		seeds[model] = uint64(seed)
		rng := rand.New(rand.NewSource(seed))

		var result *ModelResult
		switch model {
		case ModelGBM:
			result = simulateGBM(logReturns, basePrice, e.cfg.NumPaths, e.cfg.Horizons,
				rng, e.cfg.MaxSigma, driftAdjDaily, volMult)
		case ModelGARCH:
			result = simulateGARCH(logReturns, basePrice, e.cfg.NumPaths, e.cfg.Horizons,
				rng, e.cfg.MaxSigma, driftAdjDaily, volMult*volMult)
		case ModelHeston:
			result = simulateHeston(logReturns, basePrice, e.cfg.NumPaths, e.cfg.Horizons,
				rng, e.cfg.Heston, e.cfg.SentimentDriftAdj)
		case ModelMerton:
			result = simulateMerton(logReturns, basePrice, e.cfg.NumPaths, e.cfg.Horizons,
				rng, e.cfg.Merton, e.cfg.MaxSigma)
		}

		if result != nil {
			modelResults[model] = result
		} else {
			e.logger.WithFields(map[string]interface{}{
				"ticker": ticker,
				"model":  model,
			}).Debug("Simulation model skipped")
		}
	}

	if len(modelResults) == 0 {
		return nil, fmt.Errorf("ticker %s: all simulation models failed", ticker)
	}

	ensemble := combineEnsemble(modelResults, e.cfg.ModelWeights(), e.cfg.Horizons,
		basePrice, e.cfg.TargetMultipliers, e.cfg.NumPaths)
	if ensemble == nil || len(ensemble.Horizons) == 0 {
		return nil, fmt.Errorf("ticker %s: ensemble pooling produced no horizons", ticker)
	}

	score, grade := scoreFromHorizons(ensemble.Horizons)
	if score == nil {
		return nil, fmt.Errorf("ticker %s: score horizons (63d, 126d) unavailable", ticker)
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker": ticker,
		"score":  *score,
		"models": len(modelResults),
	}).Debug("Computed simulation ensemble")

	return &Result{
		SimulationScore: *score,
		SimulationGrade: grade,
		BasePrice:       basePrice,
		Mu:              round6(mu),
		Sigma:           round6(sigma),
		NumSimulations:  e.cfg.NumPaths,
		InputDaysUsed:   len(clean),
		Horizons:        ensemble.Horizons,
		TargetProbs:     ensemble.TargetProbs,
		ModelBreakdown:  ensemble.ModelScores,
		Seeds:           seeds,
	}, nil
}

// seedFor derives the per-model seed. Deterministic mode hashes
// "ticker:model" so each model reproduces regardless of which other
// models run alongside it.
func (e *Engine) seedFor(ticker, model string) int64 {
	if !e.cfg.DeterministicSeed {
		return time.Now().UnixNano() ^ int64(len(ticker)+len(model))
	}
	sum := sha256.Sum256([]byte(ticker + ":" + model))
	// 상위 8바이트를 비음수 int64로
	return int64(binary.BigEndian.Uint64(sum[:8]) &^ (1 << 63))
}
