package analysisconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
// 설정 오류는 종목 처리 전에 전체 실행을 중단시킴
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

const weightEpsilon = 1e-9

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Valuation ===
	// r == g 는 RIM 분모를 0으로 만드는 설정 오류
	r := cfg.Valuation.RequiredReturn()
	if math.Abs(r-cfg.Valuation.GrowthRate) < 1e-10 {
		return ValidationError{"valuation", "required return must differ from growth_rate"}
	}
	if cfg.Valuation.RiskFreeRate < 0 {
		return ValidationError{"valuation.risk_free_rate", "must be >= 0"}
	}
	if cfg.Valuation.EquityRiskPremium < 0 {
		return ValidationError{"valuation.equity_risk_premium", "must be >= 0"}
	}

	// === Whale ===
	if cfg.Whale.LookbackDays <= 0 {
		return ValidationError{"whale.lookback_days", "must be > 0"}
	}

	// === Trend ===
	if cfg.Trend.RSWindowDays < 2 {
		return ValidationError{"trend.rs_window_days", "must be >= 2"}
	}
	if cfg.Trend.RSChangeWindow <= 0 {
		return ValidationError{"trend.rs_change_window", "must be > 0"}
	}
	if cfg.Trend.BenchmarkIndex == "" {
		return ValidationError{"trend.benchmark_index", "required"}
	}

	// === Composite ===
	cw := []float64{
		cfg.Composite.WeightValue,
		cfg.Composite.WeightFlow,
		cfg.Composite.WeightMomentum,
		cfg.Composite.WeightForecast,
	}
	sum := 0.0
	for _, w := range cw {
		if w < 0 {
			return ValidationError{"composite", "axis weights must be non-negative"}
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightEpsilon {
		return ValidationError{"composite", fmt.Sprintf("axis weights must sum to 1, got %.6f", sum)}
	}
	if cfg.Composite.MinAxisCompleteness < 0 || cfg.Composite.MinAxisCompleteness > 1 {
		return ValidationError{"composite.min_axis_completeness", "must be in [0, 1]"}
	}

	// === Simulation ===
	if cfg.Simulation.NumPaths <= 0 {
		return ValidationError{"simulation.num_paths", "must be > 0"}
	}
	if cfg.Simulation.MinHistoryDays <= 1 {
		return ValidationError{"simulation.min_history_days", "must be > 1"}
	}
	if cfg.Simulation.MaxSigma <= 0 {
		return ValidationError{"simulation.max_sigma", "must be > 0"}
	}
	if len(cfg.Simulation.Horizons) == 0 {
		return ValidationError{"simulation.horizons", "at least one horizon required"}
	}
	for _, h := range cfg.Simulation.Horizons {
		if h <= 0 {
			return ValidationError{"simulation.horizons", "horizons must be > 0"}
		}
	}
	for _, m := range cfg.Simulation.TargetMultipliers {
		if m <= 0 {
			return ValidationError{"simulation.target_multipliers", "multipliers must be > 0"}
		}
	}

	mw := cfg.Simulation.ModelWeights()
	wsum := 0.0
	for name, w := range mw {
		if w < 0 {
			return ValidationError{"simulation", fmt.Sprintf("weight for %s must be non-negative", name)}
		}
		wsum += w
	}
	if math.Abs(wsum-1.0) > weightEpsilon {
		return ValidationError{"simulation", fmt.Sprintf("model weights must sum to 1, got %.6f", wsum)}
	}

	if cfg.Simulation.Heston.Rho < -1 || cfg.Simulation.Heston.Rho > 1 {
		return ValidationError{"simulation.heston.rho", "must be in [-1, 1]"}
	}
	if cfg.Simulation.Heston.Kappa <= 0 || cfg.Simulation.Heston.Theta <= 0 || cfg.Simulation.Heston.Xi <= 0 {
		return ValidationError{"simulation.heston", "kappa, theta, xi must be > 0"}
	}
	if cfg.Simulation.Merton.Lambda < 0 {
		return ValidationError{"simulation.merton.lambda", "must be >= 0"}
	}
	if cfg.Simulation.Merton.SigmaJ < 0 {
		return ValidationError{"simulation.merton.sigma_j", "must be >= 0"}
	}
	if cfg.Simulation.SentimentVolMult <= 0 {
		return ValidationError{"simulation.sentiment_vol_mult", "must be > 0"}
	}

	return nil
}
