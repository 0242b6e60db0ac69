package valuation

import (
	"fmt"
	"math"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// Engine computes Residual Income Model intrinsic value and safety margin
// ⭐ SSOT: RIM 밸류에이션 계산은 여기서만
//
//	intrinsic_value = BPS + (ROE% - r) * BPS / (r - g)
//	r = risk_free_rate + equity_risk_premium
//	g = 영구성장률
type Engine struct {
	requiredReturn float64
	growthRate     float64
	logger         *logger.Logger
}

// Result holds the valuation output for one ticker
type Result struct {
	RIMValue        float64  `json:"rim_value"`
	SafetyMarginPct *float64 `json:"safety_margin_pct"`
	IsUndervalued   *bool    `json:"is_undervalued"`
}

// NewEngine creates a valuation engine.
// r == g 는 분모를 0으로 만드는 설정 오류이므로 생성 시점에 차단한다.
func NewEngine(cfg analysisconfig.Valuation, log *logger.Logger) (*Engine, error) {
	r := cfg.RequiredReturn()
	if math.Abs(r-cfg.GrowthRate) < 1e-10 {
		return nil, analysisconfig.ValidationError{
			Field:   "valuation",
			Message: fmt.Sprintf("required return %.4f equals growth rate %.4f", r, cfg.GrowthRate),
		}
	}

	return &Engine{
		requiredReturn: r,
		growthRate:     cfg.GrowthRate,
		logger:         log,
	}, nil
}

// Compute calculates intrinsic value and safety margin for a ticker.
//
// bps, roe가 없거나 bps <= 0이면 밸류에이션 불가로 ErrMissingInput을 반환한다.
// 0으로 대체하지 않음: 결측을 실제 계산값으로 오인하면 안 됨.
func (e *Engine) Compute(ticker string, bps, roe *float64, currentPrice int64) (*Result, error) {
	if bps == nil || roe == nil {
		return nil, fmt.Errorf("%s: bps/roe: %w", ticker, contracts.ErrMissingInput)
	}
	if *bps <= 0 {
		return nil, fmt.Errorf("%s: non-positive bps %.2f: %w", ticker, *bps, contracts.ErrMissingInput)
	}

	// ROE는 퍼센트 값으로 저장됨 (13.21 = 13.21%)
	roeFrac := *roe / 100.0

	residualIncome := (roeFrac - e.requiredReturn) * (*bps)
	rimValue := *bps + residualIncome/(e.requiredReturn-e.growthRate)

	// Ensure non-negative
	rimValue = math.Max(rimValue, 0)

	result := &Result{RIMValue: round2(rimValue)}

	// Safety margin: (intrinsic - price) / intrinsic * 100, 양수 = 저평가
	if rimValue > 0 && currentPrice > 0 {
		margin := round2((rimValue - float64(currentPrice)) / rimValue * 100.0)
		undervalued := margin > 0
		result.SafetyMarginPct = &margin
		result.IsUndervalued = &undervalued
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":    ticker,
		"bps":       *bps,
		"roe":       *roe,
		"rim_value": result.RIMValue,
	}).Debug("Computed RIM valuation")

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
