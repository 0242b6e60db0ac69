package contracts

import "time"

// ScoreMeta is shared by every analysis snapshot.
// 하루 한 번 생성되며 변경되지 않음. 다음 날 레코드가 이전 것을 대체(supersede)함.
type ScoreMeta struct {
	Ticker           string    `json:"ticker"`
	AsOfDate         time.Time `json:"as_of_date"`
	DataCompleteness float64   `json:"data_completeness"` // [0,1]
}

// =============================================================================
// Quant (Valuation + F-Score + Grade)
// =============================================================================

// FScoreCriterion is the per-signal breakdown exposed for explainability.
// 사용자 대면 계약이므로 이름/라벨/원본값을 모두 포함.
type FScoreCriterion struct {
	Name  string   `json:"name"`
	Score int      `json:"score"` // 0 or 1
	Value *float64 `json:"value"` // raw value behind the signal, nil if missing
	Label string   `json:"label"` // Korean human label
	Note  string   `json:"note,omitempty"`
}

// QuantSnapshot combines RIM valuation, F-Score, and investment grade
type QuantSnapshot struct {
	ScoreMeta

	// RIM valuation (nil = valuation unavailable)
	RIMValue        *float64 `json:"rim_value"`
	SafetyMarginPct *float64 `json:"safety_margin_pct"` // positive = undervalued
	IsUndervalued   *bool    `json:"is_undervalued"`

	// Modified F-Score
	FScore   int               `json:"fscore"` // 0-9
	Criteria []FScoreCriterion `json:"criteria"`

	// Investment grade
	Grade      string `json:"grade"` // A+, A, B+, B, C+, C, D, F
	GradeLabel string `json:"grade_label"`
}

// =============================================================================
// Whale (institutional accumulation)
// =============================================================================

// WhaleComponent holds the per-investor-type sub-score breakdown
type WhaleComponent struct {
	NetTotal    int64   `json:"net_total"`
	BuyDays     int     `json:"buy_days"`
	SellDays    int     `json:"sell_days"`
	NeutralDays int     `json:"neutral_days"`
	Consistency float64 `json:"consistency"` // [0,1]
	Intensity   float64 `json:"intensity"`   // [0,1]
	Score       float64 `json:"score"`       // [0,100]
}

// WhaleSnapshot is the institutional accumulation score record
type WhaleSnapshot struct {
	ScoreMeta

	WhaleScore   float64                   `json:"whale_score"` // [0,100]
	Components   map[string]WhaleComponent `json:"components"`  // key: investor type
	Signal       string                    `json:"signal"`      // strong_accumulation | mild_accumulation | neutral | distribution
	SignalLabel  string                    `json:"signal_label"`
	LookbackDays int                       `json:"lookback_days"` // actual days used
}

// =============================================================================
// Flow signals (retail contrarian, smart/dumb divergence)
// =============================================================================

// FlowSnapshot holds the retail contrarian and smart/dumb divergence signals
type FlowSnapshot struct {
	ScoreMeta

	RetailZ           float64 `json:"retail_z"`
	RetailIntensity   float64 `json:"retail_intensity"`
	RetailConsistency float64 `json:"retail_consistency"`
	RetailSignal      string  `json:"retail_signal"`

	DivergenceScore  float64 `json:"divergence_score"`
	SmartRatio       float64 `json:"smart_ratio"`
	DumbRatio        float64 `json:"dumb_ratio"`
	DivergenceSignal string  `json:"divergence_signal"`
}

// =============================================================================
// Trend (relative strength + sector rotation)
// =============================================================================

// RSPoint is one entry of the re-indexed relative strength series
type RSPoint struct {
	Date         time.Time `json:"date"`
	StockIndexed float64   `json:"stock_indexed"`
	IndexIndexed float64   `json:"index_indexed"`
	RSRatio      float64   `json:"rs_ratio"`
}

// TrendSnapshot is the relative-strength score record
type TrendSnapshot struct {
	ScoreMeta

	CurrentRS      *float64 `json:"current_rs"`
	RSChangePct    *float64 `json:"rs_change_pct"` // positive = outperforming over window
	RSPercentile   *int     `json:"rs_percentile"` // [0,100], 100 = strongest
	Sector         string   `json:"sector"`
	SectorQuadrant string   `json:"sector_quadrant"` // leading | weakening | improving | lagging
}

// SectorRotation holds per-sector aggregates used by the rotation quadrant
type SectorRotation struct {
	Sector       string  `json:"sector"`
	StockCount   int     `json:"stock_count"`
	AvgRS20D     float64 `json:"avg_rs_20d"`
	AvgRSChange  float64 `json:"avg_rs_change"`
	MomentumRank int     `json:"momentum_rank"` // 1 = best
	Quadrant     string  `json:"quadrant"`
}

// =============================================================================
// Sector whale flow
// =============================================================================

// SectorFlowSnapshot is one (sector, investor type) flow aggregate
type SectorFlowSnapshot struct {
	AsOfDate     time.Time `json:"as_of_date"`
	Sector       string    `json:"sector"`
	InvestorType string    `json:"investor_type"`
	NetPurchase  int64     `json:"net_purchase"`
	Intensity    float64   `json:"intensity"`
	Consistency  float64   `json:"consistency"`
	Signal       string    `json:"signal"`
	Trend5D      int64     `json:"trend_5d"`
	Trend20D     int64     `json:"trend_20d"`
	StockCount   int       `json:"stock_count"`
}

// =============================================================================
// Risk metrics
// =============================================================================

// RiskSnapshot holds per-ticker risk metrics.
// 변동성/MDD는 기간별로, 해석 라벨은 60일 변동성·베타 기준.
type RiskSnapshot struct {
	ScoreMeta

	Volatility20D *float64 `json:"volatility_20d"` // 연환산 %, 예: 32.5
	Volatility60D *float64 `json:"volatility_60d"`
	Volatility1Y  *float64 `json:"volatility_1y"`
	RiskLevel     string   `json:"risk_level"` // low | medium | high | very_high | unknown
	RiskLabel     string   `json:"risk_label"`

	Beta60D            *float64 `json:"beta_60d"`
	Beta252D           *float64 `json:"beta_252d"`
	BetaInterpretation string   `json:"beta_interpretation"` // defensive | neutral | aggressive | highly_aggressive | unknown
	BetaLabel          string   `json:"beta_label"`

	MDD60D          *float64 `json:"mdd_60d"` // 음수 = 손실폭
	MDD1Y           *float64 `json:"mdd_1y"`
	CurrentDrawdown *float64 `json:"current_drawdown"` // 전고점 대비
	RecoveryLabel   string   `json:"recovery_label"`

	VaR95  *float64 `json:"var_95"` // 일간 손실을 양수로 표현
	CVaR95 *float64 `json:"cvar_95"`
}

// =============================================================================
// Simulation (Monte Carlo ensemble)
// =============================================================================

// HorizonStats holds percentile bands for one forward horizon
type HorizonStats struct {
	Label             string  `json:"label"` // 1개월, 3개월, ...
	P5                int64   `json:"p5"`
	P25               int64   `json:"p25"`
	P50               int64   `json:"p50"`
	P75               int64   `json:"p75"`
	P95               int64   `json:"p95"`
	ExpectedReturnPct float64 `json:"expected_return_pct"`
	VaR5PctPct        float64 `json:"var_5pct_pct"` // 5th percentile return, negative = loss
	UpsideProb        float64 `json:"upside_prob"`  // fraction of paths above base price
}

// ModelScore is the per-model contribution in the ensemble breakdown
type ModelScore struct {
	Model  string   `json:"model"`
	Score  *float64 `json:"score"`
	Weight float64  `json:"weight"`
}

// SimulationSnapshot is the Monte Carlo ensemble result record
type SimulationSnapshot struct {
	ScoreMeta

	SimulationScore float64                    `json:"simulation_score"` // [0,100]
	SimulationGrade string                     `json:"simulation_grade"` // positive | neutral_positive | neutral | negative
	BasePrice       int64                      `json:"base_price"`
	Mu              float64                    `json:"mu"`    // annualized drift
	Sigma           float64                    `json:"sigma"` // annualized volatility
	NumSimulations  int                        `json:"num_simulations"`
	InputDaysUsed   int                        `json:"input_days_used"`
	Horizons        map[int]HorizonStats       `json:"horizons"`     // key: horizon in trading days
	TargetProbs     map[string]map[int]float64 `json:"target_probs"` // multiplier -> horizon -> probability
	ModelBreakdown  []ModelScore               `json:"model_breakdown,omitempty"`
	Seeds           map[string]uint64          `json:"seeds"` // model -> seed used (debugging)
}

// =============================================================================
// Composite
// =============================================================================

// CompositeSnapshot is the multi-axis composite score record
type CompositeSnapshot struct {
	ScoreMeta

	CompositeScore *float64 `json:"composite_score"` // [0,100], nil when no axis available
	ValueScore     *float64 `json:"value_score"`
	FlowScore      *float64 `json:"flow_score"`
	MomentumScore  *float64 `json:"momentum_score"`
	ForecastScore  *float64 `json:"forecast_score"`

	WeightsUsed   map[string]float64 `json:"weights_used"`
	Confidence    float64            `json:"confidence"` // axes_available / 4
	AxesAvailable int                `json:"axes_available"`

	// Confluence / divergence diagnostics
	ConfluenceTier    int    `json:"confluence_tier"` // 1-5
	ConfluencePattern string `json:"confluence_pattern"`
	ValueSignal       string `json:"value_signal"`
	FlowSignal        string `json:"flow_signal"`
	MomentumSignal    string `json:"momentum_signal"`
	ForecastSignal    string `json:"forecast_signal"`
	DivergenceType    string `json:"divergence_type,omitempty"`
	DivergenceLabel   string `json:"divergence_label,omitempty"`
	ActionLabel       string `json:"action_label"`

	// Qualitative tier (labeling only)
	Tier      string `json:"tier"`
	TierLabel string `json:"tier_label"`
	TierColor string `json:"tier_color"`
}
