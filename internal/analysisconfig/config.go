package analysisconfig

// Config는 분석 엔진 전체의 파라미터 설정
// ⭐ SSOT: 분석 파라미터는 여기서만, 기동 시 Validate()로 검증
type Config struct {
	Meta       Meta       `yaml:"meta" json:"meta"`
	Valuation  Valuation  `yaml:"valuation" json:"valuation"`
	Whale      Whale      `yaml:"whale" json:"whale"`
	Trend      Trend      `yaml:"trend" json:"trend"`
	Composite  Composite  `yaml:"composite" json:"composite"`
	Simulation Simulation `yaml:"simulation" json:"simulation"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
	Timezone string `yaml:"timezone" json:"timezone"`
}

// Valuation RIM 밸류에이션 파라미터
type Valuation struct {
	RiskFreeRate      float64 `yaml:"risk_free_rate" json:"risk_free_rate"`           // 기본 0.035
	EquityRiskPremium float64 `yaml:"equity_risk_premium" json:"equity_risk_premium"` // 기본 0.065
	GrowthRate        float64 `yaml:"growth_rate" json:"growth_rate"`                 // 영구성장률, 기본 0.0
}

// RequiredReturn 자기자본비용 r = rf + erp
func (v Valuation) RequiredReturn() float64 {
	return v.RiskFreeRate + v.EquityRiskPremium
}

// Whale 기관 매집 스코어 파라미터
type Whale struct {
	LookbackDays int `yaml:"lookback_days" json:"lookback_days"` // 기본 20 거래일
}

// Trend 상대강도 파라미터
type Trend struct {
	RSWindowDays     int    `yaml:"rs_window_days" json:"rs_window_days"`         // 재지수화 구간, 기본 60
	RSChangeWindow   int    `yaml:"rs_change_window" json:"rs_change_window"`     // RS 변화율 구간, 기본 20
	BenchmarkIndex   string `yaml:"benchmark_index" json:"benchmark_index"`       // 기본 KOSPI
	RotationMinStock int    `yaml:"rotation_min_stock" json:"rotation_min_stock"` // 섹터 분류 최소 종목수
}

// Composite 종합 점수 축 가중치 (합 = 1)
type Composite struct {
	WeightValue    float64 `yaml:"weight_value" json:"weight_value"`       // 기본 0.30
	WeightFlow     float64 `yaml:"weight_flow" json:"weight_flow"`         // 기본 0.30
	WeightMomentum float64 `yaml:"weight_momentum" json:"weight_momentum"` // 기본 0.20
	WeightForecast float64 `yaml:"weight_forecast" json:"weight_forecast"` // 기본 0.20

	// 축 가용 판정에 필요한 최소 data_completeness
	MinAxisCompleteness float64 `yaml:"min_axis_completeness" json:"min_axis_completeness"` // 기본 0.5
}

// Simulation 몬테카를로 앙상블 파라미터
type Simulation struct {
	NumPaths          int       `yaml:"num_paths" json:"num_paths"`                   // 모델당 경로 수, 기본 10000
	MinHistoryDays    int       `yaml:"min_history_days" json:"min_history_days"`     // 기본 60
	MaxSigma          float64   `yaml:"max_sigma" json:"max_sigma"`                   // 연환산 변동성 상한, 기본 1.50
	Horizons          []int     `yaml:"horizons" json:"horizons"`                     // 거래일 기준, 기본 [21, 63, 126]
	TargetMultipliers []float64 `yaml:"target_multipliers" json:"target_multipliers"` // 기본 [1.1, 1.3, 1.5]

	// 앙상블 모델 가중치 (합 = 1)
	WeightGBM    float64 `yaml:"weight_gbm" json:"weight_gbm"`
	WeightGARCH  float64 `yaml:"weight_garch" json:"weight_garch"`
	WeightHeston float64 `yaml:"weight_heston" json:"weight_heston"`
	WeightMerton float64 `yaml:"weight_merton" json:"weight_merton"`

	Heston HestonParams `yaml:"heston" json:"heston"`
	Merton MertonParams `yaml:"merton" json:"merton"`

	// 감성 보정 (뉴스 수집기는 외부 협력자, 여기서는 nudge 값만 수용)
	SentimentDriftAdj float64 `yaml:"sentiment_drift_adj" json:"sentiment_drift_adj"` // 연환산 drift 가산
	SentimentVolMult  float64 `yaml:"sentiment_vol_mult" json:"sentiment_vol_mult"`   // 변동성 배수, 기본 1.0

	// 재현성: true면 SHA-256("ticker:모델") 기반 결정적 시드
	DeterministicSeed bool `yaml:"deterministic_seed" json:"deterministic_seed"`
}

// ModelWeights returns the ensemble weights keyed by model name
func (s Simulation) ModelWeights() map[string]float64 {
	return map[string]float64{
		"gbm":    s.WeightGBM,
		"garch":  s.WeightGARCH,
		"heston": s.WeightHeston,
		"merton": s.WeightMerton,
	}
}

// HestonParams Heston 확률변동성 모델 파라미터
type HestonParams struct {
	Kappa float64 `yaml:"kappa" json:"kappa"` // 평균회귀 속도, 기본 2.0
	Theta float64 `yaml:"theta" json:"theta"` // 장기 분산, 기본 0.04
	Xi    float64 `yaml:"xi" json:"xi"`       // vol-of-vol, 기본 0.3
	Rho   float64 `yaml:"rho" json:"rho"`     // 가격-분산 상관, 기본 -0.7
}

// MertonParams Merton 점프확산 모델 파라미터
type MertonParams struct {
	Lambda float64 `yaml:"lambda" json:"lambda"`   // 연간 점프 강도, 기본 0.1
	MuJ    float64 `yaml:"mu_j" json:"mu_j"`       // 점프 크기 평균 (log), 기본 -0.02
	SigmaJ float64 `yaml:"sigma_j" json:"sigma_j"` // 점프 크기 변동성, 기본 0.05
}

// Default returns the built-in parameter set used when no YAML is supplied
func Default() *Config {
	return &Config{
		Meta: Meta{
			ConfigID: "whaleback_default",
			Version:  "1.0",
			Timezone: "Asia/Seoul",
		},
		Valuation: Valuation{
			RiskFreeRate:      0.035,
			EquityRiskPremium: 0.065,
			GrowthRate:        0.0,
		},
		Whale: Whale{
			LookbackDays: 20,
		},
		Trend: Trend{
			RSWindowDays:     60,
			RSChangeWindow:   20,
			BenchmarkIndex:   "KOSPI",
			RotationMinStock: 1,
		},
		Composite: Composite{
			WeightValue:         0.30,
			WeightFlow:          0.30,
			WeightMomentum:      0.20,
			WeightForecast:      0.20,
			MinAxisCompleteness: 0.5,
		},
		Simulation: Simulation{
			NumPaths:          10000,
			MinHistoryDays:    60,
			MaxSigma:          1.50,
			Horizons:          []int{21, 63, 126},
			TargetMultipliers: []float64{1.1, 1.3, 1.5},
			WeightGBM:         0.25,
			WeightGARCH:       0.30,
			WeightHeston:      0.20,
			WeightMerton:      0.25,
			Heston: HestonParams{
				Kappa: 2.0,
				Theta: 0.04,
				Xi:    0.3,
				Rho:   -0.7,
			},
			Merton: MertonParams{
				Lambda: 0.1,
				MuJ:    -0.02,
				SigmaJ: 0.05,
			},
			SentimentVolMult:  1.0,
			DeterministicSeed: true,
		},
	}
}
