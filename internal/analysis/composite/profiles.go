package composite

// 투자 성향별 가중치 프리셋 + 최소 편입 조건.
// 종합 점수와 별도로 프로필 기반 스크리닝에 사용됨.

// Profile is an investor-profile weight preset with eligibility filters
type Profile struct {
	Name        string
	Label       string
	Description string
	Weights     map[string]float64 // 합 = 1
	MinFilters  map[string]float64 // metric → 최소값
}

// Profiles is the preset registry, keyed by profile name
var Profiles = map[string]Profile{
	"value": {
		Name:        "value",
		Label:       "가치 투자",
		Description: "저평가 우량주 발굴",
		Weights: map[string]float64{
			AxisValue: 0.40, AxisFlow: 0.20, AxisMomentum: 0.15, AxisForecast: 0.25,
		},
		MinFilters: map[string]float64{"fscore": 6, "safety_margin": 10},
	},
	"growth": {
		Name:        "growth",
		Label:       "성장 투자",
		Description: "기관 수급과 성장성 중시",
		Weights: map[string]float64{
			AxisValue: 0.20, AxisFlow: 0.30, AxisMomentum: 0.25, AxisForecast: 0.25,
		},
		MinFilters: map[string]float64{"fscore": 5, "whale_score": 50},
	},
	"momentum": {
		Name:        "momentum",
		Label:       "모멘텀 투자",
		Description: "상대강도와 추세 추종",
		Weights: map[string]float64{
			AxisValue: 0.15, AxisFlow: 0.25, AxisMomentum: 0.35, AxisForecast: 0.25,
		},
		MinFilters: map[string]float64{"rs_percentile": 70},
	},
	"balanced": {
		Name:        "balanced",
		Label:       "균형 투자",
		Description: "가치·수급·모멘텀·전망 균형",
		Weights: map[string]float64{
			AxisValue: 0.30, AxisFlow: 0.30, AxisMomentum: 0.20, AxisForecast: 0.20,
		},
		MinFilters: map[string]float64{},
	},
}

// ProfileResult is the profile-screened score for one ticker
type ProfileResult struct {
	Score        *float64        `json:"score"`
	Eligible     bool            `json:"eligible"`
	Profile      string          `json:"profile"`
	ProfileLabel string          `json:"profile_label"`
	FiltersMet   map[string]bool `json:"filters_met"`
}

// ComputeProfileScore scores with a profile's weight preset and checks
// its eligibility filters. 알 수 없는 프로필은 balanced로 폴백.
func (s *Scorer) ComputeProfileScore(ticker string, in Inputs, profileName string) *ProfileResult {
	prof, ok := Profiles[profileName]
	if !ok {
		s.logger.WithField("profile", profileName).Warn("Unknown investor profile, falling back to balanced")
		prof = Profiles["balanced"]
	}

	result := s.ComputeWithWeights(ticker, in, prof.Weights)

	filtersMet := make(map[string]bool, len(prof.MinFilters))
	eligible := true
	for filter, threshold := range prof.MinFilters {
		actual := extractFilterValue(filter, in)
		passed := actual != nil && *actual >= threshold
		filtersMet[filter] = passed
		if !passed {
			eligible = false
		}
	}

	return &ProfileResult{
		Score:        result.CompositeScore,
		Eligible:     eligible,
		Profile:      prof.Name,
		ProfileLabel: prof.Label,
		FiltersMet:   filtersMet,
	}
}

func extractFilterValue(filter string, in Inputs) *float64 {
	switch filter {
	case "fscore":
		if in.Quant != nil {
			v := float64(in.Quant.FScore)
			return &v
		}
	case "safety_margin":
		if in.Quant != nil {
			return in.Quant.SafetyMarginPct
		}
	case "whale_score":
		if in.Whale != nil {
			return &in.Whale.WhaleScore
		}
	case "rs_percentile":
		if in.Trend != nil && in.Trend.RSPercentile != nil {
			v := float64(*in.Trend.RSPercentile)
			return &v
		}
	case "simulation_score":
		if in.Simulation != nil {
			return &in.Simulation.SimulationScore
		}
	}
	return nil
}
