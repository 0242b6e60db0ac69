package composite

// Tier is the qualitative bucket for a composite score. 라벨링 전용,
// 수치 점수에는 영향 없음.
type Tier struct {
	Tier        string `json:"tier"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// ClassifyTier buckets a composite score:
// excellent ≥80, good ≥65, fair ≥50, average ≥35, caution ≥20, risk <20
func ClassifyTier(score *float64) Tier {
	if score == nil {
		return Tier{
			Tier:        "unknown",
			Label:       "분석 불가",
			Color:       "gray",
			Description: "데이터 부족으로 종합 점수를 산출할 수 없습니다",
		}
	}
	switch {
	case *score >= 80:
		return Tier{
			Tier:        "excellent",
			Label:       "최우량",
			Color:       "emerald",
			Description: "가치·수급·모멘텀·전망이 모두 우수합니다",
		}
	case *score >= 65:
		return Tier{
			Tier:        "good",
			Label:       "우량",
			Color:       "green",
			Description: "대부분의 지표가 긍정적입니다",
		}
	case *score >= 50:
		return Tier{
			Tier:        "fair",
			Label:       "양호",
			Color:       "blue",
			Description: "전반적으로 무난한 수준입니다",
		}
	case *score >= 35:
		return Tier{
			Tier:        "average",
			Label:       "보통",
			Color:       "yellow",
			Description: "일부 지표에서 주의가 필요합니다",
		}
	case *score >= 20:
		return Tier{
			Tier:        "caution",
			Label:       "주의",
			Color:       "orange",
			Description: "다수 지표가 부정적입니다",
		}
	default:
		return Tier{
			Tier:        "risk",
			Label:       "위험",
			Color:       "red",
			Description: "대부분의 지표가 위험 신호를 보이고 있습니다",
		}
	}
}
