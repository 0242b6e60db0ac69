package fscore

// Grade is the combined investment grade from F-Score and safety margin
type Grade struct {
	Grade string `json:"grade"` // A+, A, B+, B, C+, C, D, F
	Label string `json:"label"` // 한국어 등급 설명
}

// MinCompleteness below which the grade degrades to F regardless of score.
// 절반 이상 결측이면 점수 자체를 신뢰할 수 없음.
const MinCompleteness = 0.5

// missingMarginSentinel: 안전마진 결측 시 모든 마진 조건이 실패하도록 하는 값
const missingMarginSentinel = -999.0

// ComputeGrade maps (F-Score, safety margin, completeness) to a grade.
//
// 등급 테이블 (위에서부터 첫 매칭):
//
//	A+ : F>=8 그리고 마진>=30%   강력 매수
//	A  : F>=7 그리고 마진>=20%   매수
//	B+ : F>=6 그리고 마진>=10%   매수 검토
//	B  : F>=5 그리고 마진>=0%    보유
//	C+ : F>=4                   관망
//	C  : F>=3                   주의
//	D  : 그 외                   위험
//	F  : completeness < 0.5     데이터 부족
func ComputeGrade(fScore int, safetyMargin *float64, dataCompleteness float64) Grade {
	if dataCompleteness < MinCompleteness {
		return Grade{Grade: "F", Label: "데이터 부족"}
	}

	margin := missingMarginSentinel
	if safetyMargin != nil {
		margin = *safetyMargin
	}

	switch {
	case fScore >= 8 && margin >= 30:
		return Grade{Grade: "A+", Label: "강력 매수"}
	case fScore >= 7 && margin >= 20:
		return Grade{Grade: "A", Label: "매수"}
	case fScore >= 6 && margin >= 10:
		return Grade{Grade: "B+", Label: "매수 검토"}
	case fScore >= 5 && margin >= 0:
		return Grade{Grade: "B", Label: "보유"}
	case fScore >= 4:
		return Grade{Grade: "C+", Label: "관망"}
	case fScore >= 3:
		return Grade{Grade: "C", Label: "주의"}
	default:
		return Grade{Grade: "D", Label: "위험"}
	}
}
