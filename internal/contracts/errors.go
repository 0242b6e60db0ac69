package contracts

import "errors"

// 분석 오류 분류
// - ErrMissingInput: 해당 축만 unavailable 처리, data_completeness < 1 전파
// - ErrInsufficientHistory: 해당 종목의 해당 축만 unavailable, 배치는 계속
// 설정 오류(fatal)는 analysisconfig.ValidationError로 기동 시점에 차단
var (
	ErrMissingInput        = errors.New("required input missing")
	ErrInsufficientHistory = errors.New("insufficient history")
)
