package trend

import (
	"math"
	"time"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// Engine computes relative strength vs a benchmark index
// ⭐ SSOT: 상대강도/섹터 로테이션 계산은 여기서만
//
// 종목과 지수를 공통 거래일 기준으로 정렬한 뒤 구간 첫날을 100으로
// 재지수화한다:
//
//	stock_indexed = close/close[0]*100
//	index_indexed = idx/idx[0]*100
//	rs_ratio      = stock_indexed / index_indexed
type Engine struct {
	rsWindowDays   int // RS 계산 구간 (기본 60일)
	rsChangeWindow int // 변화율 계산 구간 (기본 20일)
	logger         *logger.Logger
}

// RSResult is the relative strength computation output
type RSResult struct {
	CurrentRS   *float64
	RSChangePct *float64
	Series      []contracts.RSPoint
	DaysUsed    int
}

// NewEngine creates a relative strength engine
func NewEngine(rsWindowDays, rsChangeWindow int, log *logger.Logger) *Engine {
	return &Engine{rsWindowDays: rsWindowDays, rsChangeWindow: rsChangeWindow, logger: log}
}

// ComputeRelativeStrength aligns the stock and index series on common
// trading dates and computes the re-indexed RS series over the window.
// 공통 거래일이 2일 미만이면 ErrInsufficientHistory.
func (e *Engine) ComputeRelativeStrength(ticker string, bars []*contracts.PriceBar, index []*contracts.IndexBar) (*RSResult, error) {
	dates, stockCloses, indexCloses := alignByDate(bars, index)

	// 가장 최근 window만 사용
	if len(dates) > e.rsWindowDays {
		cut := len(dates) - e.rsWindowDays
		dates, stockCloses, indexCloses = dates[cut:], stockCloses[cut:], indexCloses[cut:]
	}

	if len(dates) < 2 {
		return nil, contracts.ErrInsufficientHistory
	}

	stockBase, indexBase := stockCloses[0], indexCloses[0]
	if stockBase <= 0 || indexBase <= 0 {
		return nil, contracts.ErrInsufficientHistory
	}

	series := make([]contracts.RSPoint, 0, len(dates))
	for i := range dates {
		stockIndexed := stockCloses[i] / stockBase * 100
		indexIndexed := indexCloses[i] / indexBase * 100
		point := contracts.RSPoint{
			Date:         dates[i],
			StockIndexed: round2(stockIndexed),
			IndexIndexed: round2(indexIndexed),
		}
		if indexIndexed > 0 {
			point.RSRatio = round4(stockIndexed / indexIndexed)
		}
		series = append(series, point)
	}

	currentRS := series[len(series)-1].RSRatio
	result := &RSResult{
		CurrentRS: &currentRS,
		Series:    series,
		DaysUsed:  len(series),
	}

	// 변화율: 최근 rsChangeWindow 거래일 전 대비
	if len(series) > e.rsChangeWindow {
		prior := series[len(series)-1-e.rsChangeWindow].RSRatio
		if prior > 0 {
			change := round2((currentRS - prior) / prior * 100)
			result.RSChangePct = &change
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"ticker":     ticker,
		"current_rs": currentRS,
		"days":       len(series),
	}).Debug("Computed relative strength")

	return result, nil
}

// ComputeRSPercentile ranks currentRS among the cross-section of all
// tickers' RS values on the same date. 100 = 가장 강한 종목.
// 동률은 아래로 세지 않음 (strictly below).
func ComputeRSPercentile(currentRS *float64, allRS []float64) *int {
	if currentRS == nil || len(allRS) == 0 {
		return nil
	}

	below := 0
	for _, v := range allRS {
		if v < *currentRS {
			below++
		}
	}

	pct := int(math.Round(float64(below) / float64(len(allRS)) * 100))
	if pct > 100 {
		pct = 100
	}
	return &pct
}

// alignByDate intersects the two series on trading date, ascending
func alignByDate(bars []*contracts.PriceBar, index []*contracts.IndexBar) ([]time.Time, []float64, []float64) {
	indexByDate := make(map[time.Time]float64, len(index))
	for _, b := range index {
		indexByDate[dateKey(b.Date)] = b.Close
	}

	dates := make([]time.Time, 0, len(bars))
	stockCloses := make([]float64, 0, len(bars))
	indexCloses := make([]float64, 0, len(bars))
	for _, b := range bars {
		key := dateKey(b.Date)
		if idxClose, ok := indexByDate[key]; ok {
			dates = append(dates, key)
			stockCloses = append(stockCloses, float64(b.Close))
			indexCloses = append(indexCloses, idxClose)
		}
	}
	return dates, stockCloses, indexCloses
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
