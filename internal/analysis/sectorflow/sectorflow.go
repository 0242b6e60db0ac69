package sectorflow

import (
	"math"
	"sort"
	"time"

	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// InvestorTypes aggregated at sector level. 개인 제외.
var InvestorTypes = []string{
	"institution",
	"foreign",
	"pension",
	"private_equity",
	"other_corp",
}

// InvestorTypeLabels maps type keys to Korean display labels
var InvestorTypeLabels = map[string]string{
	"institution":    "기관",
	"foreign":        "외국인",
	"pension":        "연기금",
	"private_equity": "사모펀드",
	"other_corp":     "기타법인",
}

// Aggregator computes sector-level whale flow metrics
// ⭐ SSOT: 섹터 단위 수급 집계는 여기서만
//
// (섹터, 투자주체) 조합마다 섹터 소속 전 종목의 일별 순매수를 합산한 뒤
// 강도/일관성/시그널/추세를 계산한다. 종목 단위 whale 점수와 독립적으로
// 섹터 회전 초기 단계를 포착하는 용도.
type Aggregator struct {
	lookbackDays int
	logger       *logger.Logger
}

// NewAggregator creates a sector flow aggregator
func NewAggregator(lookbackDays int, log *logger.Logger) *Aggregator {
	return &Aggregator{lookbackDays: lookbackDays, logger: log}
}

// Compute aggregates flows per (sector, investor type).
//
//	sectorMap:     ticker → sector
//	flows:         ticker → 일별 수급 레코드
//	tradingValues: ticker → 일평균 거래대금
func (a *Aggregator) Compute(
	asOfDate time.Time,
	sectorMap map[string]string,
	flows map[string][]*contracts.InvestorFlowRecord,
	tradingValues map[string]float64,
) []*contracts.SectorFlowSnapshot {
	sectorTickers := make(map[string][]string)
	for ticker, sector := range sectorMap {
		if sector == "" {
			continue
		}
		if _, ok := flows[ticker]; !ok {
			continue
		}
		sectorTickers[sector] = append(sectorTickers[sector], ticker)
	}

	// Deterministic iteration order for stable output
	sectors := make([]string, 0, len(sectorTickers))
	for s := range sectorTickers {
		sectors = append(sectors, s)
	}
	sort.Strings(sectors)

	var results []*contracts.SectorFlowSnapshot
	for _, sector := range sectors {
		tickers := sectorTickers[sector]
		stockCount := len(tickers)

		sectorTradingValue := 0.0
		for _, t := range tickers {
			sectorTradingValue += tradingValues[t]
		}

		for _, investorType := range InvestorTypes {
			snapshot := a.aggregateType(asOfDate, sector, investorType, tickers, flows, sectorTradingValue, stockCount)
			results = append(results, snapshot)
		}
	}

	a.logger.WithFields(map[string]interface{}{
		"sectors": len(sectors),
		"rows":    len(results),
	}).Debug("Computed sector flows")

	return results
}

func (a *Aggregator) aggregateType(
	asOfDate time.Time,
	sector, investorType string,
	tickers []string,
	flows map[string][]*contracts.InvestorFlowRecord,
	sectorTradingValue float64,
	stockCount int,
) *contracts.SectorFlowSnapshot {
	// 날짜별 섹터 합산
	dailyFlows := make(map[time.Time]int64)
	for _, ticker := range tickers {
		records := flows[ticker]
		recent := recentRecords(records, a.lookbackDays)
		for _, r := range recent {
			key := dateKey(r.Date)
			dailyFlows[key] += netByType(r, investorType)
		}
	}

	if len(dailyFlows) == 0 {
		return &contracts.SectorFlowSnapshot{
			AsOfDate:     asOfDate,
			Sector:       sector,
			InvestorType: investorType,
			Signal:       "neutral",
			StockCount:   stockCount,
		}
	}

	dates := make([]time.Time, 0, len(dailyFlows))
	for d := range dailyFlows {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	var netPurchase int64
	buyDays := 0
	ordered := make([]int64, 0, len(dates))
	for _, d := range dates {
		f := dailyFlows[d]
		ordered = append(ordered, f)
		netPurchase += f
		if f > 0 {
			buyDays++
		}
	}
	totalDays := len(ordered)

	consistency := float64(buyDays) / float64(totalDays)

	intensity := 0.0
	if sectorTradingValue > 0 {
		avgDailyNet := math.Abs(float64(netPurchase)) / float64(totalDays)
		intensity = math.Min(avgDailyNet/sectorTradingValue, 1.0)
	}

	trend5d := netPurchase
	if len(ordered) >= 5 {
		trend5d = 0
		for _, f := range ordered[len(ordered)-5:] {
			trend5d += f
		}
	}

	return &contracts.SectorFlowSnapshot{
		AsOfDate:     asOfDate,
		Sector:       sector,
		InvestorType: investorType,
		NetPurchase:  netPurchase,
		Intensity:    round4(intensity),
		Consistency:  round2(consistency),
		Signal:       classifySignal(consistency, intensity, netPurchase),
		Trend5D:      trend5d,
		Trend20D:     netPurchase,
		StockCount:   stockCount,
	}
}

func classifySignal(consistency, intensity float64, netPurchase int64) string {
	switch {
	case netPurchase > 0 && consistency >= 0.7 && intensity >= 0.3:
		return "strong_accumulation"
	case netPurchase > 0 && consistency >= 0.5:
		return "mild_accumulation"
	case netPurchase < 0 && consistency <= 0.3:
		return "distribution"
	default:
		return "neutral"
	}
}

func netByType(r *contracts.InvestorFlowRecord, investorType string) int64 {
	switch investorType {
	case "institution":
		return r.InstitutionNet
	case "foreign":
		return r.ForeignNet
	case "pension":
		return r.PensionNet
	case "private_equity":
		return r.PrivateEquityNet
	case "other_corp":
		return r.OtherCorpNet
	default:
		return 0
	}
}

func recentRecords(records []*contracts.InvestorFlowRecord, n int) []*contracts.InvestorFlowRecord {
	sorted := make([]*contracts.InvestorFlowRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

func dateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
