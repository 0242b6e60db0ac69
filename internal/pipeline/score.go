package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/wonny/whaleback/internal/analysis/composite"
	"github.com/wonny/whaleback/internal/analysis/fscore"
	"github.com/wonny/whaleback/internal/analysis/trend"
	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// scorePhase computes and persists every axis per ticker.
// 축 단위 실패는 해당 축만 결측 — 종합 점수는 남은 축으로 재정규화.
func (r *Runner) scorePhase(
	ctx context.Context,
	log *logger.Logger,
	asOfDate time.Time,
	data map[string]*tickerData,
	sectorMap map[string]string,
	medians map[string]fscore.SectorMedians,
	allRS []float64,
	quadrantBySector map[string]string,
	bonusByTicker map[string]float64,
	summary *Summary,
) {
	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(r.maxWorkers())
	for ticker, d := range data {
		ticker, d := ticker, d
		p.Go(func() {
			counts := r.scoreTicker(ctx, log, asOfDate, ticker, d, sectorMap, medians, allRS, quadrantBySector, bonusByTicker)

			mu.Lock()
			summary.Quant += counts.quant
			summary.Whale += counts.whale
			summary.Flow += counts.flow
			summary.Trend += counts.trend
			summary.Risk += counts.risk
			summary.Simulation += counts.simulation
			summary.Composite += counts.composite
			if counts.quant+counts.whale+counts.trend == 0 {
				summary.Failed++
			}
			mu.Unlock()
		})
	}
	p.Wait()
}

type tickerCounts struct {
	quant, whale, flow, trend, risk, simulation, composite int
}

func (r *Runner) scoreTicker(
	ctx context.Context,
	log *logger.Logger,
	asOfDate time.Time,
	ticker string,
	d *tickerData,
	sectorMap map[string]string,
	medians map[string]fscore.SectorMedians,
	allRS []float64,
	quadrantBySector map[string]string,
	bonusByTicker map[string]float64,
) tickerCounts {
	var counts tickerCounts
	tlog := log.WithField("ticker", ticker)
	sector := sectorMap[ticker]
	meta := contracts.ScoreMeta{Ticker: ticker, AsOfDate: asOfDate}

	warn := func(axis string, err error) {
		tlog.WithFields(map[string]interface{}{
			"axis":  axis,
			"error": err.Error(),
		}).Warn("Axis computation failed")
	}

	// ---- Quant (RIM + F-Score + grade) ----
	var quantInput *composite.QuantInput
	if quantSnap := r.computeQuant(ctx, ticker, asOfDate, d, medians[sector]); quantSnap != nil {
		quantInput = &composite.QuantInput{
			FScore:           quantSnap.FScore,
			SafetyMarginPct:  quantSnap.SafetyMarginPct,
			DataCompleteness: quantSnap.DataCompleteness,
		}
		if err := r.deps.Snapshots.SaveQuant(ctx, quantSnap); err != nil {
			warn("quant", err)
		} else {
			counts.quant = 1
		}
	}

	// ---- Whale (institutional accumulation) ----
	var whaleInput *composite.WhaleInput
	if len(d.flows) > 0 {
		res := r.whale.Compute(ticker, d.flows, d.avgTradeVal)
		whaleInput = &composite.WhaleInput{
			WhaleScore:       res.WhaleScore,
			DataCompleteness: res.DataCompleteness,
		}
		snap := &contracts.WhaleSnapshot{
			ScoreMeta:    meta,
			WhaleScore:   res.WhaleScore,
			Components:   res.Components,
			Signal:       res.Signal,
			SignalLabel:  res.SignalLabel,
			LookbackDays: res.LookbackDays,
		}
		snap.DataCompleteness = res.DataCompleteness
		if err := r.deps.Snapshots.SaveWhale(ctx, snap); err != nil {
			warn("whale", err)
		} else {
			counts.whale = 1
		}

		// ---- Flow (retail contrarian + smart/dumb divergence) ----
		retail := r.whale.ComputeRetailContrarian(d.flows, d.avgTradeVal)
		divergence := r.whale.ComputeSmartDumbDivergence(d.flows, d.avgTradeVal)
		flowSnap := &contracts.FlowSnapshot{
			ScoreMeta:         meta,
			RetailZ:           retail.RetailZ,
			RetailIntensity:   retail.RetailIntensity,
			RetailConsistency: retail.RetailConsistency,
			RetailSignal:      retail.Signal,
			DivergenceScore:   divergence.DivergenceScore,
			SmartRatio:        divergence.SmartRatio,
			DumbRatio:         divergence.DumbRatio,
			DivergenceSignal:  divergence.Signal,
		}
		flowSnap.DataCompleteness = res.DataCompleteness
		if err := r.deps.Snapshots.SaveFlow(ctx, flowSnap); err != nil {
			warn("flow", err)
		} else {
			counts.flow = 1
		}
	}

	// ---- Trend (relative strength) ----
	var trendInput *composite.TrendInput
	if d.rs != nil && d.rs.CurrentRS != nil {
		percentile := trend.ComputeRSPercentile(d.rs.CurrentRS, allRS)
		quadrant := quadrantBySector[sector]
		trendInput = &composite.TrendInput{
			RSPercentile:   percentile,
			SectorQuadrant: quadrant,
		}
		snap := &contracts.TrendSnapshot{
			ScoreMeta:      meta,
			CurrentRS:      d.rs.CurrentRS,
			RSChangePct:    d.rs.RSChangePct,
			RSPercentile:   percentile,
			Sector:         sector,
			SectorQuadrant: quadrant,
		}
		snap.DataCompleteness = 1.0
		if err := r.deps.Snapshots.SaveTrend(ctx, snap); err != nil {
			warn("trend", err)
		} else {
			counts.trend = 1
		}
	}

	stockCloses, indexCloses := alignedCloses(d)

	// ---- Risk metrics ----
	if len(stockCloses) >= 2 {
		snap := r.risk.Compute(ticker, stockCloses, indexCloses)
		snap.AsOfDate = asOfDate
		snap.DataCompleteness = 1.0
		if err := r.deps.Snapshots.SaveRisk(ctx, snap); err != nil {
			warn("risk", err)
		} else {
			counts.risk = 1
		}
	}

	// ---- Simulation (Monte Carlo ensemble) ----
	var simInput *composite.SimulationInput
	if simResult, err := r.simulation.Compute(ticker, closesOf(d.bars)); err != nil {
		tlog.WithFields(map[string]interface{}{
			"axis":  "simulation",
			"error": err.Error(),
		}).Debug("Simulation unavailable")
	} else {
		simInput = &composite.SimulationInput{SimulationScore: simResult.SimulationScore}
		snap := &contracts.SimulationSnapshot{
			ScoreMeta:       meta,
			SimulationScore: simResult.SimulationScore,
			SimulationGrade: simResult.SimulationGrade,
			BasePrice:       simResult.BasePrice,
			Mu:              simResult.Mu,
			Sigma:           simResult.Sigma,
			NumSimulations:  simResult.NumSimulations,
			InputDaysUsed:   simResult.InputDaysUsed,
			Horizons:        simResult.Horizons,
			TargetProbs:     simResult.TargetProbs,
			ModelBreakdown:  simResult.ModelBreakdown,
			Seeds:           simResult.Seeds,
		}
		snap.DataCompleteness = 1.0
		if err := r.deps.Snapshots.SaveSimulation(ctx, snap); err != nil {
			warn("simulation", err)
		} else {
			counts.simulation = 1
		}
	}

	// ---- Composite ----
	if quantInput == nil && whaleInput == nil && trendInput == nil {
		return counts
	}
	res := r.composite.Compute(ticker, composite.Inputs{
		Quant:           quantInput,
		Whale:           whaleInput,
		Trend:           trendInput,
		Simulation:      simInput,
		SectorFlowBonus: bonusByTicker[ticker],
	})
	snap := &contracts.CompositeSnapshot{
		ScoreMeta:         meta,
		CompositeScore:    res.CompositeScore,
		ValueScore:        res.ValueScore,
		FlowScore:         res.FlowScore,
		MomentumScore:     res.MomentumScore,
		ForecastScore:     res.ForecastScore,
		WeightsUsed:       res.WeightsUsed,
		Confidence:        res.Confidence,
		AxesAvailable:     res.AxesAvailable,
		ConfluenceTier:    res.Confluence.Tier,
		ConfluencePattern: res.Confluence.Pattern,
		ValueSignal:       res.Confluence.ValueSignal,
		FlowSignal:        res.Confluence.FlowSignal,
		MomentumSignal:    res.Confluence.MomentumSignal,
		ForecastSignal:    res.Confluence.ForecastSignal,
		DivergenceType:    res.Confluence.DivergenceType,
		DivergenceLabel:   res.Confluence.DivergenceLabel,
		ActionLabel:       res.Confluence.ActionLabel,
		Tier:              res.Tier.Tier,
		TierLabel:         res.Tier.Label,
		TierColor:         res.Tier.Color,
	}
	snap.DataCompleteness = res.Confidence
	if err := r.deps.Snapshots.SaveComposite(ctx, snap); err != nil {
		warn("composite", err)
	} else {
		counts.composite = 1
	}

	return counts
}

// computeQuant runs valuation, F-Score, and grading for one ticker.
// 재무 스냅샷이 없으면 nil — 가치 축 결측.
func (r *Runner) computeQuant(ctx context.Context, ticker string, asOfDate time.Time, d *tickerData, medians fscore.SectorMedians) *contracts.QuantSnapshot {
	if len(d.bars) == 0 {
		return nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil
	}
	current, err := r.deps.Fundamentals.GetLatestByTicker(ctx, ticker, asOfDate)
	if err != nil || current == nil {
		return nil
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil
	}
	// 전기 비교 기준: 1년 전 근방 스냅샷
	previous, _ := r.deps.Fundamentals.GetNearestByTicker(ctx, ticker, asOfDate.AddDate(-1, 0, 0))

	window := lastBars(d.bars, volumeWindowBars)
	volumeCurrent := &window[len(window)-1].Volume
	var volumePrevious *int64
	if len(window) > 20 {
		volumePrevious = &window[0].Volume
	}

	latestClose := d.bars[len(d.bars)-1].Close

	snap := &contracts.QuantSnapshot{
		ScoreMeta: contracts.ScoreMeta{Ticker: ticker, AsOfDate: asOfDate},
	}

	if rim, err := r.valuation.Compute(ticker, current.BPS, current.ROE, latestClose); err == nil {
		snap.RIMValue = &rim.RIMValue
		snap.SafetyMarginPct = rim.SafetyMarginPct
		snap.IsUndervalued = rim.IsUndervalued
	}

	fs := r.fscore.Compute(ticker, current, previous, medians, volumeCurrent, volumePrevious)
	snap.FScore = fs.Score
	snap.Criteria = fs.Criteria
	snap.DataCompleteness = fs.DataCompleteness

	grade := fscore.ComputeGrade(fs.Score, snap.SafetyMarginPct, fs.DataCompleteness)
	snap.Grade = grade.Grade
	snap.GradeLabel = grade.Label

	return snap
}

// alignedCloses intersects the stock and benchmark series on date so
// beta regressions compare the same trading days.
func alignedCloses(d *tickerData) (stock, index []float64) {
	if len(d.indexByDate) == 0 {
		return closesOf(d.bars), nil
	}
	for _, b := range d.bars {
		key := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
		if idxClose, ok := d.indexByDate[key]; ok {
			stock = append(stock, float64(b.Close))
			index = append(index, idxClose)
		}
	}
	return stock, index
}

func closesOf(bars []*contracts.PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = float64(b.Close)
	}
	return closes
}
