package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/wonny/whaleback/internal/analysis/composite"
	"github.com/wonny/whaleback/internal/analysis/fscore"
	"github.com/wonny/whaleback/internal/analysis/riskmetrics"
	"github.com/wonny/whaleback/internal/analysis/sectorflow"
	"github.com/wonny/whaleback/internal/analysis/simulation"
	"github.com/wonny/whaleback/internal/analysis/trend"
	"github.com/wonny/whaleback/internal/analysis/valuation"
	"github.com/wonny/whaleback/internal/analysis/whale"
	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// 조회 구간: 시뮬레이션·리스크가 요구하는 252거래일 + 휴장 버퍼
const (
	priceLookbackDays = 550 // calendar days
	flowLookbackDays  = 300
	volumeWindowBars  = 40
)

// SnapshotStore is the persistence surface the pipeline writes to
type SnapshotStore interface {
	SaveQuant(ctx context.Context, snap *contracts.QuantSnapshot) error
	SaveWhale(ctx context.Context, snap *contracts.WhaleSnapshot) error
	SaveFlow(ctx context.Context, snap *contracts.FlowSnapshot) error
	SaveTrend(ctx context.Context, snap *contracts.TrendSnapshot) error
	SaveRisk(ctx context.Context, snap *contracts.RiskSnapshot) error
	SaveSimulation(ctx context.Context, snap *contracts.SimulationSnapshot) error
	SaveComposite(ctx context.Context, snap *contracts.CompositeSnapshot) error
	SaveSectorRotation(ctx context.Context, asOf time.Time, rotations []*contracts.SectorRotation) error
	SaveSectorFlows(ctx context.Context, flows []*contracts.SectorFlowSnapshot) error
}

// MedianProvider supplies per-sector PER/PBR medians for the F-Score
type MedianProvider interface {
	GetSectorMedians(ctx context.Context, sector string, asOf time.Time) (medianPER, medianPBR *float64, err error)
}

// CoverageChecker gates the run on input data coverage
type CoverageChecker interface {
	Check(ctx context.Context, date time.Time) (*contracts.DataCoverageSnapshot, error)
}

// Deps bundles the repositories and collaborators the runner needs
type Deps struct {
	Prices       contracts.PriceRepository
	Fundamentals contracts.FundamentalRepository
	Medians      MedianProvider
	Flows        contracts.InvestorFlowRepository
	Sectors      contracts.SectorRepository
	Indexes      contracts.IndexRepository
	Snapshots    SnapshotStore
	Coverage     CoverageChecker // optional
}

// Options controls batch execution
type Options struct {
	MaxWorkers      int     // 0 = 순차 실행과 동일 (1 goroutine)
	QueryRatePerSec float64 // 0 = 무제한
}

// Summary reports per-axis persisted counts for one run
type Summary struct {
	RunID      string
	AsOfDate   time.Time
	Tickers    int
	Quant      int
	Whale      int
	Flow       int
	Trend      int
	Risk       int
	Simulation int
	Composite  int
	SectorFlow int
	Rotations  int
	Failed     int
	Elapsed    time.Duration
}

// Runner orchestrates the daily analysis batch
// ⭐ SSOT: 하루 1회 전 종목 분석은 여기서만
//
// 2단계 실행: 1단계에서 종목별 입력 로드 + RS를 모으고 (백분위·순환·
// 섹터 수급은 전 종목 횡단면이 필요), 2단계에서 종목별 채점과 저장.
// 종목 단위 실패는 격리 — 로그 남기고 배치는 계속.
type Runner struct {
	deps   Deps
	opts   Options
	params *analysisconfig.Config
	logger *logger.Logger

	valuation  *valuation.Engine
	fscore     *fscore.Scorer
	whale      *whale.Engine
	trend      *trend.Engine
	sectorFlow *sectorflow.Aggregator
	risk       *riskmetrics.Analyzer
	simulation *simulation.Engine
	composite  *composite.Scorer

	limiter *rate.Limiter
}

// NewRunner wires the engines from validated analysis parameters.
// 설정 오류(r == g 등)는 여기서 배치 시작 전에 잡힌다.
func NewRunner(params *analysisconfig.Config, deps Deps, opts Options, log *logger.Logger) (*Runner, error) {
	valuationEngine, err := valuation.NewEngine(params.Valuation, log)
	if err != nil {
		return nil, fmt.Errorf("valuation engine: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.QueryRatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.QueryRatePerSec), int(opts.QueryRatePerSec)+1)
	}

	return &Runner{
		deps:       deps,
		opts:       opts,
		params:     params,
		logger:     log,
		valuation:  valuationEngine,
		fscore:     fscore.NewScorer(log),
		whale:      whale.NewEngine(params.Whale.LookbackDays, log),
		trend:      trend.NewEngine(params.Trend.RSWindowDays, params.Trend.RSChangeWindow, log),
		sectorFlow: sectorflow.NewAggregator(params.Whale.LookbackDays, log),
		risk:       riskmetrics.NewAnalyzer(log),
		simulation: simulation.NewEngine(params.Simulation, log),
		composite:  composite.NewScorer(params.Composite, log),
		limiter:    limiter,
	}, nil
}

// tickerData is the phase-1 result for one ticker
type tickerData struct {
	ticker      string
	bars        []*contracts.PriceBar
	flows       []*contracts.InvestorFlowRecord
	rs          *trend.RSResult
	avgTradeVal float64
	indexByDate map[time.Time]float64 // shared benchmark closes, keyed by UTC date
}

// Run executes the full batch for one analysis date
func (r *Runner) Run(ctx context.Context, asOfDate time.Time) (*Summary, error) {
	started := time.Now()
	runID := uuid.New().String()
	log := r.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"as_of":  asOfDate.Format("2006-01-02"),
	})

	log.Info("Starting analysis batch")

	if r.deps.Coverage != nil {
		if cov, err := r.deps.Coverage.Check(ctx, asOfDate); err != nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Warn("Coverage check failed")
		} else if !cov.Passed {
			log.WithFields(map[string]interface{}{
				"quality_score": cov.QualityScore,
				"coverage":      cov.Coverage,
			}).Warn("Data coverage below thresholds, continuing with partial data")
		}
	}

	tickers, err := r.deps.Sectors.GetActiveTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	if len(tickers) == 0 {
		log.Warn("Empty universe, nothing to analyze")
		return &Summary{RunID: runID, AsOfDate: asOfDate, Elapsed: time.Since(started)}, nil
	}

	sectorMap, err := r.deps.Sectors.GetSectorMap(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sector map: %w", err)
	}

	indexBars, err := r.deps.Indexes.GetByDateRange(ctx, r.params.Trend.BenchmarkIndex,
		asOfDate.AddDate(0, 0, -priceLookbackDays), asOfDate)
	if err != nil {
		return nil, fmt.Errorf("load benchmark index %s: %w", r.params.Trend.BenchmarkIndex, err)
	}

	// ---- Phase 1: per-ticker inputs + relative strength ----
	data := r.loadPhase(ctx, log, tickers, asOfDate, indexBars)

	// ---- Cross-sections ----
	allRS := make([]float64, 0, len(data))
	for _, d := range data {
		if d.rs != nil && d.rs.CurrentRS != nil {
			allRS = append(allRS, *d.rs.CurrentRS)
		}
	}

	rotations, quadrantBySector := r.classifyRotation(sectorMap, data)

	flowsByTicker := make(map[string][]*contracts.InvestorFlowRecord, len(data))
	tradingValues := make(map[string]float64, len(data))
	for ticker, d := range data {
		if len(d.flows) > 0 {
			flowsByTicker[ticker] = d.flows
		}
		if d.avgTradeVal > 0 {
			tradingValues[ticker] = d.avgTradeVal
		}
	}
	sectorFlows := r.sectorFlow.Compute(asOfDate, sectorMap, flowsByTicker, tradingValues)
	bonusByTicker := sectorFlowBonus(sectorFlows, sectorMap)

	medians := r.loadSectorMedians(ctx, log, sectorMap, asOfDate)

	// ---- Phase 2: per-ticker scoring + persistence ----
	summary := &Summary{RunID: runID, AsOfDate: asOfDate, Tickers: len(tickers)}
	r.scorePhase(ctx, log, asOfDate, data, sectorMap, medians, allRS, quadrantBySector, bonusByTicker, summary)

	if len(sectorFlows) > 0 {
		if err := r.deps.Snapshots.SaveSectorFlows(ctx, sectorFlows); err != nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Error("Persist sector flows failed")
		} else {
			summary.SectorFlow = len(sectorFlows)
		}
	}
	if len(rotations) > 0 {
		if err := r.deps.Snapshots.SaveSectorRotation(ctx, asOfDate, rotations); err != nil {
			log.WithFields(map[string]interface{}{"error": err.Error()}).Error("Persist sector rotation failed")
		} else {
			summary.Rotations = len(rotations)
		}
	}

	summary.Elapsed = time.Since(started)
	log.WithFields(map[string]interface{}{
		"tickers":     summary.Tickers,
		"quant":       summary.Quant,
		"whale":       summary.Whale,
		"flow":        summary.Flow,
		"trend":       summary.Trend,
		"risk":        summary.Risk,
		"simulation":  summary.Simulation,
		"composite":   summary.Composite,
		"sector_flow": summary.SectorFlow,
		"failed":      summary.Failed,
		"elapsed_ms":  summary.Elapsed.Milliseconds(),
	}).Info("Analysis batch complete")

	return summary, nil
}

func (r *Runner) maxWorkers() int {
	if r.opts.MaxWorkers <= 0 {
		return 1
	}
	return r.opts.MaxWorkers
}

// loadPhase loads bars/flows and computes RS per ticker in parallel
func (r *Runner) loadPhase(ctx context.Context, log *logger.Logger, tickers []string, asOfDate time.Time, indexBars []*contracts.IndexBar) map[string]*tickerData {
	var mu sync.Mutex
	data := make(map[string]*tickerData, len(tickers))

	indexByDate := make(map[time.Time]float64, len(indexBars))
	for _, b := range indexBars {
		key := time.Date(b.Date.Year(), b.Date.Month(), b.Date.Day(), 0, 0, 0, 0, time.UTC)
		indexByDate[key] = b.Close
	}

	p := pool.New().WithMaxGoroutines(r.maxWorkers())
	for _, ticker := range tickers {
		ticker := ticker
		p.Go(func() {
			d, err := r.loadTicker(ctx, ticker, asOfDate, indexBars)
			if d != nil {
				d.indexByDate = indexByDate
			}
			if err != nil {
				log.WithFields(map[string]interface{}{
					"ticker": ticker,
					"error":  err.Error(),
				}).Warn("Input load failed, ticker skipped")
				return
			}
			mu.Lock()
			data[ticker] = d
			mu.Unlock()
		})
	}
	p.Wait()

	log.WithFields(map[string]interface{}{"loaded": len(data)}).Debug("Phase 1 complete")
	return data
}

func (r *Runner) loadTicker(ctx context.Context, ticker string, asOfDate time.Time, indexBars []*contracts.IndexBar) (*tickerData, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	bars, err := r.deps.Prices.GetByTickerAndDateRange(ctx, ticker, asOfDate.AddDate(0, 0, -priceLookbackDays), asOfDate)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	flows, err := r.deps.Flows.GetByTickerAndDateRange(ctx, ticker, asOfDate.AddDate(0, 0, -flowLookbackDays), asOfDate)
	if err != nil {
		return nil, fmt.Errorf("load investor flows: %w", err)
	}

	d := &tickerData{
		ticker:      ticker,
		bars:        bars,
		flows:       flows,
		avgTradeVal: whale.AvgTradingValue(lastBars(bars, volumeWindowBars)),
	}

	// RS 실패(짧은 이력)는 종목 스킵 사유가 아님 — 모멘텀 축만 결측
	if rs, err := r.trend.ComputeRelativeStrength(ticker, bars, indexBars); err == nil {
		d.rs = rs
	}

	return d, nil
}

// loadSectorMedians precomputes the F-Score sector baselines
func (r *Runner) loadSectorMedians(ctx context.Context, log *logger.Logger, sectorMap map[string]string, asOfDate time.Time) map[string]fscore.SectorMedians {
	seen := make(map[string]bool)
	sectors := make([]string, 0)
	for _, sector := range sectorMap {
		if sector != "" && !seen[sector] {
			seen[sector] = true
			sectors = append(sectors, sector)
		}
	}
	sort.Strings(sectors)

	medians := make(map[string]fscore.SectorMedians, len(sectors))
	for _, sector := range sectors {
		if err := r.limiter.Wait(ctx); err != nil {
			break
		}
		per, pbr, err := r.deps.Medians.GetSectorMedians(ctx, sector, asOfDate)
		if err != nil {
			log.WithFields(map[string]interface{}{
				"sector": sector,
				"error":  err.Error(),
			}).Warn("Sector median load failed")
			continue
		}
		medians[sector] = fscore.SectorMedians{MedianPER: per, MedianPBR: pbr}
	}
	return medians
}

// classifyRotation aggregates per-sector RS and runs the quadrant model
func (r *Runner) classifyRotation(sectorMap map[string]string, data map[string]*tickerData) ([]*contracts.SectorRotation, map[string]string) {
	type agg struct {
		rsSum     float64
		changeSum float64
		count     int
	}
	bySector := make(map[string]*agg)

	for ticker, d := range data {
		sector := sectorMap[ticker]
		if sector == "" || d.rs == nil || d.rs.CurrentRS == nil {
			continue
		}
		a := bySector[sector]
		if a == nil {
			a = &agg{}
			bySector[sector] = a
		}
		a.rsSum += *d.rs.CurrentRS
		if d.rs.RSChangePct != nil {
			a.changeSum += *d.rs.RSChangePct
		}
		a.count++
	}

	inputs := make([]trend.SectorInput, 0, len(bySector))
	for sector, a := range bySector {
		if a.count < r.params.Trend.RotationMinStock {
			continue
		}
		inputs = append(inputs, trend.SectorInput{
			Sector:      sector,
			StockCount:  a.count,
			AvgRS20D:    a.rsSum / float64(a.count),
			AvgRSChange: a.changeSum / float64(a.count),
		})
	}

	classified := trend.ClassifySectorRotation(inputs)
	rotations := make([]*contracts.SectorRotation, 0, len(classified))
	quadrants := make(map[string]string, len(classified))
	for i := range classified {
		rot := classified[i]
		rotations = append(rotations, &rot)
		quadrants[rot.Sector] = rot.Quadrant
	}
	return rotations, quadrants
}

// sectorFlowBonus maps sector accumulation signals to per-ticker bonus
// points: strong +15, mild +5, 종목당 상한 15.
func sectorFlowBonus(flows []*contracts.SectorFlowSnapshot, sectorMap map[string]string) map[string]float64 {
	bonusBySector := make(map[string]float64)
	for _, f := range flows {
		switch f.Signal {
		case "strong_accumulation":
			bonusBySector[f.Sector] += 15.0
		case "mild_accumulation":
			bonusBySector[f.Sector] += 5.0
		}
	}

	bonus := make(map[string]float64)
	for ticker, sector := range sectorMap {
		b := bonusBySector[sector]
		if b > 15.0 {
			b = 15.0
		}
		if b > 0 {
			bonus[ticker] = b
		}
	}
	return bonus
}

func lastBars(bars []*contracts.PriceBar, n int) []*contracts.PriceBar {
	if len(bars) <= n {
		return bars
	}
	return bars[len(bars)-n:]
}
