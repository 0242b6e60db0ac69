package pipeline

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/contracts"
	"github.com/wonny/whaleback/pkg/logger"
)

// ---- in-memory fakes ----

type fakePriceRepo struct {
	bars   map[string][]*contracts.PriceBar
	failOn string
}

func (f *fakePriceRepo) GetByTickerAndDateRange(_ context.Context, ticker string, from, to time.Time) ([]*contracts.PriceBar, error) {
	if ticker == f.failOn {
		return nil, errors.New("connection reset")
	}
	var out []*contracts.PriceBar
	for _, b := range f.bars[ticker] {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakePriceRepo) GetLatestByTicker(_ context.Context, ticker string, asOf time.Time) (*contracts.PriceBar, error) {
	bars := f.bars[ticker]
	for i := len(bars) - 1; i >= 0; i-- {
		if !bars[i].Date.After(asOf) {
			return bars[i], nil
		}
	}
	return nil, errors.New("no rows")
}

type fakeFundamentalRepo struct {
	latest   map[string]*contracts.FundamentalSnapshot
	previous map[string]*contracts.FundamentalSnapshot
}

func (f *fakeFundamentalRepo) GetLatestByTicker(_ context.Context, ticker string, _ time.Time) (*contracts.FundamentalSnapshot, error) {
	if snap, ok := f.latest[ticker]; ok {
		return snap, nil
	}
	return nil, errors.New("no rows")
}

func (f *fakeFundamentalRepo) GetNearestByTicker(_ context.Context, ticker string, _ time.Time) (*contracts.FundamentalSnapshot, error) {
	if snap, ok := f.previous[ticker]; ok {
		return snap, nil
	}
	return nil, errors.New("no rows")
}

type fakeMedianProvider struct{}

func (f *fakeMedianProvider) GetSectorMedians(_ context.Context, _ string, _ time.Time) (*float64, *float64, error) {
	per, pbr := 12.0, 1.1
	return &per, &pbr, nil
}

type fakeFlowRepo struct {
	flows map[string][]*contracts.InvestorFlowRecord
}

func (f *fakeFlowRepo) GetByTickerAndDateRange(_ context.Context, ticker string, from, to time.Time) ([]*contracts.InvestorFlowRecord, error) {
	var out []*contracts.InvestorFlowRecord
	for _, r := range f.flows[ticker] {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSectorRepo struct {
	tickers   []string
	sectorMap map[string]string
}

func (f *fakeSectorRepo) GetSectorMap(_ context.Context) (map[string]string, error) {
	return f.sectorMap, nil
}

func (f *fakeSectorRepo) GetActiveTickers(_ context.Context) ([]string, error) {
	return f.tickers, nil
}

type fakeIndexRepo struct {
	bars []*contracts.IndexBar
}

func (f *fakeIndexRepo) GetByDateRange(_ context.Context, _ string, from, to time.Time) ([]*contracts.IndexBar, error) {
	var out []*contracts.IndexBar
	for _, b := range f.bars {
		if !b.Date.Before(from) && !b.Date.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeSnapshotStore struct {
	mu          sync.Mutex
	quant       map[string]*contracts.QuantSnapshot
	whale       map[string]*contracts.WhaleSnapshot
	flow        map[string]*contracts.FlowSnapshot
	trend       map[string]*contracts.TrendSnapshot
	risk        map[string]*contracts.RiskSnapshot
	simulation  map[string]*contracts.SimulationSnapshot
	composite   map[string]*contracts.CompositeSnapshot
	rotations   []*contracts.SectorRotation
	sectorFlows []*contracts.SectorFlowSnapshot
}

func newFakeSnapshotStore() *fakeSnapshotStore {
	return &fakeSnapshotStore{
		quant:      make(map[string]*contracts.QuantSnapshot),
		whale:      make(map[string]*contracts.WhaleSnapshot),
		flow:       make(map[string]*contracts.FlowSnapshot),
		trend:      make(map[string]*contracts.TrendSnapshot),
		risk:       make(map[string]*contracts.RiskSnapshot),
		simulation: make(map[string]*contracts.SimulationSnapshot),
		composite:  make(map[string]*contracts.CompositeSnapshot),
	}
}

func (f *fakeSnapshotStore) SaveQuant(_ context.Context, s *contracts.QuantSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quant[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveWhale(_ context.Context, s *contracts.WhaleSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.whale[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveFlow(_ context.Context, s *contracts.FlowSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flow[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveTrend(_ context.Context, s *contracts.TrendSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trend[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveRisk(_ context.Context, s *contracts.RiskSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.risk[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveSimulation(_ context.Context, s *contracts.SimulationSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.simulation[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveComposite(_ context.Context, s *contracts.CompositeSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.composite[s.Ticker] = s
	return nil
}

func (f *fakeSnapshotStore) SaveSectorRotation(_ context.Context, _ time.Time, rotations []*contracts.SectorRotation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rotations = rotations
	return nil
}

func (f *fakeSnapshotStore) SaveSectorFlows(_ context.Context, flows []*contracts.SectorFlowSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sectorFlows = flows
	return nil
}

// ---- fixtures ----

var testAsOf = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

// tradingDates returns n consecutive weekdays ending at testAsOf
func tradingDates(n int) []time.Time {
	dates := make([]time.Time, 0, n)
	d := testAsOf
	for len(dates) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			dates = append(dates, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	// 오름차순으로 뒤집기
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
	return dates
}

func syntheticBars(ticker string, dates []time.Time, start float64, dailyMu float64, seed int64) []*contracts.PriceBar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]*contracts.PriceBar, 0, len(dates))
	price := start
	for _, date := range dates {
		price *= math.Exp(dailyMu + 0.012*rng.NormFloat64())
		close := int64(math.Round(price))
		bars = append(bars, &contracts.PriceBar{
			Ticker:       ticker,
			Date:         date,
			Open:         close,
			High:         close + 100,
			Low:          close - 100,
			Close:        close,
			Volume:       1_000_000 + rng.Int63n(500_000),
			TradingValue: close * 1_000_000,
		})
	}
	return bars
}

func syntheticIndexBars(dates []time.Time) []*contracts.IndexBar {
	rng := rand.New(rand.NewSource(99))
	bars := make([]*contracts.IndexBar, 0, len(dates))
	level := 2500.0
	for _, date := range dates {
		level *= math.Exp(0.0001 + 0.008*rng.NormFloat64())
		bars = append(bars, &contracts.IndexBar{
			IndexCode: "KOSPI",
			Date:      date,
			Close:     level,
		})
	}
	return bars
}

func accumulationFlows(ticker string, dates []time.Time) []*contracts.InvestorFlowRecord {
	flows := make([]*contracts.InvestorFlowRecord, 0, len(dates))
	for _, date := range dates {
		flows = append(flows, &contracts.InvestorFlowRecord{
			Ticker:           ticker,
			Date:             date,
			InstitutionNet:   800_000_000,
			ForeignNet:       500_000_000,
			IndividualNet:    -1_200_000_000,
			PensionNet:       100_000_000,
			PrivateEquityNet: 0,
			OtherCorpNet:     -200_000_000,
		})
	}
	return flows
}

func fptr(v float64) *float64 { return &v }

type testEnv struct {
	runner *Runner
	store  *fakeSnapshotStore
	prices *fakePriceRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dates := tradingDates(300)
	flowDates := dates[len(dates)-40:]

	prices := &fakePriceRepo{bars: map[string][]*contracts.PriceBar{
		"005930": syntheticBars("005930", dates, 70000, 0.0008, 1),
		"000660": syntheticBars("000660", dates, 180000, -0.0002, 2),
	}}
	funds := &fakeFundamentalRepo{
		latest: map[string]*contracts.FundamentalSnapshot{
			"005930": {
				Ticker: "005930", Date: testAsOf,
				BPS: fptr(52000), PER: fptr(11.5), PBR: fptr(1.3),
				EPS: fptr(6100), DIV: fptr(2.1), DPS: fptr(1444), ROE: fptr(11.2),
			},
			"000660": {
				Ticker: "000660", Date: testAsOf,
				BPS: fptr(95000), PER: fptr(18.0), PBR: fptr(1.9),
				EPS: fptr(10000), DIV: fptr(0.8), DPS: fptr(1500), ROE: fptr(9.5),
			},
		},
		previous: map[string]*contracts.FundamentalSnapshot{
			"005930": {
				Ticker: "005930", Date: testAsOf.AddDate(-1, 0, 0),
				BPS: fptr(48000), PER: fptr(13.0), PBR: fptr(1.5),
				EPS: fptr(5200), DIV: fptr(1.8), DPS: fptr(1200), ROE: fptr(10.1),
			},
		},
	}
	flows := &fakeFlowRepo{flows: map[string][]*contracts.InvestorFlowRecord{
		"005930": accumulationFlows("005930", flowDates),
		"000660": accumulationFlows("000660", flowDates),
	}}
	sectors := &fakeSectorRepo{
		tickers:   []string{"005930", "000660"},
		sectorMap: map[string]string{"005930": "반도체", "000660": "반도체"},
	}
	indexes := &fakeIndexRepo{bars: syntheticIndexBars(dates)}
	store := newFakeSnapshotStore()

	params := analysisconfig.Default()
	params.Simulation.NumPaths = 500 // 테스트 속도

	runner, err := NewRunner(params, Deps{
		Prices:       prices,
		Fundamentals: funds,
		Medians:      &fakeMedianProvider{},
		Flows:        flows,
		Sectors:      sectors,
		Indexes:      indexes,
		Snapshots:    store,
	}, Options{MaxWorkers: 4}, logger.NewNop())
	require.NoError(t, err)

	return &testEnv{runner: runner, store: store, prices: prices}
}

// ---- tests ----

func TestRunEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	summary, err := env.runner.Run(context.Background(), testAsOf)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Tickers)
	assert.Equal(t, 2, summary.Quant)
	assert.Equal(t, 2, summary.Whale)
	assert.Equal(t, 2, summary.Flow)
	assert.Equal(t, 2, summary.Trend)
	assert.Equal(t, 2, summary.Risk)
	assert.Equal(t, 2, summary.Simulation)
	assert.Equal(t, 2, summary.Composite)
	assert.Equal(t, 0, summary.Failed)
	assert.NotEmpty(t, summary.RunID)

	for _, ticker := range []string{"005930", "000660"} {
		q := env.store.quant[ticker]
		require.NotNil(t, q, "quant snapshot for %s", ticker)
		assert.Equal(t, testAsOf, q.AsOfDate)
		assert.NotNil(t, q.RIMValue)
		assert.GreaterOrEqual(t, q.FScore, 0)
		assert.LessOrEqual(t, q.FScore, 9)
		assert.NotEmpty(t, q.Grade)

		// 기관·외국인 연속 순매수 → 매집 신호
		w := env.store.whale[ticker]
		require.NotNil(t, w)
		assert.Contains(t, []string{"strong_accumulation", "mild_accumulation"}, w.Signal)
		assert.Greater(t, w.WhaleScore, 50.0)

		tr := env.store.trend[ticker]
		require.NotNil(t, tr)
		require.NotNil(t, tr.RSPercentile)
		assert.Equal(t, "반도체", tr.Sector)
		assert.NotEmpty(t, tr.SectorQuadrant)

		rk := env.store.risk[ticker]
		require.NotNil(t, rk)
		assert.NotNil(t, rk.Volatility60D)
		assert.NotNil(t, rk.Beta60D)

		sim := env.store.simulation[ticker]
		require.NotNil(t, sim)
		assert.Equal(t, 500, sim.NumSimulations)

		c := env.store.composite[ticker]
		require.NotNil(t, c)
		require.NotNil(t, c.CompositeScore)
		assert.Equal(t, 4, c.AxesAvailable)
		assert.InDelta(t, 1.0, c.Confidence, 1e-9)
	}

	// 두 종목이 같은 섹터이므로 회전 사분면은 1건
	require.Len(t, env.store.rotations, 1)
	assert.Equal(t, "반도체", env.store.rotations[0].Sector)
	assert.Equal(t, 2, env.store.rotations[0].StockCount)

	assert.NotEmpty(t, env.store.sectorFlows)
	assert.Equal(t, summary.SectorFlow, len(env.store.sectorFlows))
}

func TestRunRSPercentilesDisjoint(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.runner.Run(context.Background(), testAsOf)
	require.NoError(t, err)

	strong := env.store.trend["005930"]
	weak := env.store.trend["000660"]
	require.NotNil(t, strong)
	require.NotNil(t, weak)
	require.NotNil(t, strong.RSPercentile)
	require.NotNil(t, weak.RSPercentile)

	// 상승 추세 종목이 횡보 종목보다 높은 백분위
	assert.Greater(t, *strong.RSPercentile, *weak.RSPercentile)
}

func TestRunEmptyUniverse(t *testing.T) {
	env := newTestEnv(t)
	env.runner.deps.Sectors = &fakeSectorRepo{}

	summary, err := env.runner.Run(context.Background(), testAsOf)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Tickers)
	assert.Equal(t, 0, summary.Composite)
	assert.Empty(t, env.store.composite)
}

func TestRunTickerFailureIsolated(t *testing.T) {
	env := newTestEnv(t)
	env.prices.failOn = "000660"

	summary, err := env.runner.Run(context.Background(), testAsOf)
	require.NoError(t, err)

	// 실패한 종목은 스킵되고 나머지는 끝까지 간다
	assert.Equal(t, 2, summary.Tickers)
	assert.Equal(t, 1, summary.Composite)
	assert.NotNil(t, env.store.composite["005930"])
	assert.Nil(t, env.store.composite["000660"])
}

func TestRunMissingFundamentalsDropsQuantOnly(t *testing.T) {
	env := newTestEnv(t)
	env.runner.deps.Fundamentals = &fakeFundamentalRepo{}

	summary, err := env.runner.Run(context.Background(), testAsOf)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Quant)
	assert.Equal(t, 2, summary.Whale)
	assert.Equal(t, 2, summary.Trend)
	assert.Equal(t, 2, summary.Composite)

	c := env.store.composite["005930"]
	require.NotNil(t, c)
	assert.Equal(t, 3, c.AxesAvailable)
	assert.Nil(t, c.ValueScore)
}

func TestSectorFlowBonusCapped(t *testing.T) {
	sectorMap := map[string]string{"A": "금융", "B": "금융", "C": "화학"}
	flows := []*contracts.SectorFlowSnapshot{
		{Sector: "금융", InvestorType: "institutional", Signal: "strong_accumulation"},
		{Sector: "금융", InvestorType: "foreign", Signal: "mild_accumulation"},
		{Sector: "화학", InvestorType: "institutional", Signal: "mild_accumulation"},
		{Sector: "화학", InvestorType: "foreign", Signal: "distribution"},
	}

	bonus := sectorFlowBonus(flows, sectorMap)

	// strong(15) + mild(5) = 20 → 상한 15
	assert.InDelta(t, 15.0, bonus["A"], 1e-9)
	assert.InDelta(t, 15.0, bonus["B"], 1e-9)
	assert.InDelta(t, 5.0, bonus["C"], 1e-9)
}

func TestSectorFlowBonusEmpty(t *testing.T) {
	bonus := sectorFlowBonus(nil, map[string]string{"A": "금융"})
	assert.Empty(t, bonus)
}

func TestLastBars(t *testing.T) {
	bars := syntheticBars("T", tradingDates(50), 10000, 0, 3)
	assert.Len(t, lastBars(bars, 40), 40)
	assert.Len(t, lastBars(bars, 100), 50)
	assert.Equal(t, bars[10], lastBars(bars, 40)[0])
}
