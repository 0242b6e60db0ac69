package commands

import (
	"fmt"
	"runtime"

	"github.com/wonny/whaleback/internal/analysisconfig"
	"github.com/wonny/whaleback/internal/pipeline"
	"github.com/wonny/whaleback/internal/s0_data"
	"github.com/wonny/whaleback/internal/s0_data/quality"
	"github.com/wonny/whaleback/pkg/config"
	"github.com/wonny/whaleback/pkg/database"
	"github.com/wonny/whaleback/pkg/logger"
)

// bootstrap holds the shared wiring every command needs
type bootstrap struct {
	cfg    *config.Config
	params *analysisconfig.Config
	log    *logger.Logger
	db     *database.DB
}

// newBootstrap loads config, analysis parameters, logger, and database
func newBootstrap() (*bootstrap, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	params, err := analysisconfig.LoadOrDefault(cfg.AnalysisConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load analysis parameters: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &bootstrap{cfg: cfg, params: params, log: log, db: db}, nil
}

func (b *bootstrap) close() {
	b.db.Close()
}

// newRunner assembles the analysis batch runner from the bootstrap
func (b *bootstrap) newRunner() (*pipeline.Runner, error) {
	snapshots := s0_data.NewSnapshotRepository(b.db.Pool)
	fundamentals := s0_data.NewFundamentalRepository(b.db.Pool)

	deps := pipeline.Deps{
		Prices:       s0_data.NewPriceRepository(b.db.Pool),
		Fundamentals: fundamentals,
		Medians:      fundamentals,
		Flows:        s0_data.NewInvestorFlowRepository(b.db.Pool),
		Sectors:      s0_data.NewSectorRepository(b.db.Pool),
		Indexes:      s0_data.NewIndexRepository(b.db.Pool),
		Snapshots:    snapshots,
		Coverage:     quality.NewCoverageGate(b.db.Pool, quality.DefaultConfig()),
	}

	maxWorkers := b.cfg.Pipeline.MaxWorkers
	if maxWorkers == 0 {
		maxWorkers = runtime.NumCPU()
	}
	opts := pipeline.Options{
		MaxWorkers:      maxWorkers,
		QueryRatePerSec: b.cfg.Pipeline.QueryRatePerSec,
	}

	return pipeline.NewRunner(b.params, deps, opts, b.log)
}
