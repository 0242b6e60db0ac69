package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/whaleback/internal/analysis/composite"
	"github.com/wonny/whaleback/internal/api"
	"github.com/wonny/whaleback/internal/api/handlers"
	"github.com/wonny/whaleback/internal/s0_data"
	"github.com/wonny/whaleback/internal/s0_data/quality"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

이 명령어는:
- HTTP API 서버 시작
- 분석 스냅샷 조회 엔드포인트 제공
- 배치 수동 트리거 제공

Endpoints:
  GET  /health                      - Health check
  GET  /api/ranking                 - 종합 점수 랭킹
  GET  /api/stocks/{ticker}/scores  - 종목별 축 점수
  GET  /api/stocks/{ticker}/profiles - 투자 성향별 점수
  GET  /api/sectors/rotation        - 섹터 순환 사분면
  GET  /api/data/quality            - 커버리지 스냅샷
  POST /api/analysis/run            - 분석 배치 트리거
  GET  /api/analysis/status         - 배치 상태

Example:
  go run ./cmd/whaleback api
  go run ./cmd/whaleback api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (기본: config)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Whaleback API Server ===")

	b, err := newBootstrap()
	if err != nil {
		return err
	}
	defer b.close()

	if apiPort != "" {
		b.cfg.Port = apiPort
	}

	runner, err := b.newRunner()
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}

	snapshots := s0_data.NewSnapshotRepository(b.db.Pool)
	qualityRepo := quality.NewRepository(b.db.Pool)

	scorer := composite.NewScorer(b.params.Composite, b.log)
	scoresHandler := handlers.NewScoresHandler(snapshots, scorer, b.log)
	qualityHandler := handlers.NewQualityHandler(qualityRepo, b.log)
	analysisHandler := handlers.NewAnalysisHandler(runner, b.log)

	router := api.NewRouter(scoresHandler, qualityHandler, analysisHandler, b.log)
	server := api.New(b.cfg, b.log, router)

	// Start server with graceful shutdown
	go func() {
		if err := server.Start(); err != nil {
			b.log.WithError(err).Fatal("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	fmt.Println("Server stopped")
	return nil
}
