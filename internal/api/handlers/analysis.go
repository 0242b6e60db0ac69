package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/wonny/whaleback/internal/pipeline"
	"github.com/wonny/whaleback/pkg/logger"
)

// AnalysisHandler triggers and reports the analysis batch
// ⭐ SSOT: 배치 수동 트리거는 여기서만. 동시 2회 실행 금지.
type AnalysisHandler struct {
	runner *pipeline.Runner
	logger *logger.Logger

	mu          sync.Mutex
	running     bool
	lastSummary *pipeline.Summary
	lastError   string
	lastStarted time.Time
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(runner *pipeline.Runner, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{runner: runner, logger: log}
}

// RunAnalysis starts the batch in the background
// POST /api/analysis/run?date=2026-08-28
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		respondError(w, http.StatusConflict, "Analysis batch already running")
		return
	}
	h.running = true
	h.lastStarted = time.Now()
	h.mu.Unlock()

	go func() {
		// 요청 컨텍스트는 응답과 함께 끝나므로 배치는 독립 컨텍스트로
		summary, err := h.runner.Run(context.Background(), asOf)

		h.mu.Lock()
		defer h.mu.Unlock()
		h.running = false
		if err != nil {
			h.lastError = err.Error()
			h.lastSummary = nil
			h.logger.WithError(err).Error("Analysis batch failed")
			return
		}
		h.lastError = ""
		h.lastSummary = summary
	}()

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"as_of":  asOf.Format("2006-01-02"),
	})
}

// GetStatus reports the current batch state
// GET /api/analysis/status
func (h *AnalysisHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp := map[string]interface{}{
		"running": h.running,
	}
	if !h.lastStarted.IsZero() {
		resp["last_started"] = h.lastStarted
	}
	if h.lastSummary != nil {
		resp["last_summary"] = h.lastSummary
	}
	if h.lastError != "" {
		resp["last_error"] = h.lastError
	}

	respondJSON(w, http.StatusOK, resp)
}
