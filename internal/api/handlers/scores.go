package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/whaleback/internal/analysis/composite"
	"github.com/wonny/whaleback/internal/s0_data"
	"github.com/wonny/whaleback/pkg/logger"
)

const defaultRankingLimit = 50

// ScoresHandler serves persisted analysis snapshots
// ⭐ SSOT: 점수 조회 API 핸들러는 이 구조체에서만
type ScoresHandler struct {
	repo   *s0_data.SnapshotRepository
	scorer *composite.Scorer
	logger *logger.Logger
}

// NewScoresHandler creates a new scores handler
func NewScoresHandler(repo *s0_data.SnapshotRepository, scorer *composite.Scorer, log *logger.Logger) *ScoresHandler {
	return &ScoresHandler{repo: repo, scorer: scorer, logger: log}
}

// GetRanking returns the composite ranking for the latest analysis date
// GET /api/ranking?date=2026-08-28&limit=50
func (h *ScoresHandler) GetRanking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	asOf := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	limit := defaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			respondError(w, http.StatusBadRequest, "Invalid limit, expected 1-500")
			return
		}
		limit = parsed
	}

	ranking, err := h.repo.GetCompositeRanking(ctx, asOf, limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load composite ranking")
		respondError(w, http.StatusInternalServerError, "Failed to load ranking")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(ranking),
		"ranking": ranking,
	})
}

// GetTickerScores returns every axis snapshot for one ticker
// GET /api/stocks/{ticker}/scores
func (h *ScoresHandler) GetTickerScores(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	if !tickerPattern.MatchString(ticker) {
		respondError(w, http.StatusBadRequest, "Invalid ticker, expected 6 digits")
		return
	}

	scores, err := h.repo.GetTickerScores(ctx, ticker)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  err.Error(),
		}).Error("Failed to load ticker scores")
		respondError(w, http.StatusInternalServerError, "Failed to load scores")
		return
	}

	if scores.Composite == nil && scores.Quant == nil && scores.Whale == nil {
		respondError(w, http.StatusNotFound, "No analysis snapshots for ticker")
		return
	}

	respondJSON(w, http.StatusOK, scores)
}

// GetTickerProfiles scores one ticker against every investor profile,
// rebuilt from the latest persisted axis snapshots.
// GET /api/stocks/{ticker}/profiles
func (h *ScoresHandler) GetTickerProfiles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticker := mux.Vars(r)["ticker"]

	if !tickerPattern.MatchString(ticker) {
		respondError(w, http.StatusBadRequest, "Invalid ticker, expected 6 digits")
		return
	}

	scores, err := h.repo.GetTickerScores(ctx, ticker)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"error":  err.Error(),
		}).Error("Failed to load ticker scores")
		respondError(w, http.StatusInternalServerError, "Failed to load scores")
		return
	}

	in := inputsFromSnapshots(scores)
	if in.Quant == nil && in.Whale == nil && in.Trend == nil && in.Simulation == nil {
		respondError(w, http.StatusNotFound, "No analysis snapshots for ticker")
		return
	}

	profiles := make(map[string]*composite.ProfileResult, len(composite.Profiles))
	for name := range composite.Profiles {
		profiles[name] = h.scorer.ComputeProfileScore(ticker, in, name)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   ticker,
		"profiles": profiles,
	})
}

// inputsFromSnapshots rebuilds axis inputs from persisted records.
// 섹터 수급 보너스는 스냅샷에 없으므로 프로필 점수에선 0으로 둔다.
func inputsFromSnapshots(scores *s0_data.TickerScores) composite.Inputs {
	var in composite.Inputs
	if q := scores.Quant; q != nil {
		in.Quant = &composite.QuantInput{
			FScore:           q.FScore,
			SafetyMarginPct:  q.SafetyMarginPct,
			DataCompleteness: q.DataCompleteness,
		}
	}
	if wh := scores.Whale; wh != nil {
		in.Whale = &composite.WhaleInput{
			WhaleScore:       wh.WhaleScore,
			DataCompleteness: wh.DataCompleteness,
		}
	}
	if tr := scores.Trend; tr != nil {
		in.Trend = &composite.TrendInput{
			RSPercentile:   tr.RSPercentile,
			SectorQuadrant: tr.SectorQuadrant,
		}
	}
	if sim := scores.Simulation; sim != nil {
		in.Simulation = &composite.SimulationInput{
			SimulationScore: sim.SimulationScore,
		}
	}
	return in
}

// GetSectorRotation returns the latest sector rotation quadrants
// GET /api/sectors/rotation
func (h *ScoresHandler) GetSectorRotation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rotations, err := h.repo.GetSectorRotation(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load sector rotation")
		respondError(w, http.StatusInternalServerError, "Failed to load sector rotation")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(rotations),
		"sectors": rotations,
	})
}
