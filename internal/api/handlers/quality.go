package handlers

import (
	"net/http"

	"github.com/wonny/whaleback/internal/s0_data/quality"
	"github.com/wonny/whaleback/pkg/logger"
)

// QualityHandler serves data coverage snapshots
type QualityHandler struct {
	repo   *quality.Repository
	logger *logger.Logger
}

// NewQualityHandler creates a new quality handler
func NewQualityHandler(repo *quality.Repository, log *logger.Logger) *QualityHandler {
	return &QualityHandler{repo: repo, logger: log}
}

// GetQuality returns the latest data coverage snapshot
// GET /api/data/quality
func (h *QualityHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.repo.GetLatest(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to load data coverage")
		respondError(w, http.StatusInternalServerError, "Failed to load data coverage")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "No coverage snapshot yet")
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}
