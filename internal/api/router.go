package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/whaleback/internal/api/handlers"
	"github.com/wonny/whaleback/pkg/logger"
)

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	scoresHandler *handlers.ScoresHandler,
	qualityHandler *handlers.QualityHandler,
	analysisHandler *handlers.AnalysisHandler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler).Methods("GET")

	// API v1
	api := r.PathPrefix("/api").Subrouter()

	// Score endpoints (read-only, 배치 결과 조회)
	api.HandleFunc("/ranking", scoresHandler.GetRanking).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/scores", scoresHandler.GetTickerScores).Methods("GET")
	api.HandleFunc("/stocks/{ticker}/profiles", scoresHandler.GetTickerProfiles).Methods("GET")
	api.HandleFunc("/sectors/rotation", scoresHandler.GetSectorRotation).Methods("GET")

	// Data quality
	api.HandleFunc("/data/quality", qualityHandler.GetQuality).Methods("GET")

	// Analysis batch (수동 트리거)
	api.HandleFunc("/analysis/run", analysisHandler.RunAnalysis).Methods("POST")
	api.HandleFunc("/analysis/status", analysisHandler.GetStatus).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"service": "whaleback-api",
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
