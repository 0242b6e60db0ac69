package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
)

// tickerPattern: 한국거래소 종목코드는 6자리 숫자
var tickerPattern = regexp.MustCompile(`^[0-9]{6}$`)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
