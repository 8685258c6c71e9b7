package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ppiankov/ssl-checker/internal/history"
)

// HistoryHandler returns the most recent run summaries as JSON.
func HistoryHandler(hs *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summaries, err := hs.List(queryLimit(r, 50))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summaries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// TrendHandler returns historical outcomes for one target as JSON.
// Query parameters: host (required), port (default 443), limit.
func TrendHandler(hs *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		host := r.URL.Query().Get("host")
		if host == "" {
			http.Error(w, "host query parameter is required", http.StatusBadRequest)
			return
		}

		port := uint16(443)
		if q := r.URL.Query().Get("port"); q != "" {
			n, err := strconv.ParseUint(q, 10, 16)
			if err != nil {
				http.Error(w, "invalid port", http.StatusBadRequest)
				return
			}
			port = uint16(n)
		}

		points, err := hs.Trend(host, port, queryLimit(r, 50))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(points); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func queryLimit(r *http.Request, def int) int {
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			return n
		}
	}
	return def
}
