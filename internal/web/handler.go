// Package web provides HTTP handlers for the ssl_checker serve-mode API.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/ssl-checker/internal/result"
)

// ReportFunc returns the current report.
type ReportFunc func() result.Report

// ReportHandler returns the latest report as JSON.
func ReportHandler(getReport ReportFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rep := getReport()
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rep); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// HealthzHandler returns 200 while the latest report is fresh and 503 once it
// is older than maxAge (the check loop has stalled).
func HealthzHandler(getReport ReportFunc, maxAge time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rep := getReport()
		w.Header().Set("Content-Type", "text/plain")

		if rep.At.IsZero() {
			http.Error(w, "no check run yet", http.StatusServiceUnavailable)
			return
		}
		if age := time.Since(rep.At); age > maxAge {
			http.Error(w, fmt.Sprintf("last run is stale: %s old", age.Round(time.Second)), http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok")) //nolint:errcheck // best-effort response
	}
}
