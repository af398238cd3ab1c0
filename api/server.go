// Package api exposes the dashboard over HTTP: derived views, stats, the
// websocket live view, health and Prometheus metrics.
package api

import (
	"encoding/json"
	"net/http"

	"token_radar/dashboard"
	"token_radar/metrics"
	"token_radar/middleware"
	"token_radar/models"
	"token_radar/monitoring"
	"token_radar/utils"
	"token_radar/view"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type errorResponse struct {
	Error string `json:"error"`
}

type optionsResponse struct {
	Filters  []models.Filter  `json:"filters"`
	SortKeys []models.SortKey `json:"sortKeys"`
	Defaults view.Params      `json:"defaults"`
}

// NewHandler builds the full route table. live may be nil to disable /ws.
func NewHandler(d *dashboard.Dashboard, live http.Handler, health *monitoring.Health, withMetrics bool) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/tokens", func(w http.ResponseWriter, r *http.Request) {
		tokensHandler(w, r, d)
	})
	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, d.Stats())
	})
	mux.HandleFunc("/api/options", func(w http.ResponseWriter, r *http.Request) {
		if !allowGet(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, optionsResponse{
			Filters:  models.Filters,
			SortKeys: models.SortKeys,
			Defaults: view.DefaultParams(),
		})
	})
	mux.HandleFunc("/health", health.HealthCheckHandler)

	if withMetrics {
		mux.Handle("/metrics", promhttp.Handler())
	}
	if live != nil {
		mux.Handle("/ws", live)
	}

	return utils.RequestLogger(middleware.RecoverHTTP(withCORS(mux)))
}

// GET /api/tokens?filter=trending&q=syn&sort=change24h
func tokensHandler(w http.ResponseWriter, r *http.Request, d *dashboard.Dashboard) {
	if !allowGet(w, r) {
		return
	}

	q := r.URL.Query()
	params, err := view.ParseParams(q.Get("filter"), q.Get("q"), q.Get("sort"))
	if err != nil {
		metrics.IncrementRequestErrors("invalid_params")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, d.View(params))
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	metrics.IncrementRequestErrors("method_not_allowed")
	w.Header().Set("Allow", "GET, HEAD")
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	return false
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Error(err, "Failed to write response", "status", status)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
