package api

import (
	"net/http"

	"github.com/okian/simcat/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// VersionProvider reports the loaded catalog version, 0 before the first load.
type VersionProvider interface {
	CatalogVersion() uint64
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	versions VersionProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(versions VersionProvider) *HealthHandler {
	return &HealthHandler{versions: versions}
}

type healthResponse struct {
	Status         string `json:"status"`
	CatalogVersion uint64 `json:"catalog_version"`
}

// HandleHealth handles GET /healthz. It reports 503 until a catalog is loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	v := h.versions.CatalogVersion()
	if v == 0 {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "loading"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", CatalogVersion: v})
}

// HandleMetrics serves the Prometheus registry.
func HandleMetrics() http.HandlerFunc {
	h := promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
	return func(w http.ResponseWriter, r *http.Request) {
		metrics.UpdateSystemMetrics()
		h.ServeHTTP(w, r)
	}
}
