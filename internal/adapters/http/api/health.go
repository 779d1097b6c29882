package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/prospect/pkg/metrics"
)

type healthResponse struct {
	Status string `json:"status"`
}

// handleHealth handles GET /healthz. It reports unavailable until the
// service is started.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if started, _ := s.deps.GetStats()["started"].(bool); !started {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting"})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// metricsHandler serves the custom Prometheus registry.
func metricsHandler() http.Handler {
	return promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})
}
