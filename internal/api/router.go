package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"route-optimizer-service/internal/api/handlers"
	"route-optimizer-service/internal/engine"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/ports"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(
	eng *engine.Optimizer,
	repo ports.PlanRepository,
	appM *metrics.Metrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	mux := http.NewServeMux()

	optimizeHandler := &handlers.OptimizeHandler{Engine: eng, Repo: repo, AppM: appM}
	planHandler := &handlers.PlanHandler{Repo: repo}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/optimize", optimizeHandler.Optimize)
	mux.HandleFunc("/plans", planHandler.List)
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return requestIDMiddleware(loggingMiddleware(mux))
}
