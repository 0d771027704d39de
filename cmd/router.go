package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/angeloszaimis/haproxy-status/internal/handler"
	"github.com/angeloszaimis/haproxy-status/internal/metrics"
)

func setupRouter(statusHandler *handler.StatusHandler, metricsCollector *metrics.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/status", statusHandler.Status)
	r.Get("/ping", statusHandler.Ping)
	r.Post("/ping", statusHandler.Ping)
	r.Get("/metrics", metricsCollector.Handler())

	return r
}
