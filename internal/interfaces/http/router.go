// Package http assembles the gin route tree and the HTTP server that
// serves it.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/logging"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/infrastructure/monitoring/metrics"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http/handlers"
	"github.com/aflahkuncoro/deforestation-monitoring/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and infrastructure the route tree
// needs.  Nil handlers leave their routes unregistered, which keeps partial
// deployments (e.g. no search cluster) possible.
type RouterConfig struct {
	RunHandler      *handlers.RunHandler
	EstimateHandler *handlers.EstimateHandler
	SearchHandler   *handlers.SearchHandler
	AOIHandler      *handlers.AOIHandler
	HealthHandler   *handlers.HealthHandler

	Mode   string
	Logger logging.Logger
}

// NewRouter builds the full route tree: probes and metrics at the root,
// resource routes under /api/v1.
func NewRouter(cfg RouterConfig) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	r.Use(middleware.Metrics())

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	{
		if cfg.RunHandler != nil {
			api.POST("/runs", cfg.RunHandler.Submit)
			api.GET("/runs", cfg.RunHandler.List)
			if cfg.SearchHandler != nil {
				api.GET("/runs/search", cfg.SearchHandler.Search)
			}
			api.GET("/runs/:id", cfg.RunHandler.Get)
			api.GET("/runs/:id/artifacts", cfg.RunHandler.Artifacts)
		}
		if cfg.EstimateHandler != nil {
			api.POST("/estimates", cfg.EstimateHandler.Compute)
		}
		if cfg.AOIHandler != nil {
			api.GET("/aoi", cfg.AOIHandler.Get)
		}
	}

	return r
}
