// Copyright (C) 2026 Treelight Labs
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reasoner

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/treelight/reasoner/services/reasoner/telemetry"
)

// RegisterRoutes registers all reasoner routes with the router.
//
// Description:
//
//	Registers the /v1/reason/* endpoints plus the health and metrics
//	endpoints. Session selection happens per request via the
//	X-Session-ID header or the session query parameter.
//
// Endpoints:
//
//	POST /v1/reason/thought - Process one reasoning step
//	GET  /v1/reason/stats - Session aggregates and per-strategy metrics
//	GET  /v1/reason/path - Best path, or path to ?nodeId=
//	POST /v1/reason/strategy - Set the session's current strategy
//	POST /v1/reason/clear - Reset the session
//	GET  /v1/reason/strategies - List strategy identifiers
//	GET  /v1/reason/tree - ASCII rendering of the thought tree
//	GET  /healthz - Health check
//	GET  /metrics - Prometheus metrics (when the exporter is enabled)
func RegisterRoutes(router *gin.Engine, handlers *Handlers) {
	v1 := router.Group("/v1/reason")
	{
		v1.POST("/thought", handlers.HandleThought)
		v1.GET("/stats", handlers.HandleStats)
		v1.GET("/path", handlers.HandlePath)
		v1.POST("/strategy", handlers.HandleSetStrategy)
		v1.POST("/clear", handlers.HandleClear)
		v1.GET("/strategies", handlers.HandleStrategies)
		v1.GET("/tree", handlers.HandleTree)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}
}
