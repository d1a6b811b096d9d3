// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/benchmark/handlers"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/middleware"
)

// Options configures the protected route group.
type Options struct {
	APIKey    string
	RateLimit *middleware.RateLimiter
}

// SetupRoutes registers all benchmark endpoints.
func SetupRoutes(router *gin.Engine, server *handlers.Server, opts Options) {
	router.GET("/health", server.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(opts.APIKey))
	if opts.RateLimit != nil {
		v1.Use(opts.RateLimit.Middleware())
	}
	{
		v1.GET("/benchmarks", server.ListAreas)
		v1.POST("/benchmark/compare", server.Compare)
	}
}
