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

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/handlers"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/middleware"
)

// Options configures the protected route group.
type Options struct {
	APIKey    string
	RateLimit *middleware.RateLimiter
}

// SetupRoutes registers all generator endpoints. Health and metrics
// stay outside the authenticated group.
func SetupRoutes(router *gin.Engine, server *handlers.Server, opts Options) {
	router.GET("/health", server.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	v1.Use(middleware.APIKeyAuth(opts.APIKey))
	if opts.RateLimit != nil {
		v1.Use(opts.RateLimit.Middleware())
	}
	{
		v1.GET("/profiles", server.ListProfiles)
		v1.GET("/profiles/:name", server.GetProfile)

		v1.POST("/datasets", server.CreateDataset)
		v1.GET("/datasets", server.ListDatasets)
		v1.GET("/datasets/:id", server.GetDataset)
		v1.GET("/datasets/:id/:domain", server.GetDomain)
		v1.DELETE("/datasets/:id", server.DeleteDataset)

		v1.POST("/vitals/flush", server.FlushVitals)
		v1.POST("/vitals/query", server.QueryVitals)

		v1.GET("/generate/ws", server.GenerateWS)
	}
}
