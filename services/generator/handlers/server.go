// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the generator service HTTP API: profile
// listing, dataset generation and retrieval, vitals time-series flush
// and query, and the websocket generation stream.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/store"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

// PointWriter writes vitals points to InfluxDB. api.WriteAPIBlocking
// satisfies it; tests inject function-field mocks.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// FluxQuerier runs Flux queries. api.QueryAPI satisfies it.
type FluxQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// Server holds the generator service dependencies.
type Server struct {
	Engine   *profile_engine.Engine
	Registry *store.Registry

	// WriteAPI and QueryAPI are nil when InfluxDB is not configured;
	// vitals endpoints then answer 503.
	WriteAPI     PointWriter
	QueryAPI     FluxQuerier
	InfluxBucket string

	Metrics *observability.GeneratorMetrics
	Logger  *slog.Logger
}

// HealthCheck reports service liveness.
func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "synthmed-generator"})
}
