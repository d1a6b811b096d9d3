// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the benchmark service HTTP API. Callers
// post a demographics table and get back how it compares against
// pooled trial-registry figures for a therapeutic area.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/benchmark/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/benchmark/population"
)

// Server holds the benchmark service dependencies.
type Server struct {
	Engine  *population.Engine
	Metrics *observability.BenchmarkMetrics
	Logger  *slog.Logger
}

// CompareRequest names the benchmark area and carries the tables to
// check. AdverseEvents is optional.
type CompareRequest struct {
	Area          string         `json:"area" binding:"required"`
	Demographics  *dataset.Table `json:"demographics" binding:"required"`
	AdverseEvents *dataset.Table `json:"adverse_events"`
}

// HealthCheck reports service liveness.
func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "synthmed-benchmark"})
}

// ListAreas returns the available benchmark areas with their reference
// figures.
func (s *Server) ListAreas(c *gin.Context) {
	names := s.Engine.Names()
	areas := make([]*population.AreaBenchmark, 0, len(names))
	for _, name := range names {
		a, err := s.Engine.Area(name)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "benchmark catalog inconsistent", "details": err.Error()})
			return
		}
		areas = append(areas, a)
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas, "count": len(areas)})
}

// Compare checks a demographics table against an area benchmark.
func (s *Server) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	area, err := validation.SanitizeName(req.Area)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area name", "details": err.Error()})
		return
	}
	if _, err := s.Engine.Area(area); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown benchmark area", "details": err.Error()})
		return
	}

	start := time.Now()
	rep, err := s.Engine.Compare(area, req.Demographics, req.AdverseEvents)
	if err != nil {
		s.Metrics.RecordComparison(area, 0, "", false)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "comparison failed", "details": err.Error()})
		return
	}

	s.Metrics.RecordComparison(area, time.Since(start).Seconds(), rep.Verdict, true)
	s.Logger.Info("benchmark comparison computed",
		"area", rep.Area,
		"subjects", rep.Subjects,
		"verdict", rep.Verdict)
	c.JSON(http.StatusOK, rep)
}
