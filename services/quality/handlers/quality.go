// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the quality service HTTP API. Callers
// post a real and a synthetic table and receive distribution, fidelity
// and privacy measurements back.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/report"
)

// Server holds the quality service dependencies.
type Server struct {
	Metrics *observability.QualityMetrics
	Logger  *slog.Logger
}

// ScoreRequest carries both tables and the comparison options.
type ScoreRequest struct {
	Real             *dataset.Table `json:"real" binding:"required"`
	Synthetic        *dataset.Table `json:"synthetic" binding:"required"`
	Columns          []string       `json:"columns"`
	QuasiIdentifiers []string       `json:"quasi_identifiers"`
}

// ColumnRequest compares a single column of both tables.
type ColumnRequest struct {
	Real      *dataset.Table `json:"real" binding:"required"`
	Synthetic *dataset.Table `json:"synthetic" binding:"required"`
	Column    string         `json:"column" binding:"required"`
}

// HealthCheck reports service liveness.
func (s *Server) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "synthmed-quality"})
}

// Score computes the full quality report.
func (s *Server) Score(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := validation.ValidateColumns(append(req.Columns, req.QuasiIdentifiers...)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column names", "details": err.Error()})
		return
	}

	start := time.Now()
	rep, err := report.Compare(req.Real, req.Synthetic, report.Options{
		Columns:          req.Columns,
		QuasiIdentifiers: req.QuasiIdentifiers,
	})
	if err != nil {
		s.Metrics.RecordReport("score", 0, false)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "comparison failed", "details": err.Error()})
		return
	}

	s.Metrics.RecordReport("score", time.Since(start).Seconds(), true)
	s.Metrics.QualityScore.Set(rep.Score)
	s.Logger.Info("quality report computed",
		"columns", len(rep.Columns),
		"score", rep.Score,
		"real_rows", rep.RealRows,
		"synthetic_rows", rep.SyntheticRows)
	c.JSON(http.StatusOK, rep)
}

// columnValues extracts the named column from both tables.
func columnValues(c *gin.Context, req *ColumnRequest) (real, synth []float64, ok bool) {
	if err := validation.ValidateColumn(req.Column); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid column", "details": err.Error()})
		return nil, nil, false
	}
	rv, err := req.Real.Float64Column(req.Column)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "real table", "details": err.Error()})
		return nil, nil, false
	}
	sv, err := req.Synthetic.Float64Column(req.Column)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "synthetic table", "details": err.Error()})
		return nil, nil, false
	}
	return rv, sv, true
}

// KolmogorovSmirnov compares one column of both tables.
func (s *Server) KolmogorovSmirnov(c *gin.Context) {
	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	rv, sv, ok := columnValues(c, &req)
	if !ok {
		return
	}

	start := time.Now()
	score, err := report.ColumnCompare(req.Column, rv, sv)
	if err != nil {
		s.Metrics.RecordReport("ks", 0, false)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "comparison failed", "details": err.Error()})
		return
	}
	s.Metrics.RecordReport("ks", time.Since(start).Seconds(), true)
	c.JSON(http.StatusOK, gin.H{
		"column":    score.Column,
		"statistic": score.KSStatistic,
		"p_value":   score.KSPValue,
	})
}

// Wasserstein compares one column of both tables.
func (s *Server) Wasserstein(c *gin.Context) {
	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	rv, sv, ok := columnValues(c, &req)
	if !ok {
		return
	}

	start := time.Now()
	score, err := report.ColumnCompare(req.Column, rv, sv)
	if err != nil {
		s.Metrics.RecordReport("wasserstein", 0, false)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "comparison failed", "details": err.Error()})
		return
	}
	s.Metrics.RecordReport("wasserstein", time.Since(start).Seconds(), true)
	c.JSON(http.StatusOK, gin.H{
		"column":   score.Column,
		"distance": score.Wasserstein,
	})
}
