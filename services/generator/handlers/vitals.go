// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"golang.org/x/sync/errgroup"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/store"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/synth"
)

const (
	flushWorkers   = 4
	flushBatchSize = 500
)

// VitalsFlushRequest asks for a dataset's vitals to be written to
// InfluxDB as time series.
type VitalsFlushRequest struct {
	DatasetID string `json:"dataset_id" binding:"required"`
}

// VitalsQueryRequest queries one measure of one subject back out.
type VitalsQueryRequest struct {
	DatasetID string `json:"dataset_id" binding:"required"`
	SubjectID string `json:"subject_id" binding:"required"`
	Measure   string `json:"measure" binding:"required"`
	Days      int    `json:"days"`
}

// VitalsPoint is one time-series point in a query response.
type VitalsPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// FlushVitals writes the vitals domain of a dataset to InfluxDB, one
// point per visit row, tagged with dataset, subject, arm and visit.
// Visit days are anchored to the dataset's creation time. Rows are
// written by a small worker pool in batches.
func (s *Server) FlushVitals(c *gin.Context) {
	if s.WriteAPI == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "InfluxDB is not configured"})
		return
	}
	var req VitalsFlushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := validation.ValidateDatasetID(req.DatasetID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id", "details": err.Error()})
		return
	}

	meta, err := s.Registry.Get(c.Request.Context(), req.DatasetID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed", "details": err.Error()})
		return
	}
	table, err := s.Registry.GetDomain(c.Request.Context(), req.DatasetID, synth.DomainVitals)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed", "details": err.Error()})
		return
	}

	points, err := vitalsPoints(table, req.DatasetID, meta.CreatedAt)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "build points failed", "details": err.Error()})
		return
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	jobs := make(chan []*write.Point, flushWorkers)
	for i := 0; i < flushWorkers; i++ {
		g.Go(func() error {
			for batch := range jobs {
				if err := s.WriteAPI.WritePoint(ctx, batch...); err != nil {
					return err
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		// The feeder watches the group context so a failed worker
		// stops the feed instead of blocking on a full channel.
		defer close(jobs)
		for start := 0; start < len(points); start += flushBatchSize {
			end := min(start+flushBatchSize, len(points))
			select {
			case jobs <- points[start:end]:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.Logger.Error("vitals flush failed", "dataset_id", req.DatasetID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "flush failed", "details": err.Error()})
		return
	}

	s.Metrics.VitalsPointsWrittenTotal.Add(float64(len(points)))
	s.Logger.Info("vitals flushed", "dataset_id", req.DatasetID, "points", len(points))
	c.JSON(http.StatusOK, gin.H{
		"status":     "flushed",
		"dataset_id": req.DatasetID,
		"points":     len(points),
	})
}

// vitalsPoints converts a vitals table to Influx points. Every float
// column except VISITDY becomes a field.
func vitalsPoints(table *dataset.Table, datasetID string, day0 time.Time) ([]*write.Point, error) {
	subjCol, err := table.Column("USUBJID")
	if err != nil {
		return nil, err
	}
	armCol, err := table.Column("ARM")
	if err != nil {
		return nil, err
	}
	visitCol, err := table.Column("VISIT")
	if err != nil {
		return nil, err
	}
	dayCol, err := table.Column("VISITDY")
	if err != nil {
		return nil, err
	}
	days, _, err := dayCol.Floats()
	if err != nil {
		return nil, err
	}

	var measures []*dataset.Series
	for _, name := range table.Columns() {
		if name == "VISITDY" {
			continue
		}
		col, err := table.Column(name)
		if err != nil {
			return nil, err
		}
		if col.Kind() == dataset.KindFloat {
			measures = append(measures, col)
		}
	}
	if len(measures) == 0 {
		return nil, fmt.Errorf("vitals table has no measure columns")
	}

	points := make([]*write.Point, 0, table.NumRows())
	for i := 0; i < table.NumRows(); i++ {
		fields := make(map[string]interface{}, len(measures))
		for _, m := range measures {
			if m.IsMissing(i) {
				continue
			}
			vals, _, _ := m.Floats()
			fields[m.Name] = vals[i]
		}
		if len(fields) == 0 {
			continue
		}
		points = append(points, influxdb2.NewPoint(
			"vitals",
			map[string]string{
				"dataset_id": datasetID,
				"usubjid":    subjCol.CellString(i),
				"arm":        armCol.CellString(i),
				"visit":      visitCol.CellString(i),
			},
			fields,
			day0.Add(time.Duration(days[i])*24*time.Hour),
		))
	}
	return points, nil
}

// QueryVitals reads one measure of one subject back from InfluxDB.
// All identifiers are validated before interpolation into Flux.
func (s *Server) QueryVitals(c *gin.Context) {
	if s.QueryAPI == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "InfluxDB is not configured"})
		return
	}
	var req VitalsQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := validation.ValidateDatasetID(req.DatasetID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id", "details": err.Error()})
		return
	}
	if err := validation.ValidateSubjectID(req.SubjectID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subject id", "details": err.Error()})
		return
	}
	if err := validation.ValidateColumn(req.Measure); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid measure", "details": err.Error()})
		return
	}
	if req.Days <= 0 {
		req.Days = 365
	}

	query := fmt.Sprintf(`
		from(bucket: "%s")
		  |> range(start: -%dd)
		  |> filter(fn: (r) => r._measurement == "vitals")
		  |> filter(fn: (r) => r.dataset_id == "%s")
		  |> filter(fn: (r) => r.usubjid == "%s")
		  |> filter(fn: (r) => r._field == "%s")
		  |> sort(columns: ["_time"], desc: false)
	`, s.InfluxBucket, req.Days, req.DatasetID, req.SubjectID, req.Measure)

	result, err := s.QueryAPI.Query(c.Request.Context(), query)
	if err != nil {
		s.Logger.Error("vitals query failed", "dataset_id", req.DatasetID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed", "details": err.Error()})
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"subject_id": req.SubjectID, "measure": req.Measure, "data": []VitalsPoint{}, "count": 0})
		return
	}

	points := []VitalsPoint{}
	for result.Next() {
		record := result.Record()
		if val, ok := record.Value().(float64); ok {
			points = append(points, VitalsPoint{
				Time:  record.Time().Format(time.RFC3339),
				Value: val,
			})
		}
	}
	if result.Err() != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query result error", "details": result.Err().Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subject_id": req.SubjectID,
		"measure":    req.Measure,
		"data":       points,
		"count":      len(points),
	})
}
