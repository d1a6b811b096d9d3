// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/store"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/synth"
)

// CreateDataset generates a dataset synchronously and stores it.
//
// A zero seed picks a fresh one, so repeated unseeded requests produce
// different datasets; the chosen seed is returned in the metadata for
// reproduction.
func (s *Server) CreateDataset(c *gin.Context) {
	var req synth.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	profileName, err := validation.SanitizeName(req.Profile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile name", "details": err.Error()})
		return
	}
	req.Profile = profileName
	if req.Seed == 0 {
		req.Seed = time.Now().UnixNano()
	}

	profile, err := s.Engine.Profile(req.Profile)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	tables, err := synth.Generate(c.Request.Context(), profile, req, nil)
	if err != nil {
		s.Metrics.RecordGeneration(req.Profile, 0, nil, false)
		s.Logger.Error("dataset generation failed", "profile", req.Profile, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation failed", "details": err.Error()})
		return
	}

	meta := store.Metadata{
		ID:        uuid.NewString(),
		Profile:   req.Profile,
		Subjects:  req.Subjects,
		Seed:      req.Seed,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Registry.Put(c.Request.Context(), meta, tables); err != nil {
		s.Logger.Error("dataset store failed", "dataset_id", meta.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed", "details": err.Error()})
		return
	}

	stored, err := s.Registry.Get(c.Request.Context(), meta.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store readback failed", "details": err.Error()})
		return
	}
	s.Metrics.RecordGeneration(req.Profile, time.Since(start).Seconds(), stored.Rows, true)
	s.Logger.Info("dataset generated",
		"dataset_id", stored.ID,
		"profile", stored.Profile,
		"subjects", stored.Subjects,
		"seed", stored.Seed)
	c.JSON(http.StatusCreated, stored)
}

// ListDatasets returns the metadata of all stored datasets.
func (s *Server) ListDatasets(c *gin.Context) {
	list, err := s.Registry.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed", "details": err.Error()})
		return
	}
	if list == nil {
		list = []store.Metadata{}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": list, "count": len(list)})
}

// GetDataset returns the metadata of one dataset.
func (s *Server) GetDataset(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateDatasetID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id", "details": err.Error()})
		return
	}
	meta, err := s.Registry.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, meta)
}

// GetDomain returns one domain table as JSON, or CSV with ?format=csv.
func (s *Server) GetDomain(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateDatasetID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id", "details": err.Error()})
		return
	}
	domain, err := validation.SanitizeName(c.Param("domain"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid domain", "details": err.Error()})
		return
	}

	table, err := s.Registry.GetDomain(c.Request.Context(), id, domain)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed", "details": err.Error()})
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="`+id+"_"+domain+`.csv"`)
		c.Status(http.StatusOK)
		if err := table.WriteCSV(c.Writer); err != nil {
			s.Logger.Error("csv stream failed", "dataset_id", id, "domain", domain, "error", err)
		}
		return
	}
	c.JSON(http.StatusOK, table)
}

// DeleteDataset removes a dataset and all its domains.
func (s *Server) DeleteDataset(c *gin.Context) {
	id := c.Param("id")
	if err := validation.ValidateDatasetID(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dataset id", "details": err.Error()})
		return
	}
	err := s.Registry.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed", "details": err.Error()})
		return
	}
	s.Metrics.DatasetsDeletedTotal.Inc()
	s.Logger.Info("dataset deleted", "dataset_id", id)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "dataset_id": id})
}
