// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/validation"
)

// ProfileSummary is one entry of the profile listing.
type ProfileSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Visits      int    `json:"visits"`
	Measures    int    `json:"measures"`
}

// ListProfiles returns every profile in the catalog.
func (s *Server) ListProfiles(c *gin.Context) {
	names := s.Engine.Names()
	out := make([]ProfileSummary, 0, len(names))
	for _, name := range names {
		p, err := s.Engine.Profile(name)
		if err != nil {
			// Catalog swapped between Names and Profile; skip the gap.
			continue
		}
		out = append(out, ProfileSummary{
			Name:        p.Name,
			Description: p.Description,
			Visits:      len(p.Visits),
			Measures:    len(p.Vitals.Measures),
		})
	}
	c.JSON(http.StatusOK, gin.H{"profiles": out, "count": len(out)})
}

// GetProfile returns the full definition of one profile.
func (s *Server) GetProfile(c *gin.Context) {
	name, err := validation.SanitizeName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile name", "details": err.Error()})
		return
	}
	p, err := s.Engine.Profile(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}
