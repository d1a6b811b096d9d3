// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/handlers"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/generator/store"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/profile_engine"
)

var testMetrics *observability.GeneratorMetrics

func init() {
	gin.SetMode(gin.TestMode)
	testMetrics = observability.InitMetrics()
}

func newRouter(t *testing.T, opts Options) *gin.Engine {
	t.Helper()
	engine, err := profile_engine.NewEngine()
	require.NoError(t, err)
	db, err := store.Open(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	server := &handlers.Server{
		Engine:   engine,
		Registry: store.NewRegistry(db, 0),
		Metrics:  testMetrics,
		Logger:   slog.Default(),
	}
	router := gin.New()
	SetupRoutes(router, server, opts)
	return router
}

func TestRoutes_HealthAndMetricsUnauthenticated(t *testing.T) {
	router := newRouter(t, Options{APIKey: "sekrit"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_APIKeyEnforced(t *testing.T) {
	router := newRouter(t, Options{APIKey: "sekrit"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profiles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/profiles", nil)
	req.Header.Set("X-API-Key", "sekrit")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_Registered(t *testing.T) {
	router := newRouter(t, Options{})

	// Unknown dataset paths answer with a validation error, not 404 on
	// the route itself.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/datasets/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/datasets", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
