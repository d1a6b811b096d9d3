// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/pkg/dataset"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/observability"
	"github.com/nitishhrms/Synthetic-Medical-Data-Generation-sub000/services/quality/report"
)

var testMetrics *observability.QualityMetrics

func init() {
	gin.SetMode(gin.TestMode)
	testMetrics = observability.InitMetrics()
}

func newRouter() *gin.Engine {
	server := &Server{Metrics: testMetrics, Logger: slog.Default()}
	router := gin.New()
	router.GET("/health", server.HealthCheck)
	router.POST("/v1/quality/score", server.Score)
	router.POST("/v1/quality/ks", server.KolmogorovSmirnov)
	router.POST("/v1/quality/wasserstein", server.Wasserstein)
	return router
}

func tableJSON(t *testing.T, n int, seed int64, shift float64) json.RawMessage {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = 120 + 10*rng.NormFloat64() + shift
	}
	s, err := dataset.NewFloatSeries("systolic_bp", vals, nil)
	require.NoError(t, err)
	table, err := dataset.NewTable(s)
	require.NoError(t, err)
	data, err := json.Marshal(table)
	require.NoError(t, err)
	return data
}

func post(router *gin.Engine, path string, body map[string]any) *httptest.ResponseRecorder {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestScore(t *testing.T) {
	router := newRouter()
	w := post(router, "/v1/quality/score", map[string]any{
		"real":      tableJSON(t, 800, 1, 0),
		"synthetic": tableJSON(t, 800, 2, 0),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep report.QualityReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	require.Len(t, rep.Columns, 1)
	assert.Equal(t, "systolic_bp", rep.Columns[0].Column)
	assert.Greater(t, rep.Score, 80.0)
	assert.Nil(t, rep.Privacy)
}

func TestScore_SkipsUnusableColumns(t *testing.T) {
	router := newRouter()

	// heart_rate exists in neither table; the report still succeeds on
	// the remaining requested column and lists the skipped one.
	w := post(router, "/v1/quality/score", map[string]any{
		"real":      tableJSON(t, 400, 1, 0),
		"synthetic": tableJSON(t, 400, 2, 0),
		"columns":   []string{"systolic_bp", "heart_rate"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rep report.QualityReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	require.Len(t, rep.Columns, 1)
	assert.Equal(t, "systolic_bp", rep.Columns[0].Column)
	assert.Equal(t, []string{"heart_rate"}, rep.SkippedColumns)
}

func TestScore_BadRequests(t *testing.T) {
	router := newRouter()

	w := post(router, "/v1/quality/score", map[string]any{"real": tableJSON(t, 10, 1, 0)})
	assert.Equal(t, http.StatusBadRequest, w.Code, "missing synthetic table")

	w = post(router, "/v1/quality/score", map[string]any{
		"real":      tableJSON(t, 10, 1, 0),
		"synthetic": tableJSON(t, 10, 2, 0),
		"columns":   []string{`bad;column`},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "invalid column name")

	req := httptest.NewRequest(http.MethodPost, "/v1/quality/score", strings.NewReader("{broken"))
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusBadRequest, w2.Code)
}

func TestKolmogorovSmirnov(t *testing.T) {
	router := newRouter()
	w := post(router, "/v1/quality/ks", map[string]any{
		"real":      tableJSON(t, 500, 1, 0),
		"synthetic": tableJSON(t, 500, 2, 40),
		"column":    "systolic_bp",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Column    string  `json:"column"`
		Statistic float64 `json:"statistic"`
		PValue    float64 `json:"p_value"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "systolic_bp", resp.Column)
	assert.Greater(t, resp.Statistic, 0.7)
	assert.Less(t, resp.PValue, 0.001)
}

func TestKolmogorovSmirnov_MissingColumn(t *testing.T) {
	router := newRouter()
	w := post(router, "/v1/quality/ks", map[string]any{
		"real":      tableJSON(t, 50, 1, 0),
		"synthetic": tableJSON(t, 50, 2, 0),
		"column":    "no_such_column",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestWasserstein(t *testing.T) {
	router := newRouter()
	w := post(router, "/v1/quality/wasserstein", map[string]any{
		"real":      tableJSON(t, 800, 1, 0),
		"synthetic": tableJSON(t, 800, 2, 25),
		"column":    "systolic_bp",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Distance float64 `json:"distance"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDelta(t, 25, resp.Distance, 3)
}

func TestHealthCheck(t *testing.T) {
	router := newRouter()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "synthmed-quality")
}
