// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability holds the Prometheus metrics of the benchmark
// service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "synthmed"
	subsystem = "benchmark"
)

// BenchmarkMetrics tracks comparison requests and their outcomes.
type BenchmarkMetrics struct {
	ComparisonsTotal          *prometheus.CounterVec
	ComparisonDurationSeconds *prometheus.HistogramVec
	VerdictsTotal             *prometheus.CounterVec
}

// DefaultMetrics is the shared metrics instance set by InitMetrics.
var DefaultMetrics *BenchmarkMetrics

// InitMetrics registers the benchmark metrics with the default
// Prometheus registry. Call it once at startup.
func InitMetrics() *BenchmarkMetrics {
	m := &BenchmarkMetrics{
		ComparisonsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "comparisons_total",
			Help:      "Benchmark comparisons by area and status.",
		}, []string{"area", "status"}),
		ComparisonDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "comparison_duration_seconds",
			Help:      "Wall time of benchmark comparisons.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"area"}),
		VerdictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "verdicts_total",
			Help:      "Overall comparison verdicts by area.",
		}, []string{"area", "verdict"}),
	}
	DefaultMetrics = m
	return m
}

// RecordComparison updates the counters for one comparison.
func (m *BenchmarkMetrics) RecordComparison(area string, seconds float64, verdict string, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "error"
	}
	m.ComparisonsTotal.WithLabelValues(area, status).Inc()
	m.ComparisonDurationSeconds.WithLabelValues(area).Observe(seconds)
	if success {
		m.VerdictsTotal.WithLabelValues(area, verdict).Inc()
	}
}
