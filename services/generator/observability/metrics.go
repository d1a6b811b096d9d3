// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the generator
// service. Metrics are exposed on /metrics and cover generation
// throughput, latency, storage and websocket activity.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace   = "synthmed"
	generatorSubsystem = "generator"
)

// GeneratorMetrics holds all Prometheus metrics for dataset generation.
// All operations are thread-safe via Prometheus's internal locking.
type GeneratorMetrics struct {
	// GenerationsTotal counts generation runs by profile and status.
	// Labels: profile, status (success, error)
	GenerationsTotal *prometheus.CounterVec

	// GenerationDurationSeconds measures end-to-end generation latency.
	// Labels: profile
	GenerationDurationSeconds *prometheus.HistogramVec

	// RowsGeneratedTotal counts generated rows by domain.
	// Labels: domain
	RowsGeneratedTotal *prometheus.CounterVec

	// DatasetsDeletedTotal counts explicit dataset deletions.
	DatasetsDeletedTotal prometheus.Counter

	// ActiveStreams tracks open websocket generation streams.
	ActiveStreams prometheus.Gauge

	// VitalsPointsWrittenTotal counts vitals points flushed to InfluxDB.
	VitalsPointsWrittenTotal prometheus.Counter
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *GeneratorMetrics

// InitMetrics creates and registers all generator metrics. Call once at
// startup; a second call panics on duplicate registration.
func InitMetrics() *GeneratorMetrics {
	DefaultMetrics = &GeneratorMetrics{
		GenerationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generatorSubsystem,
				Name:      "generations_total",
				Help:      "Total dataset generation runs by profile and status",
			},
			[]string{"profile", "status"},
		),
		GenerationDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: generatorSubsystem,
				Name:      "generation_duration_seconds",
				Help:      "End-to-end dataset generation latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"profile"},
		),
		RowsGeneratedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generatorSubsystem,
				Name:      "rows_generated_total",
				Help:      "Total generated rows by domain",
			},
			[]string{"domain"},
		),
		DatasetsDeletedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generatorSubsystem,
				Name:      "datasets_deleted_total",
				Help:      "Total datasets deleted through the API",
			},
		),
		ActiveStreams: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: generatorSubsystem,
				Name:      "active_streams",
				Help:      "Open websocket generation streams",
			},
		),
		VitalsPointsWrittenTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: generatorSubsystem,
				Name:      "vitals_points_written_total",
				Help:      "Vitals data points flushed to InfluxDB",
			},
		),
	}
	return DefaultMetrics
}

// RecordGeneration records one finished generation run.
func (m *GeneratorMetrics) RecordGeneration(profile string, seconds float64, rows map[string]int, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.GenerationsTotal.WithLabelValues(profile, status).Inc()
	if success {
		m.GenerationDurationSeconds.WithLabelValues(profile).Observe(seconds)
		for domain, n := range rows {
			m.RowsGeneratedTotal.WithLabelValues(domain).Add(float64(n))
		}
	}
}
