// Copyright (C) 2025 Synthetic Medical Data Generation contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the quality
// service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "synthmed"
	qualitySubsystem = "quality"
)

// QualityMetrics holds the quality service metrics.
type QualityMetrics struct {
	// ReportsTotal counts computed reports by endpoint and status.
	// Labels: endpoint (score, ks, wasserstein), status (success, error)
	ReportsTotal *prometheus.CounterVec

	// ReportDurationSeconds measures report computation latency.
	// Labels: endpoint
	ReportDurationSeconds *prometheus.HistogramVec

	// QualityScore tracks the last computed aggregate score.
	QualityScore prometheus.Gauge
}

// DefaultMetrics is the singleton instance, set by InitMetrics.
var DefaultMetrics *QualityMetrics

// InitMetrics creates and registers all quality metrics. Call once at
// startup.
func InitMetrics() *QualityMetrics {
	DefaultMetrics = &QualityMetrics{
		ReportsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "reports_total",
				Help:      "Total quality reports by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		ReportDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "report_duration_seconds",
				Help:      "Quality report computation latency in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15},
			},
			[]string{"endpoint"},
		),
		QualityScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: qualitySubsystem,
				Name:      "last_score",
				Help:      "Aggregate score of the most recent quality report",
			},
		),
	}
	return DefaultMetrics
}

// RecordReport records one finished report computation.
func (m *QualityMetrics) RecordReport(endpoint string, seconds float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ReportsTotal.WithLabelValues(endpoint, status).Inc()
	if success {
		m.ReportDurationSeconds.WithLabelValues(endpoint).Observe(seconds)
	}
}
