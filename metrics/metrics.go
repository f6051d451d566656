// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics provides the pipeline's prometheus collectors. One
// Metrics instance is created per run and threaded through RunContext.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors every stage reports into.
type Metrics struct {
	Registry prometheus.Registerer

	StageDuration        *prometheus.HistogramVec
	SatellitesProcessed  *prometheus.CounterVec
	HandoverEventsEmitted *prometheus.CounterVec
	ValidationPassRate   *prometheus.GaugeVec
	IndexStoreDegraded   prometheus.Gauge
}

// New creates a Metrics instance with its own registry so concurrent tests
// never collide over the default global registerer.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "constellation",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		SatellitesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "constellation",
			Name:      "satellites_processed_total",
			Help:      "Satellites processed per constellation per stage.",
		}, []string{"stage", "constellation"}),
		HandoverEventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "constellation",
			Name:      "handover_events_total",
			Help:      "Synthesized handover events by 3GPP event kind.",
		}, []string{"kind"}),
		ValidationPassRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "constellation",
			Name:      "validation_pass_rate",
			Help:      "Pass rate per validation category in [0,1].",
		}, []string{"category"}),
		IndexStoreDegraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "constellation",
			Name:      "index_store_degraded",
			Help:      "1 if the index store is unreachable and storage has degraded to bulk-only mode.",
		}),
	}
	_ = m.Register(m.StageDuration)
	_ = m.Register(m.SatellitesProcessed)
	_ = m.Register(m.HandoverEventsEmitted)
	_ = m.Register(m.ValidationPassRate)
	_ = m.Register(m.IndexStoreDegraded)
	return m
}

// Register registers a prometheus collector against this Metrics'
// registry.
func (m *Metrics) Register(collector prometheus.Collector) error {
	return m.Registry.Register(collector)
}

// ObserveStage records how long a named stage took to run.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
