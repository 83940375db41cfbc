// Package metrics provides Prometheus instrumentation for hlsedit.
//
// All metrics are prefixed with "hlsedit_" and registered on the default
// registry through promauto. Mount promhttp.Handler() to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Structure maintenance metrics, labelled by playlist shape ("media", "master")
var (
	StructureRebuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsedit_structure_rebuilds_total",
			Help: "Total number of full structure rebuilds",
		},
		[]string{"shape"},
	)

	StructurePatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsedit_structure_patches_total",
			Help: "Total number of edits applied as incremental patches",
		},
		[]string{"shape"},
	)

	StructurePatchAborts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsedit_structure_patch_aborts_total",
			Help: "Total number of patches that fell back to a full rebuild",
		},
		[]string{"shape"},
	)

	StructureDegenerate = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsedit_structure_degenerate_total",
			Help: "Total number of rebuilds that found a malformed tag sequence",
		},
		[]string{"shape"},
	)
)

// Parser metrics
var (
	ParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hlsedit_parse_duration_seconds",
			Help:    "Playlist parse duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"kind"}, // "media", "master"
	)

	ParseErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hlsedit_parse_errors_total",
			Help: "Total number of playlists rejected by the tokenizer",
		},
	)

	LiveUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsedit_live_updates_total",
			Help: "Total number of live playlist updates by outcome",
		},
		[]string{"outcome"}, // "patched", "reparsed"
	)
)

// Store metrics
var (
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlsedit_store_operations_total",
			Help: "Total number of playlist store operations",
		},
		[]string{"operation", "status"},
	)
)

// Shapes are the structure shapes reported in the "shape" label.
var Shapes = []string{"media", "master"}

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first scrape.
func InitializeMetrics() {
	for _, shape := range Shapes {
		StructureRebuilds.WithLabelValues(shape)
		StructurePatches.WithLabelValues(shape)
		StructurePatchAborts.WithLabelValues(shape)
		StructureDegenerate.WithLabelValues(shape)
		ParseDuration.WithLabelValues(shape)
	}
	for _, outcome := range []string{"patched", "reparsed"} {
		LiveUpdates.WithLabelValues(outcome)
	}
	for _, op := range []string{"put", "get", "delete", "list"} {
		StoreOperations.WithLabelValues(op, "success")
		StoreOperations.WithLabelValues(op, "error")
	}
}
