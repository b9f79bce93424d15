// Package metrics provides Prometheus instrumentation for localbox.
// All metrics are prefixed with "localbox_".
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localbox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "localbox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localbox_indexer_runs_total",
			Help: "Total number of library scans",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localbox_indexer_last_run_duration_seconds",
			Help: "Duration of the last library scan in seconds",
		},
	)

	IndexerFilesIndexed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localbox_indexer_files_indexed_total",
			Help: "Total number of audio files turned into tracks",
		},
	)

	IndexerFilesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localbox_indexer_files_skipped_total",
			Help: "Total number of entries rejected by the filter chain",
		},
		[]string{"code"},
	)

	IndexerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localbox_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
		[]string{"kind"}, // "root", "directory", "extract"
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localbox_indexer_running",
			Help: "Whether a library scan is running (1 = running, 0 = idle)",
		},
	)

	LibraryTracks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localbox_library_tracks",
			Help: "Number of tracks in the current library snapshot",
		},
	)
)

// Playback metrics
var (
	PlaybackCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localbox_playback_commands_total",
			Help: "Total number of transport commands handled",
		},
		[]string{"command"},
	)

	PlaybackTracksStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localbox_playback_tracks_started_total",
			Help: "Total number of tracks handed to the engine",
		},
	)

	PlaybackEngineErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "localbox_playback_engine_errors_total",
			Help: "Total number of errors reported by the player engine",
		},
	)

	PlaybackState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "localbox_playback_state",
			Help: "Current transport state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)
)

// Broadcaster metrics
var (
	Subscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "localbox_state_subscribers",
			Help: "Number of active state stream subscribers",
		},
	)
)

// SetPlaybackState marks active as the only current transport state.
func SetPlaybackState(states []string, active string) {
	for _, s := range states {
		v := 0.0
		if s == active {
			v = 1
		}
		PlaybackState.WithLabelValues(s).Set(v)
	}
}
