package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsExist(t *testing.T) {
	tests := []struct {
		name   string
		metric any
	}{
		{"HTTPRequestsTotal", HTTPRequestsTotal},
		{"HTTPRequestDuration", HTTPRequestDuration},
		{"IndexerRunsTotal", IndexerRunsTotal},
		{"IndexerLastRunDuration", IndexerLastRunDuration},
		{"IndexerFilesIndexed", IndexerFilesIndexed},
		{"IndexerFilesSkipped", IndexerFilesSkipped},
		{"IndexerErrors", IndexerErrors},
		{"IndexerIsRunning", IndexerIsRunning},
		{"LibraryTracks", LibraryTracks},
		{"PlaybackCommandsTotal", PlaybackCommandsTotal},
		{"PlaybackTracksStarted", PlaybackTracksStarted},
		{"PlaybackEngineErrors", PlaybackEngineErrors},
		{"PlaybackState", PlaybackState},
		{"Subscribers", Subscribers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.metric)
		})
	}
}

func TestSetPlaybackState(t *testing.T) {
	states := []string{"idle", "playing", "paused"}

	SetPlaybackState(states, "playing")

	assert.Equal(t, 0.0, testutil.ToFloat64(PlaybackState.WithLabelValues("idle")))
	assert.Equal(t, 1.0, testutil.ToFloat64(PlaybackState.WithLabelValues("playing")))
	assert.Equal(t, 0.0, testutil.ToFloat64(PlaybackState.WithLabelValues("paused")))

	SetPlaybackState(states, "paused")

	assert.Equal(t, 0.0, testutil.ToFloat64(PlaybackState.WithLabelValues("playing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(PlaybackState.WithLabelValues("paused")))
}
