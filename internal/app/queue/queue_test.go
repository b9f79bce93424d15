package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/localbox/internal/domain/track"
)

func libraryFixture() []track.Track {
	return []track.Track{
		track.New("/m/b1.mp3", "B1", "Band", "Blue"),
		track.New("/m/r1.mp3", "R1", "Band", "Red"),
		track.New("/m/b2.mp3", "B2", "Band", "Blue"),
		track.New("/m/r2.mp3", "R2", "Band", "Red"),
		track.New("/m/b3.mp3", "B3", "Band", "Blue"),
	}
}

func TestDerive_KeepsScanOrder(t *testing.T) {
	lib := libraryFixture()

	q, start := Derive(lib[2], lib)

	require.Equal(t, 3, q.Len())
	assert.Equal(t, []string{"/m/b1.mp3", "/m/b2.mp3", "/m/b3.mp3"},
		[]string{q.Tracks[0].Locator, q.Tracks[1].Locator, q.Tracks[2].Locator})
	assert.Equal(t, 1, start)
	assert.Equal(t, start, q.Index)
}

func TestDerive_AlwaysContainsSelection(t *testing.T) {
	lib := libraryFixture()
	stray := track.New("/elsewhere/x.mp3", "X", "Other", "Blue")

	for _, selected := range append(lib, stray) {
		t.Run(selected.Locator, func(t *testing.T) {
			q, start := Derive(selected, lib)

			require.True(t, q.InBounds(start))
			assert.True(t, q.Tracks[start].SameIdentity(selected))
		})
	}
}

func TestDerive_NoMatchFallsBackToSingleTrack(t *testing.T) {
	selected := track.New("/x.mp3", "X", "A", "Lonely")

	q, start := Derive(selected, libraryFixture())

	assert.Equal(t, []track.Track{selected}, q.Tracks)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, q.Index)
}

func TestNext_HasNoBoundsCheck(t *testing.T) {
	q := Queue{Tracks: libraryFixture()[:2], Index: 1}

	next := Next(q)

	assert.Equal(t, 2, next)
	assert.False(t, q.InBounds(next))
}

func TestPrevious(t *testing.T) {
	tracks := libraryFixture()

	tests := []struct {
		name       string
		index      int
		positionMs int64
		expected   PreviousAction
	}{
		{
			name:       "far into track restarts",
			index:      2,
			positionMs: 3001,
			expected:   PreviousAction{Kind: RestartCurrent, Target: 2},
		},
		{
			name:       "far into first track restarts",
			index:      0,
			positionMs: 60000,
			expected:   PreviousAction{Kind: RestartCurrent, Target: 0},
		},
		{
			name:       "threshold is exclusive",
			index:      2,
			positionMs: 3000,
			expected:   PreviousAction{Kind: StepBack, Target: 1},
		},
		{
			name:       "first track near start is a no-op",
			index:      0,
			positionMs: 1200,
			expected:   PreviousAction{Kind: NoOp, Target: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Queue{Tracks: tracks, Index: tt.index}
			assert.Equal(t, tt.expected, Previous(q, tt.positionMs))
		})
	}
}

func TestQueue_CurrentAndWithIndex(t *testing.T) {
	tracks := libraryFixture()

	empty := Empty()
	_, ok := empty.Current()
	assert.False(t, ok)
	assert.Equal(t, NoIndex, empty.Index)

	q := Queue{Tracks: tracks, Index: 1}
	cur, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, tracks[1], cur)

	assert.Equal(t, 4, q.WithIndex(4).Index)
	assert.Equal(t, NoIndex, q.WithIndex(5).Index)
	assert.Equal(t, NoIndex, q.WithIndex(-3).Index)
}

func TestQueue_SnapshotDoesNotAlias(t *testing.T) {
	q := Queue{Tracks: libraryFixture(), Index: 0}

	snap := q.Snapshot()
	snap.Tracks[0] = track.New("/changed.mp3", "C", "", "")

	assert.Equal(t, "/m/b1.mp3", q.Tracks[0].Locator)
}

func TestPreviousWithThreshold(t *testing.T) {
	q := Queue{Tracks: libraryFixture(), Index: 1}

	assert.Equal(t, PreviousAction{Kind: RestartCurrent, Target: 1}, PreviousWithThreshold(q, 1001, 1000))
	assert.Equal(t, PreviousAction{Kind: StepBack, Target: 0}, PreviousWithThreshold(q, 1000, 1000))
}
