// Package grouping turns a flat track list into the header-grouped library view.
package grouping

import (
	"cmp"
	"slices"

	"golang.org/x/text/cases"

	"github.com/osa030/localbox/internal/domain/library"
	"github.com/osa030/localbox/internal/domain/track"
)

// Group orders tracks by key and interleaves one header per group.
// It never mutates its input. An empty list or SortNone yields no entries.
func Group(tracks []track.Track, key library.SortKey) []library.Entry {
	if len(tracks) == 0 {
		return []library.Entry{}
	}

	switch key {
	case library.SortTitle:
		return groupByTitle(tracks)
	case library.SortArtist:
		return groupByField(tracks, func(t track.Track) string { return t.Artist })
	case library.SortAlbum:
		return groupByField(tracks, func(t track.Track) string { return t.Album })
	default:
		return []library.Entry{}
	}
}

// groupByField groups on exact (case-sensitive) equality of field.
func groupByField(tracks []track.Track, field func(track.Track) string) []library.Entry {
	sorted := slices.Clone(tracks)
	slices.SortStableFunc(sorted, func(a, b track.Track) int {
		return cmp.Compare(field(a), field(b))
	})

	entries := make([]library.Entry, 0, len(sorted)+len(sorted)/4)
	for i, t := range sorted {
		if i == 0 || field(sorted[i-1]) != field(t) {
			entries = append(entries, library.Header(field(t)))
		}
		entries = append(entries, library.Row(t))
	}
	return entries
}

func groupByTitle(tracks []track.Track) []library.Entry {
	fold := cases.Fold()

	type keyed struct {
		folded string
		track  track.Track
	}
	sorted := make([]keyed, len(tracks))
	for i, t := range tracks {
		sorted[i] = keyed{folded: fold.String(t.Title), track: t}
	}
	slices.SortStableFunc(sorted, func(a, b keyed) int {
		return cmp.Compare(a.folded, b.folded)
	})

	buckets := make(map[string][]track.Track)
	labels := make([]string, 0)
	for _, k := range sorted {
		label := Bucket(k.track.Title)
		if _, ok := buckets[label]; !ok {
			labels = append(labels, label)
		}
		buckets[label] = append(buckets[label], k.track)
	}

	slices.SortFunc(labels, compareBuckets)

	entries := make([]library.Entry, 0, len(tracks)+len(labels))
	for _, label := range labels {
		entries = append(entries, library.Header(label))
		for _, t := range buckets[label] {
			entries = append(entries, library.Row(t))
		}
	}
	return entries
}

// compareBuckets orders labels by canonical rank; unknown labels sort
// after every named bucket and before "*", alphabetically among themselves.
func compareBuckets(a, b string) int {
	ra, rb := bucketRank(a), bucketRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	return cmp.Compare(a, b)
}
