package eval

import (
	"sort"

	"github.com/tracklab/trackbench/geom"
)

// Observation is one labeled position within a frame — either a reference
// (ground truth) or a track (the system under test), keyed by its stable
// integer id.
type Observation struct {
	ID       int
	Position geom.Point3
}

// Frame is one frame's worth of references or tracked output, keyed by
// frame index. Evaluate iterates the union of keys present in both maps.
type Frame = []Observation

// Evaluate runs the single-pass comparison described in spec §4.C over the
// union of frames present in references and tracked, returning the
// finalized per-clip Statistics.
func Evaluate(references, tracked map[int]Frame) *Statistics {
	stats := &Statistics{
		References: make(map[int]*ReferenceStats),
		Tracks:     make(map[int]*TrackStats),
	}

	for _, frame := range unionFrames(references, tracked) {
		refs := references[frame]
		tracks := tracked[frame]

		for _, r := range refs {
			rs := stats.reference(r.ID)
			rs.Lifespan++
		}

		matchedTrackThisFrame := make(map[int]bool)

		for _, r := range refs {
			rs := stats.reference(r.ID)
			for _, tr := range tracks {
				if r.Position.Distance(tr.Position) > MatchRadius {
					continue
				}
				ts := stats.track(tr.ID)
				ts.Lifespan++
				ts.Tracked++
				ts.AssociatedRefIDs[r.ID] = true

				rs.Tracked++
				rs.AssociatedIDs[tr.ID] = true
				rs.TrackIDCount[tr.ID]++

				if !rs.hasLastTrack || rs.lastTrackID != tr.ID {
					rs.IDSwitches++
					rs.lastTrackID = tr.ID
					rs.hasLastTrack = true
				}

				matchedTrackThisFrame[tr.ID] = true
			}
		}

		for _, tr := range tracks {
			if !matchedTrackThisFrame[tr.ID] {
				stats.FalsePositives++
			}
		}
	}

	stats.finalize()
	return stats
}

func (s *Statistics) reference(id int) *ReferenceStats {
	rs, ok := s.References[id]
	if !ok {
		rs = newReferenceStats()
		s.References[id] = rs
	}
	return rs
}

func (s *Statistics) track(id int) *TrackStats {
	ts, ok := s.Tracks[id]
	if !ok {
		ts = newTrackStats()
		s.Tracks[id] = ts
	}
	return ts
}

func (s *Statistics) finalize() {
	for _, rs := range s.References {
		if rs.Lifespan == 0 {
			continue
		}
		best, longest := 0, 0
		// Deterministic tie-break: lowest track id wins, matching the
		// Hungarian solver's stable row-major ordering used elsewhere in
		// this module.
		ids := sortedKeys(rs.TrackIDCount)
		for _, id := range ids {
			if count := rs.TrackIDCount[id]; count > longest {
				longest = count
				best = id
			}
		}
		rs.DominantTrackID = best
		rs.TrackedPercentage = 100 * float64(longest) / float64(rs.Lifespan)
		rs.SuccessfullyTracked = rs.TrackedPercentage >= 75
	}
}

func unionFrames(a, b map[int]Frame) []int {
	seen := make(map[int]bool, len(a)+len(b))
	for f := range a {
		seen[f] = true
	}
	for f := range b {
		seen[f] = true
	}
	frames := make([]int, 0, len(seen))
	for f := range seen {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

func sortedKeys(m map[int]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
