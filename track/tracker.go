// Package track implements the per-clip multi-object tracker: a set of
// constant-acceleration Kalman filters (KalmanTrack) associated to each
// frame's detections by a gated rectangular Hungarian assignment, with a
// birth/death/promote lifecycle driven by hit and miss counters.
//
// Grounded on the teacher's pkg/norfairgo.Tracker (TrackerConfig-with-
// defaults and the staged Update pipeline: predict, match, birth, return
// active) and tracked_object.go (TrackedObject's counter bookkeeping),
// reworked from norfair's multi-stage initializing/ReID pipeline to the
// single-stage INITIALIZED→CONFIRMED lifecycle this domain's spec requires.
package track

import (
	"fmt"
	"sort"

	"github.com/tracklab/trackbench/geom"
	"github.com/tracklab/trackbench/internal/assign"
)

// Published is one CONFIRMED track's output for a single frame.
type Published struct {
	ID                                int
	Position, Velocity, Acceleration geom.Point3
}

// Tracker holds the live KalmanTracks for one clip and advances them frame
// by frame. A Tracker is not safe for concurrent use; callers running
// multiple clips concurrently must construct one Tracker per clip.
type Tracker struct {
	settings Settings
	tracks   []*KalmanTrack
	nextID   int
}

// New builds a Tracker from settings, which must satisfy Settings.Validate.
func New(settings Settings) (*Tracker, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("track: new tracker: %w", err)
	}
	return &Tracker{settings: settings}, nil
}

// Step runs one frame of the eight-stage pipeline (spec §4.B) against an
// unordered set of detections, returning the CONFIRMED tracks' published
// state for this frame.
func (t *Tracker) Step(detections []geom.Point3) ([]Published, error) {
	// 1. Predict every live track.
	predicted := make([]geom.Point3, len(t.tracks))
	for i, tr := range t.tracks {
		predicted[i] = tr.Predict()
	}

	// 2. Associate: build the cost matrix and solve as a gated rectangular
	// Hungarian assignment.
	cost := costMatrix(predicted, detections)
	pairs, unassignedTracks, unassignedDetections := assign.Solve(cost, len(t.tracks), len(detections), t.settings.DistanceThreshold)

	// 3. Update matched tracks with their assigned detection.
	for _, p := range pairs {
		t.tracks[p.TrackIdx].Update(detections[p.DetectionIdx])
	}

	// 4. Birth: every unassigned detection starts a new track.
	for _, j := range unassignedDetections {
		nt := newKalmanTrack(t.nextID, detections[j], t.settings)
		t.nextID++
		t.tracks = append(t.tracks, nt)
	}

	// 5. Miss bookkeeping: every unassigned track ages its time-since-update.
	for _, i := range unassignedTracks {
		t.tracks[i].TimeSinceUpdate++
	}

	// 6. Death: delete tracks exceeding either death criterion, iterating by
	// descending index to keep earlier indices stable.
	indices := make([]int, len(t.tracks))
	for i := range indices {
		indices[i] = i
	}
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, i := range indices {
		tr := t.tracks[i]
		if tr.TimeSinceUpdate > t.settings.MaxAge || tr.ConsecutiveMisses > t.settings.MaxConsecutiveMisses {
			t.tracks = append(t.tracks[:i], t.tracks[i+1:]...)
		}
	}

	// 7. Promote and 8. streak-reset over all surviving tracks.
	for _, tr := range t.tracks {
		if tr.Stage == Initialized && tr.Hits >= t.settings.MinHits {
			tr.Stage = Confirmed
		}
		if tr.TimeSinceUpdate > 1 {
			tr.HitStreak = 0
		}
		if !tr.IsFinite() {
			return nil, &NumericInstabilityError{TrackID: tr.ID}
		}
	}

	var out []Published
	for _, tr := range t.tracks {
		if tr.Stage != Confirmed {
			continue
		}
		out = append(out, Published{
			ID:           tr.ID,
			Position:     tr.SmoothedPosition(),
			Velocity:     tr.Velocity(),
			Acceleration: tr.Acceleration(),
		})
	}
	return out, nil
}

// costMatrix builds the track x detection pairwise Euclidean distance
// matrix directly from geom.Point3.Distance: both sides are already flat
// 3-vectors, so there is no call for routing them through a gonum matrix.
func costMatrix(predicted, detections []geom.Point3) [][]float64 {
	cost := make([][]float64, len(predicted))
	for i, p := range predicted {
		cost[i] = make([]float64, len(detections))
		for j, d := range detections {
			cost[i][j] = p.Distance(d)
		}
	}
	return cost
}

// NumericInstabilityError is returned by Step when a track's covariance
// becomes non-finite, signaling the caller's parameters are unstable.
type NumericInstabilityError struct {
	TrackID int
}

func (e *NumericInstabilityError) Error() string {
	return fmt.Sprintf("track: numeric instability in track %d", e.TrackID)
}
