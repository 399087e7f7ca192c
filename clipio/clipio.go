// Package clipio loads and saves the JSON file formats described in spec
// §6: per-frame detection/reference files, tracked-output files, and the
// TrackerSettings parameters file.
//
// Grounded on the teacher's metrics.go (PredictionsTextFile/
// DetectionFileParser read/write a MOTChallenge text format for the same
// kind of per-frame object data this module persists), reworked to this
// module's JSON shape since nothing downstream consumes MOTChallenge CSV.
// Uses the standard library encoding/json rather than a third-party
// decoder: no example repo in the corpus pulls in a JSON library beyond
// stdlib, and the format here is a plain nested object with no need for
// streaming, custom tags, or schema validation.
package clipio

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/tracklab/trackbench/geom"
	"github.com/tracklab/trackbench/track"
)

// rawTrackEntry is the wire shape of one entry under a frame's "tracks"
// list, covering both detection/reference files (id optional) and tracked
// output files (full kinematic state).
type rawTrackEntry struct {
	ID *int    `json:"id,omitempty"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	Z  float64 `json:"z"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
	VZ float64 `json:"vz"`
	AX float64 `json:"ax"`
	AY float64 `json:"ay"`
	AZ float64 `json:"az"`
}

type rawFrame struct {
	Tracks []rawTrackEntry `json:"tracks"`
}

// MalformedInputError wraps a JSON decoding or shape failure with the file
// path that produced it.
type MalformedInputError struct {
	Path string
	Err  error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("clipio: malformed input %q: %v", e.Path, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// LoadDetections reads a detection file (or any file of the same shape):
// frame index (as a string key, >= 1) to an unordered list of 3D points.
// Ids, if present in the file, are ignored — detections are anonymous and
// identified positionally per frame. LoadReferences and LoadTracked read
// the same shape but keep each entry's id.
func LoadDetections(path string) (map[int][]geom.Point3, error) {
	raw, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]geom.Point3, len(raw))
	for frameKey, frame := range raw {
		frameIdx, err := strconv.Atoi(frameKey)
		if err != nil {
			return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("frame key %q is not an integer", frameKey)}
		}
		points := make([]geom.Point3, len(frame.Tracks))
		for i, e := range frame.Tracks {
			points[i] = geom.Point3{X: e.X, Y: e.Y, Z: e.Z}
		}
		out[frameIdx] = points
	}
	return out, nil
}

// ReferenceEntry is one labeled reference point for evaluation, which
// (unlike a bare detection) carries a stable id.
type ReferenceEntry struct {
	ID       int
	Position geom.Point3
}

// LoadReferences reads a reference file the same way as LoadDetections but
// retains each entry's id, required since the Evaluator matches tracks to
// references by id continuity across frames.
func LoadReferences(path string) (map[int][]ReferenceEntry, error) {
	raw, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]ReferenceEntry, len(raw))
	for frameKey, frame := range raw {
		frameIdx, err := strconv.Atoi(frameKey)
		if err != nil {
			return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("frame key %q is not an integer", frameKey)}
		}
		entries := make([]ReferenceEntry, len(frame.Tracks))
		for i, e := range frame.Tracks {
			if e.ID == nil {
				return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("reference entry missing required id in frame %q", frameKey)}
			}
			entries[i] = ReferenceEntry{ID: *e.ID, Position: geom.Point3{X: e.X, Y: e.Y, Z: e.Z}}
		}
		out[frameIdx] = entries
	}
	return out, nil
}

// LoadTracked reads a tracked-output file written by SaveTracked, keeping
// each entry's id. The Evaluator needs the tracker's own ids (not
// positional indices) to detect id switches across frames.
func LoadTracked(path string) (map[int][]ReferenceEntry, error) {
	raw, err := loadRaw(path)
	if err != nil {
		return nil, err
	}
	out := make(map[int][]ReferenceEntry, len(raw))
	for frameKey, frame := range raw {
		frameIdx, err := strconv.Atoi(frameKey)
		if err != nil {
			return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("frame key %q is not an integer", frameKey)}
		}
		entries := make([]ReferenceEntry, len(frame.Tracks))
		for i, e := range frame.Tracks {
			if e.ID == nil {
				return nil, &MalformedInputError{Path: path, Err: fmt.Errorf("tracked entry missing required id in frame %q", frameKey)}
			}
			entries[i] = ReferenceEntry{ID: *e.ID, Position: geom.Point3{X: e.X, Y: e.Y, Z: e.Z}}
		}
		out[frameIdx] = entries
	}
	return out, nil
}

func loadRaw(path string) (map[string]rawFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}
	var raw map[string]rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &MalformedInputError{Path: path, Err: err}
	}
	return raw, nil
}

// SaveTracked writes a tracked-output file: per frame, the CONFIRMED
// tracks' {id, x, y, z, vx, vy, vz, ax, ay, az}, per spec §6.
func SaveTracked(path string, tracked map[int][]track.Published) error {
	out := make(map[string]rawFrame, len(tracked))
	for frame, pubs := range tracked {
		entries := make([]rawTrackEntry, len(pubs))
		for i, p := range pubs {
			id := p.ID
			entries[i] = rawTrackEntry{
				ID: &id,
				X:  p.Position.X, Y: p.Position.Y, Z: p.Position.Z,
				VX: p.Velocity.X, VY: p.Velocity.Y, VZ: p.Velocity.Z,
				AX: p.Acceleration.X, AY: p.Acceleration.Y, AZ: p.Acceleration.Z,
			}
		}
		out[strconv.Itoa(frame)] = rawFrame{Tracks: entries}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("clipio: marshal tracked output: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("clipio: write %q: %w", path, err)
	}
	return nil
}

// LoadParameters reads a parameters file into a track.Settings, keyed
// exactly as in spec §4.E.
func LoadParameters(path string) (track.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return track.Settings{}, &MalformedInputError{Path: path, Err: err}
	}
	var raw struct {
		MeasurementNoise     float64 `json:"measurement_noise"`
		ProcessNoise         float64 `json:"process_noise"`
		Covariance           float64 `json:"covariance"`
		DistanceThreshold    float64 `json:"distance_threshold"`
		MaxAge               int     `json:"max_age"`
		MinHits              int     `json:"min_hits"`
		MaxConsecutiveMisses int     `json:"max_consecutive_misses"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return track.Settings{}, &MalformedInputError{Path: path, Err: err}
	}
	return track.Settings{
		MeasurementNoise:     raw.MeasurementNoise,
		ProcessNoise:         raw.ProcessNoise,
		Covariance:           raw.Covariance,
		DistanceThreshold:    raw.DistanceThreshold,
		MaxAge:               raw.MaxAge,
		MinHits:              raw.MinHits,
		MaxConsecutiveMisses: raw.MaxConsecutiveMisses,
	}, nil
}

// SaveParameters writes settings to path in the same shape LoadParameters
// reads, used to persist the Optimizer's best trial.
func SaveParameters(path string, settings track.Settings) error {
	raw := struct {
		MeasurementNoise     float64 `json:"measurement_noise"`
		ProcessNoise         float64 `json:"process_noise"`
		Covariance           float64 `json:"covariance"`
		DistanceThreshold    float64 `json:"distance_threshold"`
		MaxAge               int     `json:"max_age"`
		MinHits              int     `json:"min_hits"`
		MaxConsecutiveMisses int     `json:"max_consecutive_misses"`
	}{
		settings.MeasurementNoise,
		settings.ProcessNoise,
		settings.Covariance,
		settings.DistanceThreshold,
		settings.MaxAge,
		settings.MinHits,
		settings.MaxConsecutiveMisses,
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("clipio: marshal parameters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("clipio: write %q: %w", path, err)
	}
	return nil
}

// SortedFrameKeys returns the numeric frame indices present in m, in
// ascending order, used by callers that must replay frames in order.
func SortedFrameKeys[T any](m map[int]T) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
