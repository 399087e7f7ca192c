package track

import "fmt"

// Settings configures a Tracker and every KalmanTrack it creates. It is
// immutable once a Tracker has been built from it.
type Settings struct {
	// MeasurementNoise multiplies the measurement noise matrix R
	// (initialized as identity).
	MeasurementNoise float64
	// ProcessNoise multiplies the process noise matrix Q.
	ProcessNoise float64
	// Covariance multiplies the initial state covariance P.
	Covariance float64
	// DistanceThreshold is the maximum Euclidean gating distance for
	// association, in the coordinate space of Point3.
	DistanceThreshold float64
	// MaxAge is the number of frames of no update after which a track is
	// deleted (time-since-update criterion).
	MaxAge int
	// MinHits is the number of hits required to promote a track from
	// Initialized to Confirmed.
	MinHits int
	// MaxConsecutiveMisses is the number of consecutive predict-without-
	// update frames after which a track is deleted.
	MaxConsecutiveMisses int
}

// Bounds of the parameter box an Optimizer is allowed to search.
var (
	MeasurementNoiseBounds     = Bounds{Min: 0.001, Max: 10.0}
	ProcessNoiseBounds         = Bounds{Min: 0.0001, Max: 0.1}
	CovarianceBounds           = Bounds{Min: 0.001, Max: 20.0}
	DistanceThresholdBounds    = Bounds{Min: 0.01, Max: 20.0}
	MaxAgeBounds               = IntBounds{Min: 1, Max: 10}
	MinHitsBounds              = IntBounds{Min: 1, Max: 10}
	MaxConsecutiveMissesBounds = IntBounds{Min: 1, Max: 10}
)

// Bounds is an inclusive [Min, Max] range for a float parameter.
type Bounds struct{ Min, Max float64 }

// IntBounds is an inclusive [Min, Max] range for an integer parameter.
type IntBounds struct{ Min, Max int }

// Validate returns a ParameterOutOfRangeError if any field of s falls
// outside the bounded box an Optimizer is allowed to search (spec §4.E).
func (s Settings) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"measurement_noise", within(s.MeasurementNoise, MeasurementNoiseBounds)},
		{"process_noise", within(s.ProcessNoise, ProcessNoiseBounds)},
		{"covariance", within(s.Covariance, CovarianceBounds)},
		{"distance_threshold", within(s.DistanceThreshold, DistanceThresholdBounds)},
		{"max_age", withinInt(s.MaxAge, MaxAgeBounds)},
		{"min_hits", withinInt(s.MinHits, MinHitsBounds)},
		{"max_consecutive_misses", withinInt(s.MaxConsecutiveMisses, MaxConsecutiveMissesBounds)},
	}
	for _, c := range checks {
		if !c.ok {
			return &ParameterOutOfRangeError{Field: c.name}
		}
	}
	return nil
}

func within(v float64, b Bounds) bool {
	return v >= b.Min && v <= b.Max
}

func withinInt(v int, b IntBounds) bool {
	return v >= b.Min && v <= b.Max
}

// ParameterOutOfRangeError is returned by Settings.Validate (and, wrapped,
// by New) when a field falls outside its bounded box.
type ParameterOutOfRangeError struct {
	Field string
}

func (e *ParameterOutOfRangeError) Error() string {
	return fmt.Sprintf("track: parameter %q out of range", e.Field)
}
