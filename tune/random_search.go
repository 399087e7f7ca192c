package tune

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tracklab/trackbench/track"
)

// RandomSearch is a Strategy that samples each parameter independently and
// uniformly from its bounded range (spec §4.E). It ignores Observe: random
// search does not adapt to prior trials, unlike a Bayesian or TPE
// strategy, but satisfies the same Strategy contract so Optimizer.Run
// cannot tell the difference.
type RandomSearch struct {
	src rand.Source
}

// NewRandomSearch builds a RandomSearch seeded by seed, so trial sequences
// are reproducible across runs.
func NewRandomSearch(seed uint64) *RandomSearch {
	return &RandomSearch{src: rand.NewSource(seed)}
}

func (r *RandomSearch) Suggest() track.Settings {
	return track.Settings{
		MeasurementNoise:     r.uniform(track.MeasurementNoiseBounds.Min, track.MeasurementNoiseBounds.Max),
		ProcessNoise:         r.uniform(track.ProcessNoiseBounds.Min, track.ProcessNoiseBounds.Max),
		Covariance:           r.uniform(track.CovarianceBounds.Min, track.CovarianceBounds.Max),
		DistanceThreshold:    r.uniform(track.DistanceThresholdBounds.Min, track.DistanceThresholdBounds.Max),
		MaxAge:               r.uniformInt(track.MaxAgeBounds.Min, track.MaxAgeBounds.Max),
		MinHits:              r.uniformInt(track.MinHitsBounds.Min, track.MinHitsBounds.Max),
		MaxConsecutiveMisses: r.uniformInt(track.MaxConsecutiveMissesBounds.Min, track.MaxConsecutiveMissesBounds.Max),
	}
}

// Observe is a no-op: random search never adapts to prior observations.
func (r *RandomSearch) Observe(track.Settings, float64) {}

func (r *RandomSearch) uniform(min, max float64) float64 {
	d := distuv.Uniform{Min: min, Max: max, Src: r.src}
	return d.Rand()
}

func (r *RandomSearch) uniformInt(min, max int) int {
	v := r.uniform(float64(min), float64(max+1))
	n := int(v)
	if n > max {
		n = max
	}
	return n
}
