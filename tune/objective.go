// Package tune drives the black-box parameter search: it eager-loads a
// batch of clips, evaluates a proposed track.Settings by running a fresh
// Tracker over each clip and scoring the result with eval.Evaluate, and
// hands the resulting losses to a pluggable search Strategy.
//
// Grounded on the teacher's filter.go Filter/FilterFactory strategy-
// interface pair (a factory that manufactures the thing under test from a
// small parameter set, decoupled from what drives it), reworked here into
// a Strategy interface (suggest/evaluate/observe) replacing the original
// Python tool's direct Optuna coupling — the pack carries no Bayesian
// optimization library, so the driver is written against an interface any
// search algorithm can implement, with a random-search implementation
// built on the gonum module already in the dependency graph.
package tune

import (
	"fmt"
	"math"
	"sync"

	"github.com/tracklab/trackbench/clipio"
	"github.com/tracklab/trackbench/clipset"
	"github.com/tracklab/trackbench/eval"
	"github.com/tracklab/trackbench/geom"
	"github.com/tracklab/trackbench/track"
)

// loadedClip holds one clip's eagerly-loaded detections and references,
// keyed by frame index, plus the ordered frame sequence to replay.
type loadedClip struct {
	name       string
	frames     []int
	detections map[int][]geom.Point3
	references map[int][]clipio.ReferenceEntry
}

// Objective loads a fixed set of (reference, detection) clip pairs once,
// then scores proposed TrackerSettings against all of them.
type Objective struct {
	clips []loadedClip
}

// NewObjective eager-loads every clip named in the manifest at
// manifestPath, per spec §4.D.
func NewObjective(manifestPath string) (*Objective, error) {
	manifest, err := clipset.Load(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("tune: load manifest: %w", err)
	}

	o := &Objective{clips: make([]loadedClip, 0, len(manifest.Clips))}
	for _, c := range manifest.Clips {
		detections, err := clipio.LoadDetections(c.DetectionsPath)
		if err != nil {
			return nil, fmt.Errorf("tune: clip %q: %w", c.Name, err)
		}
		references, err := clipio.LoadReferences(c.ReferencesPath)
		if err != nil {
			return nil, fmt.Errorf("tune: clip %q: %w", c.Name, err)
		}
		frames := make([]int, c.FrameCount)
		for i := range frames {
			frames[i] = i + 1
		}
		o.clips = append(o.clips, loadedClip{
			name:       c.Name,
			frames:     frames,
			detections: detections,
			references: references,
		})
	}
	return o, nil
}

// Evaluate runs settings against every loaded clip concurrently (one
// Tracker per clip, TrackerSettings shared read-only per spec §5) and
// returns the arithmetic mean of the per-clip losses. A NumericInstability
// or EmptyReferences condition on any clip contributes +Inf to that clip's
// loss rather than aborting the others, per spec §7's propagation policy.
func (o *Objective) Evaluate(settings track.Settings) (float64, error) {
	if err := settings.Validate(); err != nil {
		return 0, err
	}
	if len(o.clips) == 0 {
		return 0, &EmptyManifestError{}
	}

	losses := make([]float64, len(o.clips))
	var wg sync.WaitGroup
	for i, clip := range o.clips {
		wg.Add(1)
		go func(i int, clip loadedClip) {
			defer wg.Done()
			losses[i] = evaluateClip(clip, settings)
		}(i, clip)
	}
	wg.Wait()

	sum := 0.0
	for _, l := range losses {
		sum += l
	}
	return sum / float64(len(losses)), nil
}

// EmptyManifestError is returned by Evaluate when the Objective's manifest
// named no clips, since a mean over zero losses is undefined rather than
// silently NaN.
type EmptyManifestError struct{}

func (e *EmptyManifestError) Error() string {
	return "tune: manifest contains no clips, mean loss is undefined"
}

func evaluateClip(clip loadedClip, settings track.Settings) float64 {
	tracker, err := track.New(settings)
	if err != nil {
		return math.Inf(1)
	}

	tracked := make(map[int][]track.Published, len(clip.frames))
	for _, frame := range clip.frames {
		out, err := tracker.Step(clip.detections[frame])
		if err != nil {
			// NumericInstability: fatal for the trial.
			return math.Inf(1)
		}
		tracked[frame] = out
	}

	refFrames := make(map[int]eval.Frame, len(clip.references))
	for frame, entries := range clip.references {
		obs := make(eval.Frame, len(entries))
		for i, e := range entries {
			obs[i] = eval.Observation{ID: e.ID, Position: e.Position}
		}
		refFrames[frame] = obs
	}
	trackedFrames := make(map[int]eval.Frame, len(tracked))
	for frame, pubs := range tracked {
		obs := make(eval.Frame, len(pubs))
		for i, p := range pubs {
			obs[i] = eval.Observation{ID: p.ID, Position: p.Position}
		}
		trackedFrames[frame] = obs
	}

	stats := eval.Evaluate(refFrames, trackedFrames)
	loss, err := stats.Loss()
	if err != nil {
		// EmptyReferences: fatal for the clip.
		return math.Inf(1)
	}
	return loss
}
