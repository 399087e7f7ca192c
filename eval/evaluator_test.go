package eval

import (
	"math"
	"testing"

	"github.com/tracklab/trackbench/geom"
)

func TestEvaluate_PerfectMatch(t *testing.T) {
	refs := map[int]Frame{
		1: {{ID: 0, Position: geom.Point3{X: 0, Y: 0, Z: 0}}},
		2: {{ID: 0, Position: geom.Point3{X: 1, Y: 0, Z: 0}}},
	}
	tracked := map[int]Frame{
		1: {{ID: 7, Position: geom.Point3{X: 0, Y: 0, Z: 0}}},
		2: {{ID: 7, Position: geom.Point3{X: 1, Y: 0, Z: 0}}},
	}

	stats := Evaluate(refs, tracked)

	rs := stats.References[0]
	if rs == nil {
		t.Fatalf("expected reference 0 to be tracked")
	}
	if rs.TrackedPercentage != 100 {
		t.Fatalf("expected 100%% tracked, got %f", rs.TrackedPercentage)
	}
	if rs.IDSwitches != 1 {
		t.Fatalf("expected exactly 1 id switch (the initial assignment), got %d", rs.IDSwitches)
	}
	if stats.FalsePositives != 0 {
		t.Fatalf("expected 0 false positives, got %d", stats.FalsePositives)
	}
}

// Evaluator idempotence: running the Evaluator twice on the same inputs
// produces identical statistics.
func TestEvaluate_Idempotent(t *testing.T) {
	refs := map[int]Frame{
		1: {{ID: 0, Position: geom.Point3{X: 0, Y: 0, Z: 0}}},
	}
	tracked := map[int]Frame{
		1: {{ID: 5, Position: geom.Point3{X: 0, Y: 0, Z: 0}}},
	}

	a := Evaluate(refs, tracked)
	b := Evaluate(refs, tracked)

	if a.References[0].TrackedPercentage != b.References[0].TrackedPercentage {
		t.Fatalf("expected identical tracked_percentage across runs")
	}
	if a.FalsePositives != b.FalsePositives {
		t.Fatalf("expected identical false_positives across runs")
	}
}

// False positive scenario (spec §8.4): one persistent point at the origin
// matched by a track, plus an unmatched jitter track every frame.
func TestEvaluate_FalsePositiveScenario(t *testing.T) {
	refs := map[int]Frame{}
	tracked := map[int]Frame{}
	for frame := 1; frame <= 10; frame++ {
		refs[frame] = Frame{{ID: 0, Position: geom.Point3{X: 0, Y: 0, Z: 0}}}
		tracked[frame] = Frame{
			{ID: 1, Position: geom.Point3{X: 0, Y: 0, Z: 0}},
			{ID: 2, Position: geom.Point3{X: 20, Y: 20, Z: 20}},
		}
	}

	stats := Evaluate(refs, tracked)

	rs := stats.References[0]
	if math.Abs(rs.TrackedPercentage-100) > 0.01 {
		t.Fatalf("expected tracked_percentage ~= 100, got %f", rs.TrackedPercentage)
	}
	if rs.IDSwitches != 1 {
		t.Fatalf("expected 1 id switch, got %d", rs.IDSwitches)
	}
	if stats.FalsePositives < 8 {
		t.Fatalf("expected false_positives >= 8, got %d", stats.FalsePositives)
	}
}

// ID switch detection: a reference's matched track changes partway through
// the clip (tracks stay put while two references swap position), which
// must increment id_switches for both affected references — once for the
// initial assignment, once for the swap.
func TestEvaluate_IDSwitchDetection(t *testing.T) {
	refs := map[int]Frame{}
	tracked := map[int]Frame{}
	for frame := 1; frame <= 4; frame++ {
		refs[frame] = Frame{
			{ID: 0, Position: geom.Point3{X: 0, Y: 0, Z: 0}},
			{ID: 1, Position: geom.Point3{X: 50, Y: 0, Z: 0}},
		}
		tracked[frame] = Frame{
			{ID: 10, Position: geom.Point3{X: 0, Y: 0, Z: 0}},
			{ID: 11, Position: geom.Point3{X: 50, Y: 0, Z: 0}},
		}
	}
	for frame := 5; frame <= 8; frame++ {
		// References swap positions; tracks stay put, so each reference is
		// now matched by the other track.
		refs[frame] = Frame{
			{ID: 0, Position: geom.Point3{X: 50, Y: 0, Z: 0}},
			{ID: 1, Position: geom.Point3{X: 0, Y: 0, Z: 0}},
		}
		tracked[frame] = Frame{
			{ID: 10, Position: geom.Point3{X: 0, Y: 0, Z: 0}},
			{ID: 11, Position: geom.Point3{X: 50, Y: 0, Z: 0}},
		}
	}

	stats := Evaluate(refs, tracked)

	if stats.References[0].IDSwitches != 2 {
		t.Fatalf("expected reference 0 to record 2 id switches, got %d", stats.References[0].IDSwitches)
	}
	if stats.References[1].IDSwitches != 2 {
		t.Fatalf("expected reference 1 to record 2 id switches, got %d", stats.References[1].IDSwitches)
	}
}

func TestEvaluate_EmptyReferences_LossUndefined(t *testing.T) {
	stats := Evaluate(map[int]Frame{}, map[int]Frame{1: {{ID: 0, Position: geom.Point3{}}}})
	if len(stats.References) != 0 {
		t.Fatalf("expected no references")
	}
	_, err := stats.Loss()
	if err == nil {
		t.Fatalf("expected EmptyReferencesError")
	}
	if _, ok := err.(*EmptyReferencesError); !ok {
		t.Fatalf("expected *EmptyReferencesError, got %T", err)
	}
}

func TestStatistics_Loss_Computation(t *testing.T) {
	stats := &Statistics{
		References: map[int]*ReferenceStats{
			0: {TrackedPercentage: 100, IDSwitches: 1},
			1: {TrackedPercentage: 50, IDSwitches: 3},
		},
		FalsePositives: 2,
	}
	loss, err := stats.Loss()
	if err != nil {
		t.Fatal(err)
	}
	// mean(tracked_percentage) = 75, mean(id_switches) = 2, fp = 2
	want := alphaTrackedPercentage*75 + betaIDSwitches*2 + gammaFalsePositives*2
	if math.Abs(loss-want) > 1e-9 {
		t.Fatalf("expected loss %f, got %f", want, loss)
	}
}
