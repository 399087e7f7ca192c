package clipio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/tracklab/trackbench/geom"
	"github.com/tracklab/trackbench/internal/testutil"
	"github.com/tracklab/trackbench/track"
)

func TestLoadDetections_ParsesFrames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "detections.json")
	content := `{
		"1": {"tracks": [{"x": 1.0, "y": 2.0, "z": 3.0}]},
		"3": {"tracks": []}
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	dets, err := LoadDetections(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(dets[1]) != 1 || dets[1][0] != (geom.Point3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("unexpected frame 1: %v", dets[1])
	}
	if len(dets[3]) != 0 {
		t.Fatalf("expected empty frame 3, got %v", dets[3])
	}
	if _, ok := dets[2]; ok {
		t.Fatalf("expected frame 2 to be absent, not present-empty")
	}
}

func TestLoadDetections_MalformedFrameKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(path, []byte(`{"not-a-number": {"tracks": []}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDetections(path); err == nil {
		t.Fatalf("expected malformed input error")
	}
}

func TestLoadReferences_RequiresID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "refs.json")
	if err := os.WriteFile(path, []byte(`{"1": {"tracks": [{"x": 0, "y": 0, "z": 0}]}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReferences(path); err == nil {
		t.Fatalf("expected error for reference entry missing id")
	}
}

func TestSaveTracked_AndParameters_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	trackedPath := filepath.Join(dir, "tracked.json")
	pubs := map[int][]track.Published{
		1: {{ID: 0, Position: geom.Point3{X: 1, Y: 2, Z: 3}, Velocity: geom.Point3{X: 0.1}, Acceleration: geom.Point3{}}},
	}
	if err := SaveTracked(trackedPath, pubs); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadDetections(trackedPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded[1][0].X != 1 {
		t.Fatalf("expected round-tripped x=1, got %v", loaded[1])
	}

	paramsPath := filepath.Join(dir, "params.json")
	want := track.Settings{
		MeasurementNoise: 0.1, ProcessNoise: 0.01, Covariance: 1,
		DistanceThreshold: 2, MaxAge: 3, MinHits: 3, MaxConsecutiveMisses: 5,
	}
	if err := SaveParameters(paramsPath, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadParameters(paramsPath)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("expected round-tripped settings %+v, got %+v", want, got)
	}
}

func TestSaveParameters_MatchesGoldenFile(t *testing.T) {
	dir := t.TempDir()
	goldenPath := filepath.Join(dir, "golden.json")
	golden := `{
		"measurement_noise": 0.1,
		"process_noise": 0.01,
		"covariance": 1,
		"distance_threshold": 2,
		"max_age": 3,
		"min_hits": 3,
		"max_consecutive_misses": 5
	}`
	if err := os.WriteFile(goldenPath, []byte(golden), 0o644); err != nil {
		t.Fatal(err)
	}

	outPath := filepath.Join(dir, "out.json")
	settings := track.Settings{
		MeasurementNoise: 0.1, ProcessNoise: 0.01, Covariance: 1,
		DistanceThreshold: 2, MaxAge: 3, MinHits: 3, MaxConsecutiveMisses: 5,
	}
	if err := SaveParameters(outPath, settings); err != nil {
		t.Fatal(err)
	}

	testutil.CompareJSON(t, outPath, goldenPath, 1e-9)
}
