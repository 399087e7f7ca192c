package testutil

import (
	"encoding/json"
	"os"
	"testing"
)

// CompareJSON compares two JSON files with float tolerance, used by clipio's
// round-trip tests to check a saved file against a golden fixture without
// caring about key order or exact float formatting.
func CompareJSON(t *testing.T, actualPath, goldenPath string, floatTolerance float64) {
	t.Helper()

	actualData, err := os.ReadFile(actualPath)
	if err != nil {
		t.Fatalf("failed to read actual JSON: %v", err)
	}
	goldenData, err := os.ReadFile(goldenPath)
	if err != nil {
		t.Fatalf("failed to read golden JSON: %v", err)
	}

	var actual, golden interface{}
	if err := json.Unmarshal(actualData, &actual); err != nil {
		t.Fatalf("failed to parse actual JSON: %v", err)
	}
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		t.Fatalf("failed to parse golden JSON: %v", err)
	}

	if !jsonEqual(actual, golden, floatTolerance) {
		t.Errorf("JSON data mismatch")
		t.Logf("actual: %s", string(actualData))
		t.Logf("golden: %s", string(goldenData))
	}
}

// jsonEqual recursively compares JSON structures with float tolerance.
func jsonEqual(a, b interface{}, tolerance float64) bool {
	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		return AlmostEqual(av, bv, tolerance)

	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			if !jsonEqual(v, bv[k], tolerance) {
				return false
			}
		}
		return true

	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i], tolerance) {
				return false
			}
		}
		return true

	default:
		return a == b
	}
}
