package kalman

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tracklab/trackbench/internal/testutil"
)

func TestNew_Dimensions(t *testing.T) {
	f := New(4, 2)
	if f.DimX != 4 || f.DimZ != 2 {
		t.Fatalf("expected dims 4,2 got %d,%d", f.DimX, f.DimZ)
	}
	rows, cols := f.X.Dims()
	if rows != 4 || cols != 1 {
		t.Fatalf("expected state shape (4,1), got (%d,%d)", rows, cols)
	}
}

// Predict with an identity transition and zero process noise must leave
// the state and covariance unchanged.
func TestPredict_IdentityNoOp(t *testing.T) {
	f := New(2, 1)
	for i := 0; i < 2; i++ {
		f.F.Set(i, i, 1)
		f.P.Set(i, i, 1)
	}
	f.X.Set(0, 0, 3)
	f.X.Set(1, 0, -2)

	f.Predict()

	testutil.AssertAlmostEqual(t, f.X.At(0, 0), 3, 1e-12, "x[0] after identity predict")
	testutil.AssertAlmostEqual(t, f.X.At(1, 0), -2, 1e-12, "x[1] after identity predict")
	testutil.AssertMatrixAlmostEqual(t, f.P, mat.NewDense(2, 2, []float64{1, 0, 0, 1}), 1e-12, "P after identity predict")
}

// Update should pull the state toward a perfectly observed measurement:
// with H = I and small R relative to P, the post-update estimate must be
// closer to z than the pre-update estimate was.
func TestUpdate_MovesTowardMeasurement(t *testing.T) {
	f := New(1, 1)
	f.F.Set(0, 0, 1)
	f.H.Set(0, 0, 1)
	f.P.Set(0, 0, 1)
	f.R.Set(0, 0, 0.01)
	f.X.Set(0, 0, 0)

	z := mat.NewDense(1, 1, []float64{10})
	f.Update(z)

	got := f.X.At(0, 0)
	if math.Abs(got-10) > 1 {
		t.Fatalf("expected estimate close to measurement 10 with small R, got %f", got)
	}
	if got <= 0 {
		t.Fatalf("expected estimate to move toward the measurement, got %f", got)
	}
}

// After an update, the covariance must shrink: posterior uncertainty is
// never larger than prior uncertainty for an observed state.
func TestUpdate_ShrinksCovariance(t *testing.T) {
	f := New(1, 1)
	f.F.Set(0, 0, 1)
	f.H.Set(0, 0, 1)
	f.P.Set(0, 0, 1)
	f.R.Set(0, 0, 0.5)

	before := f.P.At(0, 0)
	f.Update(mat.NewDense(1, 1, []float64{1}))
	after := f.P.At(0, 0)

	if after >= before {
		t.Fatalf("expected covariance to shrink after update, before=%f after=%f", before, after)
	}
}

func TestIsFinite(t *testing.T) {
	f := New(2, 1)
	if !f.IsFinite() {
		t.Fatalf("expected zero-valued covariance to be finite")
	}
	f.P.Set(0, 0, math.NaN())
	if f.IsFinite() {
		t.Fatalf("expected NaN covariance to be reported non-finite")
	}
}
