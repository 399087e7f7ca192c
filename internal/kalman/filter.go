// Package kalman implements a generic linear Kalman filter over dense
// gonum matrices.
//
// This is adapted from a Go port of filterpy.kalman.KalmanFilter
// (https://github.com/rlabbe/filterpy), trimmed to the predict/update pair
// this module actually drives and renamed to the tracking domain it serves.
package kalman

import (
	"gonum.org/v1/gonum/mat"
)

// Filter is a linear Kalman filter with state dimension DimX and
// measurement dimension DimZ. The zero value is not usable; construct with
// New.
type Filter struct {
	DimX int
	DimZ int

	X *mat.Dense // state vector (DimX, 1)
	P *mat.Dense // state covariance (DimX, DimX)
	F *mat.Dense // state transition (DimX, DimX)
	H *mat.Dense // measurement matrix (DimZ, DimX)
	R *mat.Dense // measurement noise covariance (DimZ, DimZ)
	Q *mat.Dense // process noise covariance (DimX, DimX)
}

// New creates a Filter with F, H set to identity-shaped zero matrices and
// R, Q, P left at zero. Callers populate F/H/R/Q/P/X before the first
// Predict/Update.
func New(dimX, dimZ int) *Filter {
	return &Filter{
		DimX: dimX,
		DimZ: dimZ,
		X:    mat.NewDense(dimX, 1, nil),
		P:    mat.NewDense(dimX, dimX, nil),
		F:    mat.NewDense(dimX, dimX, nil),
		H:    mat.NewDense(dimZ, dimX, nil),
		R:    mat.NewDense(dimZ, dimZ, nil),
		Q:    mat.NewDense(dimX, dimX, nil),
	}
}

// Predict advances the state by F and the covariance by F P Fᵀ + Q.
func (kf *Filter) Predict() {
	var xPrior mat.Dense
	xPrior.Mul(kf.F, kf.X)
	kf.X.Copy(&xPrior)

	var fp mat.Dense
	fp.Mul(kf.F, kf.P)
	var pPrior mat.Dense
	pPrior.Mul(&fp, kf.F.T())
	kf.P.Add(&pPrior, kf.Q)
}

// Update incorporates measurement z using the filter's H and R, blending it
// into the state estimate via the Kalman gain and applying the standard
// P = (I - K H) P covariance update.
func (kf *Filter) Update(z *mat.Dense) {
	// y = z - H x  (innovation)
	var hx mat.Dense
	hx.Mul(kf.H, kf.X)
	var y mat.Dense
	y.Sub(z, &hx)

	// S = H P Hᵀ + R  (innovation covariance)
	var hp mat.Dense
	hp.Mul(kf.H, kf.P)
	var s mat.Dense
	s.Mul(&hp, kf.H.T())
	s.Add(&s, kf.R)

	var sInv mat.Dense
	if err := sInv.Inverse(&s); err != nil {
		// Singular (or near-singular) innovation covariance: skip this
		// update rather than propagate garbage. The state and covariance
		// are left as they were after the last predict.
		return
	}

	// K = P Hᵀ S^-1
	var pht mat.Dense
	pht.Mul(kf.P, kf.H.T())
	var k mat.Dense
	k.Mul(&pht, &sInv)

	// x = x + K y
	var ky mat.Dense
	ky.Mul(&k, &y)
	kf.X.Add(kf.X, &ky)

	// P = (I - K H) P
	identity := mat.NewDiagDense(kf.DimX, nil)
	for i := 0; i < kf.DimX; i++ {
		identity.SetDiag(i, 1.0)
	}
	var kh mat.Dense
	kh.Mul(&k, kf.H)
	var iMinusKH mat.Dense
	iMinusKH.Sub(identity, &kh)
	var newP mat.Dense
	newP.Mul(&iMinusKH, kf.P)
	kf.P.Copy(&newP)
}

// IsFinite reports whether every entry of the covariance matrix is finite
// and no larger in magnitude than 1e300 (NaN, ±Inf and larger magnitudes
// all count as non-finite). A non-finite entry after predict or update indicates the filter has
// become numerically unstable for the parameters it was configured with.
func (kf *Filter) IsFinite() bool {
	rows, cols := kf.P.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := kf.P.At(i, j)
			if v != v || v > maxFinite || v < -maxFinite {
				return false
			}
		}
	}
	return true
}

const maxFinite = 1e300
