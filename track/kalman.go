package track

import (
	"gonum.org/v1/gonum/mat"

	"github.com/tracklab/trackbench/geom"
	"github.com/tracklab/trackbench/internal/kalman"
)

// Stage is a KalmanTrack's lifecycle stage.
type Stage int

const (
	// Initialized is the stage a track is born into. It has not yet
	// accumulated enough hits to be published.
	Initialized Stage = iota
	// Confirmed is the stage reached once hits >= min_hits. A track never
	// demotes back to Initialized.
	Confirmed
)

func (s Stage) String() string {
	if s == Confirmed {
		return "CONFIRMED"
	}
	return "INITIALIZED"
}

const positionHistoryCap = 5

// dimX is the constant-acceleration state dimension: position, velocity,
// acceleration in each of x, y, z.
const dimX = 9

// dimZ is the measurement dimension: a single (x, y, z) position.
const dimZ = 3

// KalmanTrack is one track's constant-acceleration Kalman filter plus the
// lifecycle counters the Tracker's state machine drives.
//
// Grounded on the teacher's tracked_object.go (TrackedObject, the
// hit/age/counter bookkeeping and Hit/TrackerStep pattern) with the filter
// itself reconfigured for the 9-state constant-acceleration model this
// module's domain requires instead of norfair's configurable order.
type KalmanTrack struct {
	ID int

	Stage Stage

	Age               int
	Hits              int
	HitStreak         int
	TimeSinceUpdate   int
	ConsecutiveMisses int

	positionHistory []geom.Point3

	filter *kalman.Filter
}

// newKalmanTrack builds a KalmanTrack seeded at position p, zero velocity
// and acceleration, per spec §4.A's initialization.
func newKalmanTrack(id int, p geom.Point3, s Settings) *KalmanTrack {
	f := kalman.New(dimX, dimZ)

	identityBlock3(f.F, 0, 0, 1)
	identityBlock3(f.F, 0, 3, 1)
	identityBlock3(f.F, 0, 6, 0.5)
	identityBlock3(f.F, 3, 3, 1)
	identityBlock3(f.F, 3, 6, 1)
	identityBlock3(f.F, 6, 6, 1)

	identityBlock3(f.H, 0, 0, 1)

	scaleIdentity(f.R, s.MeasurementNoise)
	scaleIdentity(f.Q, s.ProcessNoise)
	scaleIdentity(f.P, s.Covariance)

	f.X.Set(0, 0, p.X)
	f.X.Set(1, 0, p.Y)
	f.X.Set(2, 0, p.Z)

	return &KalmanTrack{
		ID:                id,
		Stage:             Initialized,
		Age:               0,
		Hits:              1,
		HitStreak:         0,
		TimeSinceUpdate:   0,
		ConsecutiveMisses: 0,
		positionHistory:   []geom.Point3{p},
		filter:            f,
	}
}

// identityBlock3 writes v·I₃ into the 3x3 block of m starting at (row, col).
func identityBlock3(m *mat.Dense, row, col int, v float64) {
	for i := 0; i < 3; i++ {
		m.Set(row+i, col+i, v)
	}
}

func scaleIdentity(m *mat.Dense, v float64) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		m.Set(i, i, v)
	}
}

// Predict advances the filter by one frame and returns the predicted
// position (the first three components of the state vector).
func (t *KalmanTrack) Predict() geom.Point3 {
	t.filter.Predict()
	t.Age++
	t.ConsecutiveMisses++
	return t.Position()
}

// Update incorporates a matched detection.
func (t *KalmanTrack) Update(p geom.Point3) {
	z := mat.NewDense(dimZ, 1, []float64{p.X, p.Y, p.Z})
	t.filter.Update(z)

	t.TimeSinceUpdate = 0
	t.Hits++
	t.HitStreak++
	t.ConsecutiveMisses = 0

	t.positionHistory = append(t.positionHistory, p)
	if len(t.positionHistory) > positionHistoryCap {
		t.positionHistory = t.positionHistory[len(t.positionHistory)-positionHistoryCap:]
	}
}

// Position returns the track's current raw position (the filter's position
// block), used for association cost computation.
func (t *KalmanTrack) Position() geom.Point3 {
	return geom.Point3{X: t.filter.X.At(0, 0), Y: t.filter.X.At(1, 0), Z: t.filter.X.At(2, 0)}
}

// Velocity returns the filter's velocity block.
func (t *KalmanTrack) Velocity() geom.Point3 {
	return geom.Point3{X: t.filter.X.At(3, 0), Y: t.filter.X.At(4, 0), Z: t.filter.X.At(5, 0)}
}

// Acceleration returns the filter's acceleration block.
func (t *KalmanTrack) Acceleration() geom.Point3 {
	return geom.Point3{X: t.filter.X.At(6, 0), Y: t.filter.X.At(7, 0), Z: t.filter.X.At(8, 0)}
}

// SmoothedPosition returns the arithmetic mean of the track's position
// history, used for published output instead of the raw filter position.
func (t *KalmanTrack) SmoothedPosition() geom.Point3 {
	return geom.Mean(t.positionHistory)
}

// IsFinite reports whether the underlying filter's covariance remains
// numerically stable.
func (t *KalmanTrack) IsFinite() bool {
	return t.filter.IsFinite()
}
