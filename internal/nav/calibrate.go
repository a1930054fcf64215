package nav

import (
	"math"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/monitoring"
	"github.com/breadcrumb-labs/waypath/internal/ring"
)

// backwardCosThreshold flags a candidate offset that disagrees with the
// device heading by nearly 180°: the user is walking backward relative to
// device orientation and the candidate must be flipped by π. -√2/2 puts the
// cut at 135° either side.
var backwardCosThreshold = -math.Sqrt2 / 2

// Calibrator estimates the offset between the device heading and the actual
// direction of travel from a rolling window of pose samples.
//
// An estimate is only attempted on a full window that shows a clean straight
// walk: enough displacement, no turning (every heading near both endpoint
// headings), and no curvature (every position near the start→end chord).
// Anything else leaves the shared offset untouched, never reset to zero.
type Calibrator struct {
	headings  *ring.Buffer[float64]
	positions *ring.Buffer[[2]float64]

	minDistance      float64
	headingDeviation float64
	linearDeviation  float64

	apply         bool
	offset        float64
	lastCandidate float64
	hasCandidate  bool
}

// NewCalibrator builds a Calibrator from tuning config.
func NewCalibrator(cfg *config.TuningConfig) *Calibrator {
	window := cfg.GetCalibrationWindow()
	return &Calibrator{
		headings:         ring.New[float64](window),
		positions:        ring.New[[2]float64](window),
		minDistance:      cfg.GetCalibrationMinDistance(),
		headingDeviation: cfg.GetCalibrationHeadingDeviation(),
		linearDeviation:  cfg.GetCalibrationLinearDeviation(),
	}
}

// SetApplyEnabled controls whether accepted candidates update the offset.
// When disabled, candidates are still computed for diagnostics but discarded.
func (c *Calibrator) SetApplyEnabled(on bool) { c.apply = on }

// CurrentOffset returns the calibrated heading offset in radians.
func (c *Calibrator) CurrentOffset() float64 { return c.offset }

// LastCandidate returns the most recently computed candidate offset and
// whether any candidate has been computed this session.
func (c *Calibrator) LastCandidate() (float64, bool) {
	return c.lastCandidate, c.hasCandidate
}

// Reset clears the sample window and zeroes the offset. Called at the start
// of every recording and navigation session.
func (c *Calibrator) Reset() {
	c.headings.Reset()
	c.positions.Reset()
	c.offset = 0
	c.lastCandidate = 0
	c.hasCandidate = false
}

// Observe buffers one pose sample and attempts a re-estimate.
func (c *Calibrator) Observe(p geom.Pose) {
	c.headings.Push(p.Yaw())
	c.positions.Push([2]float64{p.X(), p.Y()})

	if !c.positions.Full() {
		return
	}

	start := c.positions.Oldest()
	end := c.positions.Newest()
	dx := end[0] - start[0]
	dy := end[1] - start[1]
	dist := math.Hypot(dx, dy)
	if dist < c.minDistance {
		return // near-stationary window
	}

	startH := c.headings.Oldest()
	endH := c.headings.Newest()
	for i := 0; i < c.headings.Len(); i++ {
		h := c.headings.At(i)
		if math.Abs(geom.AngularDiff(h, startH)) >= c.headingDeviation ||
			math.Abs(geom.AngularDiff(h, endH)) >= c.headingDeviation {
			return // turning path
		}
	}

	// Perpendicular deviation of every buffered position from the chord.
	for i := 0; i < c.positions.Len(); i++ {
		p := c.positions.At(i)
		cross := dx*(p[1]-start[1]) - dy*(p[0]-start[0])
		if math.Abs(cross)/dist >= c.linearDeviation {
			return // curved path
		}
	}

	movementAngle := math.Atan2(dy, dx)
	deviceHeading := geom.MeanAngle(startH, endH)
	candidate := geom.AngularDiff(movementAngle, deviceHeading)

	// Near-180° disagreement means the user walks backward relative to the
	// device; the offset is the supplement, not a half-turn.
	if math.Cos(candidate) < backwardCosThreshold {
		candidate = geom.NormalizeAngle(candidate + math.Pi)
	}

	c.lastCandidate = candidate
	c.hasCandidate = true

	if c.apply {
		c.offset = candidate
	} else {
		monitoring.Debugf("calibration candidate %.3f rad discarded (apply disabled)", candidate)
	}
}
