package nav

import (
	"math"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
)

// Quantization bucket counts. These are semantic (the clock-face metaphor
// and the haptic motor's resolution), not tunable.
const (
	ClockBuckets  = 12
	HapticBuckets = 8
)

// Resolver computes quantized turn instructions from the current pose and
// the next keypoint.
type Resolver struct {
	arrivalRadius  float64
	slopeThreshold float64
}

// NewResolver builds a Resolver from tuning config.
func NewResolver(cfg *config.TuningConfig) *Resolver {
	return &Resolver{
		arrivalRadius:  cfg.GetArrivalRadiusMeters(),
		slopeThreshold: cfg.GetSlopeThreshold(),
	}
}

// Resolve computes the instruction for reaching next from current.
//
// The bearing to the keypoint is compared against the user's inferred travel
// heading (the device yaw corrected by headingOffset), so the instruction
// is relative to the direction of walking, not to where the device points.
//
// prev, when non-nil, is the pose of the previously reached keypoint. It is
// only consulted when current and next are horizontally coincident: the
// incoming path segment then supplies the reference bearing instead of a
// zero-length vector (degenerate-geometry fallback).
//
// Arrival is distance-only: Target is TargetAtTarget exactly when the planar
// distance is within the arrival radius. No angle-based early termination.
func (r *Resolver) Resolve(current geom.Pose, next Keypoint, prev *geom.Pose, headingOffset float64) DirectionInstruction {
	planar := geom.PlanarDistance(current.Transform, next.Pose.Transform)

	var bearing float64
	switch {
	case planar >= minSegmentMeters:
		bearing = geom.Bearing(current.Transform, next.Pose.Transform)
	case prev != nil:
		bearing = geom.Bearing(prev.Transform, next.Pose.Transform)
	default:
		// Standing on the keypoint with no history: report straight ahead.
		bearing = geom.NormalizeAngle(current.Yaw() + headingOffset)
	}

	travelHeading := geom.NormalizeAngle(current.Yaw() + headingOffset)
	angleDiff := geom.AngularDiff(bearing, travelHeading)

	inst := DirectionInstruction{
		DistanceMeters:   math.Round(planar*10) / 10,
		AngleDiffRadians: angleDiff,
		ClockDirection:   quantize(angleDiff, ClockBuckets),
		HapticDirection:  quantize(angleDiff, HapticBuckets),
		Target:           TargetApproaching,
		Slope:            SlopeNone,
		AnnounceDistance: true,
	}

	if planar < r.arrivalRadius {
		inst.Target = TargetAtTarget
	}

	// A steep rise or drop replaces the distance announcement with an
	// ascend/descend qualifier.
	if planar >= minSegmentMeters {
		dz := next.Pose.Z() - current.Z()
		if math.Abs(dz)/planar > r.slopeThreshold {
			if dz > 0 {
				inst.Slope = SlopeAscending
			} else {
				inst.Slope = SlopeDescending
			}
			inst.AnnounceDistance = false
		}
	}

	return inst
}

// quantize maps a signed angle difference in [-π, π) onto clock-style
// buckets: 0 is straight ahead, buckets increase clockwise (to the user's
// right). Bucket 0 spans ±(π/buckets) around straight ahead.
func quantize(angleDiff float64, buckets int) int {
	width := 2 * math.Pi / float64(buckets)
	// Positive angleDiff is anticlockwise (left of travel); clock positions
	// run clockwise, hence the negation.
	b := int(math.Round(-geom.NormalizeAngle(angleDiff) / width))
	return ((b % buckets) + buckets) % buckets
}
