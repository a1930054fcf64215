package nav

import (
	"math"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
)

// Aligner computes the rigid transforms that re-anchor a resumed route's
// coordinate frame onto the live session. Both alignment paths preserve the
// gravity axis exactly; only yaw and horizontal translation are corrected.
type Aligner struct {
	minSegment float64
}

// NewAligner builds an Aligner from tuning config.
func NewAligner(cfg *config.TuningConfig) *Aligner {
	return &Aligner{minSegment: cfg.GetSoftAlignMinSegment()}
}

// SoftAlignment derives a stable, pre-leveled alignment pose from up to two
// reference keypoint poses.
//
// With a single reference (second nil) or two references closer than the
// minimum segment length, the result is the leveled first pose. Otherwise
// the yaw comes from the bearing between the two references, which stays
// stable even when the recorded orientation was noisy. reversed flips the
// result 180° about the vertical axis for backward traversal.
func (a *Aligner) SoftAlignment(first geom.Pose, second *geom.Pose, reversed bool) geom.Pose {
	var yaw float64
	if second == nil || geom.PlanarDistance(first.Transform, second.Transform) < a.minSegment {
		yaw = first.Yaw()
	} else {
		yaw = geom.Bearing(first.Transform, second.Transform)
	}
	if reversed {
		yaw = geom.NormalizeAngle(yaw + math.Pi)
	}
	return geom.Pose{
		Transform: geom.FromYaw(yaw, first.X(), first.Y(), first.Z()),
		UnixNanos: first.UnixNanos,
	}
}

// HardAlignmentTransform computes the corrective transform that re-origins
// the live coordinate frame onto the route's frame:
//
//	leveled(camera) · leveled(landmark)⁻¹
//
// Soft landmarks are stored pre-leveled (isSoft true) and are used as-is;
// hard landmark poses are leveled here. Both factors are pure
// yaw-plus-translation, so the product preserves the vertical axis exactly.
func (a *Aligner) HardAlignmentTransform(camera, landmark geom.Pose, isSoft bool) geom.Transform {
	lm := landmark.Transform
	if !isSoft {
		lm = lm.Level()
	}
	return camera.Transform.Level().Mul(lm.Inverse())
}
