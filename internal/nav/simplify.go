package nav

import (
	"math"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
)

// minSegmentMeters is the planar length below which consecutive crumbs are
// treated as coincident. Sub-centimetre segments carry no usable heading and
// would inject noise into the cumulative turn angle.
const minSegmentMeters = 0.01

// Simplifier reduces a dense crumb trail into an ordered sparse keypoint
// sequence. A keypoint is emitted whenever the cumulative heading change
// since the last emitted keypoint exceeds the mode's angular threshold; the
// trail endpoint is always emitted.
type Simplifier struct {
	standardThreshold   float64
	accessibleThreshold float64
}

// NewSimplifier builds a Simplifier from tuning config.
func NewSimplifier(cfg *config.TuningConfig) *Simplifier {
	return &Simplifier{
		standardThreshold:   cfg.GetSimplifyAngleStandard(),
		accessibleThreshold: cfg.GetSimplifyAngleAccessible(),
	}
}

// Threshold returns the angular threshold used for the given mode.
func (s *Simplifier) Threshold(mode Mode) float64 {
	if mode == ModeAccessible {
		return s.accessibleThreshold
	}
	return s.standardThreshold
}

// Simplify scans the crumb trail in order and returns the keypoint sequence.
// The caller chooses travel direction by passing the crumbs forward or
// reversed. A zero-crumb trail returns ErrEmptyPath; a single crumb yields a
// single keypoint at that pose. The returned slice is freshly allocated;
// ownership transfers to the navigation session, which pops keypoints as
// they are reached.
func (s *Simplifier) Simplify(crumbs []Crumb, mode Mode) ([]Keypoint, error) {
	if len(crumbs) == 0 {
		return nil, ErrEmptyPath
	}
	if len(crumbs) == 1 {
		return []Keypoint{{Pose: crumbs[0].Pose}}, nil
	}

	threshold := s.Threshold(mode)
	keypoints := make([]Keypoint, 0, 4)

	// Heading changes accumulate with sign, so a gentle S-curve that nets
	// out straight does not spawn keypoints, while a sustained turn does.
	var accumulated float64
	prevHeading := math.NaN()
	lastEmitted := 0

	for i := 1; i < len(crumbs); i++ {
		prev := crumbs[i-1].Pose.Transform
		cur := crumbs[i].Pose.Transform
		if geom.PlanarDistance(prev, cur) < minSegmentMeters {
			continue
		}
		heading := geom.Bearing(prev, cur)
		if !math.IsNaN(prevHeading) {
			accumulated += geom.AngularDiff(heading, prevHeading)
		}
		prevHeading = heading

		if math.Abs(accumulated) > threshold {
			keypoints = append(keypoints, Keypoint{
				Pose:         crumbs[i].Pose,
				TurnAngleRad: accumulated,
			})
			lastEmitted = i
			accumulated = 0
		}
	}

	// The endpoint is always a keypoint: it is the arrival target.
	if lastEmitted != len(crumbs)-1 || len(keypoints) == 0 {
		keypoints = append(keypoints, Keypoint{Pose: crumbs[len(crumbs)-1].Pose})
	}

	return keypoints, nil
}

// ReverseCrumbs returns a reversed copy of the trail for backward traversal.
func ReverseCrumbs(crumbs []Crumb) []Crumb {
	out := make([]Crumb, len(crumbs))
	for i, c := range crumbs {
		out[len(crumbs)-1-i] = c
	}
	return out
}
