// Package nav implements the path-simplification and guidance engine:
// crumb trails recorded during a walk are reduced to keypoint sequences,
// and live poses are resolved against those keypoints into quantized
// directional instructions.
package nav

import (
	"fmt"
	"strings"
	"time"

	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/google/uuid"
)

// Mode selects the guidance output channel the route is simplified for.
type Mode int

const (
	// ModeStandard targets spoken guidance; keypoints only at significant turns.
	ModeStandard Mode = iota + 1
	// ModeAccessible targets haptic guidance, which needs denser keypoints
	// because pulses confirm progress far less precisely than speech.
	ModeAccessible
)

func (m Mode) String() string {
	switch m {
	case ModeStandard:
		return "STANDARD"
	case ModeAccessible:
		return "ACCESSIBLE"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a mode name into a Mode enum.
func ParseMode(value string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "STANDARD":
		return ModeStandard, nil
	case "ACCESSIBLE":
		return ModeAccessible, nil
	default:
		return ModeStandard, fmt.Errorf("unknown mode %q", value)
	}
}

// Crumb is a pose recorded at fixed cadence while a route is being walked.
type Crumb struct {
	Pose geom.Pose
}

// Keypoint is a simplified waypoint derived from crumbs. The keypoint
// sequence is consumed front-to-back during navigation; index 0 is always
// the next target and reached keypoints are popped.
type Keypoint struct {
	Pose geom.Pose
	// TurnAngleRad is the cumulative heading change that caused this
	// keypoint to be emitted. Zero for the trail endpoint.
	TurnAngleRad float64
}

// RouteLandmark marks a route's start or end for alignment on resume.
type RouteLandmark struct {
	Pose geom.Pose
	// IsSoftAlignment is true when the pose was derived from two keypoints
	// and stored pre-leveled. Hard landmarks are raw captures and must be
	// leveled at use time.
	IsSoftAlignment bool
	// AnnotationRef points at an externally-owned voice/text note.
	AnnotationRef string
}

// Route is the unit the external store persists: the raw crumb trail plus
// the landmarks needed to resume it in a new coordinate frame.
type Route struct {
	ID         uuid.UUID
	Name       string
	RecordedAt time.Time
	Crumbs     []Crumb
	Begin      RouteLandmark
	End        RouteLandmark
}

// TargetState reports progress toward the next keypoint.
type TargetState int

const (
	// TargetApproaching means the keypoint is still ahead.
	TargetApproaching TargetState = iota + 1
	// TargetAtTarget means the keypoint is within the arrival radius.
	TargetAtTarget
)

func (s TargetState) String() string {
	switch s {
	case TargetApproaching:
		return "approaching"
	case TargetAtTarget:
		return "at_target"
	default:
		return fmt.Sprintf("TargetState(%d)", int(s))
	}
}

// Slope qualifies an instruction with a vertical trend.
type Slope int

const (
	SlopeNone Slope = iota
	SlopeAscending
	SlopeDescending
)

func (s Slope) String() string {
	switch s {
	case SlopeNone:
		return "none"
	case SlopeAscending:
		return "ascending"
	case SlopeDescending:
		return "descending"
	default:
		return fmt.Sprintf("Slope(%d)", int(s))
	}
}

// DirectionInstruction is a single turn-by-turn cue, ready for speech or
// haptic rendering by the presentation layer.
type DirectionInstruction struct {
	// DistanceMeters is the planar distance to the keypoint, rounded to 0.1m.
	DistanceMeters float64
	// AngleDiffRadians is the signed difference between the bearing to the
	// keypoint and the user's inferred travel heading, in [-π, π).
	AngleDiffRadians float64
	// ClockDirection quantizes AngleDiffRadians into 12 clock positions.
	// 0 is straight ahead (12 o'clock, |diff| < π/12), 3 is a right turn,
	// 9 a left turn, 6 directly behind.
	ClockDirection int
	// HapticDirection quantizes into 8 coarser buckets (0 = straight ahead);
	// haptic pulses cannot convey clock-level resolution.
	HapticDirection int
	// Target reports whether the keypoint has been reached.
	Target TargetState
	// Slope is set when the keypoint lies on a significant incline.
	Slope Slope
	// AnnounceDistance is false when a slope qualifier replaces the
	// distance announcement.
	AnnounceDistance bool
}

// TrackingQuality mirrors the discrete quality events emitted by the
// external tracking subsystem.
type TrackingQuality int

const (
	TrackingNormal TrackingQuality = iota + 1
	TrackingLimited
	TrackingRelocalizing
	TrackingNotAvailable
)

func (q TrackingQuality) String() string {
	switch q {
	case TrackingNormal:
		return "normal"
	case TrackingLimited:
		return "limited"
	case TrackingRelocalizing:
		return "relocalizing"
	case TrackingNotAvailable:
		return "not_available"
	default:
		return fmt.Sprintf("TrackingQuality(%d)", int(q))
	}
}

// TrackingEvent is a quality transition from the tracking subsystem.
type TrackingEvent struct {
	Quality TrackingQuality
	// Reason is set for TrackingLimited (e.g. "insufficient_features").
	Reason string
}
