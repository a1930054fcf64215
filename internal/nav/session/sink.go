package session

import (
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
)

// PoseProvider supplies the latest pose from the external tracking
// subsystem. ok is false when no pose is available for this tick; the
// session treats that as a skip, never an error.
type PoseProvider interface {
	CurrentPose() (pose geom.Pose, ok bool)
}

// Sink receives the engine's outputs. Implementations belong to the
// presentation layer (speech, haptics, rendering); the engine never renders.
type Sink interface {
	// Instruction delivers one resolved turn-by-turn cue.
	Instruction(inst nav.DirectionInstruction)
	// KeypointReached fires when the front keypoint is consumed.
	KeypointReached(kp nav.Keypoint)
	// RouteComplete fires when the last keypoint is consumed.
	RouteComplete()
	// DriftCorrection delivers a corrective transform from the path
	// matcher, to be applied to the tracking subsystem's frame.
	DriftCorrection(tr geom.Transform)
	// Aligned delivers the alignment transform computed on route resume
	// or after relocalization.
	Aligned(tr geom.Transform)
}

// NopSink discards all outputs. Useful for tests and tools that only care
// about session state.
type NopSink struct{}

func (NopSink) Instruction(nav.DirectionInstruction) {}
func (NopSink) KeypointReached(nav.Keypoint)         {}
func (NopSink) RouteComplete()                       {}
func (NopSink) DriftCorrection(geom.Transform)       {}
func (NopSink) Aligned(geom.Transform)               {}
