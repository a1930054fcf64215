// Package session owns the mutable state of one recording or navigation
// session: the crumb trail, the remaining keypoints, the shared heading
// offset, and the cooperative tick loop that drives the engine components
// at their distinct cadences.
package session

import (
	"errors"
	"fmt"
)

// Phase is the session lifecycle phase.
type Phase int

const (
	// PhaseIdle: no active recording or navigation.
	PhaseIdle Phase = iota + 1
	// PhaseRecording: crumbs are appended each tick.
	PhaseRecording
	// PhaseResuming: a stored route is loaded but waiting for alignment
	// against its landmark before guidance starts.
	PhaseResuming
	// PhaseNavigating: keypoints are consumed and instructions emitted.
	PhaseNavigating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRecording:
		return "recording"
	case PhaseResuming:
		return "resuming"
	case PhaseNavigating:
		return "navigating"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ErrInvalidTransition reports a phase change outside the transition table.
var ErrInvalidTransition = errors.New("session: invalid phase transition")

// transitions is the explicit phase transition table. Stop always returns
// to idle, so every phase lists PhaseIdle.
var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseRecording, PhaseResuming, PhaseNavigating},
	PhaseRecording:  {PhaseIdle},
	PhaseResuming:   {PhaseNavigating, PhaseIdle},
	PhaseNavigating: {PhaseIdle},
}

// canTransition reports whether the move is allowed without performing it.
// Callers hold the session lock.
func (s *Session) canTransition(to Phase) error {
	for _, allowed := range transitions[s.phase] {
		if allowed == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, s.phase, to)
}

// transition moves the session to the target phase, validating against the
// transition table. Callers hold the session lock.
func (s *Session) transition(to Phase) error {
	if err := s.canTransition(to); err != nil {
		return err
	}
	s.phase = to
	return nil
}
