package session

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/monitoring"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/timeutil"
	"github.com/google/uuid"
)

const (
	// maxTrailLen caps the observed trail kept for path matching.
	maxTrailLen = 512
	// matchTailLen is how many recent trail poses feed each match.
	matchTailLen = 64
	// identityEps is the tolerance below which a corrective transform is
	// treated as "no correction" and not emitted.
	identityEps = 1e-6
)

// Command is a one-shot job executed at the start of the next tick. It
// replaces ad-hoc deferred closures: everything that must happen "on the
// next pose tick" goes through the queue so ordering is explicit.
type Command func(*Session)

// Session owns all mutable guidance state for one recording or navigation
// run. A new session starts from zeroed state; nothing leaks between
// sessions.
type Session struct {
	ID uuid.UUID

	cfg   *config.TuningConfig
	clock timeutil.Clock
	poses PoseProvider
	sink  Sink

	simplifier *nav.Simplifier
	resolver   *nav.Resolver
	calibrator *nav.Calibrator
	aligner    *nav.Aligner
	matcher    *nav.Matcher

	mu          sync.Mutex
	phase       Phase
	route       *nav.Route
	mode        nav.Mode
	reversed    bool
	crumbs      []nav.Crumb
	remaining   []nav.Keypoint
	lastReached *geom.Pose
	trail       []geom.Pose

	commands      []Command
	tickCount     int
	ticksPerMatch int

	lastQuality    nav.TrackingQuality
	guidancePaused bool
	// pendingRealign marks that a post-relocalization re-alignment is owed.
	// It survives poseless ticks and clears only once the alignment runs.
	pendingRealign bool
}

// New creates an idle session. sink may be NopSink{} but not nil.
func New(cfg *config.TuningConfig, clock timeutil.Clock, poses PoseProvider, sink Sink) *Session {
	ticksPerMatch := int(cfg.GetMatchInterval() / cfg.GetTickInterval())
	if ticksPerMatch < 1 {
		ticksPerMatch = 1
	}
	return &Session{
		ID:            uuid.New(),
		cfg:           cfg,
		clock:         clock,
		poses:         poses,
		sink:          sink,
		simplifier:    nav.NewSimplifier(cfg),
		resolver:      nav.NewResolver(cfg),
		calibrator:    nav.NewCalibrator(cfg),
		aligner:       nav.NewAligner(cfg),
		matcher:       nav.NewMatcher(cfg),
		phase:         PhaseIdle,
		ticksPerMatch: ticksPerMatch,
		lastQuality:   nav.TrackingNormal,
	}
}

// Phase returns the current session phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// HeadingOffset returns the session's calibrated heading offset.
func (s *Session) HeadingOffset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calibrator.CurrentOffset()
}

// SetCalibrationEnabled controls whether calibration candidates are applied
// to the shared heading offset or computed only diagnostically.
func (s *Session) SetCalibrationEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calibrator.SetApplyEnabled(on)
}

// Remaining returns a copy of the keypoints not yet reached.
func (s *Session) Remaining() []nav.Keypoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]nav.Keypoint, len(s.remaining))
	copy(out, s.remaining)
	return out
}

// Enqueue schedules a command for the start of the next tick.
func (s *Session) Enqueue(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commands = append(s.commands, cmd)
}

// StartRecording begins a new crumb trail. All per-session state (crumbs,
// the calibration window, and the heading offset) is reinitialized.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(PhaseRecording); err != nil {
		return err
	}
	s.resetLocked()
	monitoring.Logf("session %s: recording started", s.ID)
	return nil
}

// StopRecording ends the recording and packages the trail into a Route with
// soft begin/end landmarks. A trail with no crumbs aborts with ErrEmptyPath.
func (s *Session) StopRecording(name string) (*nav.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseRecording {
		return nil, fmt.Errorf("session: stop recording in phase %s", s.phase)
	}
	if len(s.crumbs) == 0 {
		_ = s.transition(PhaseIdle)
		return nil, nav.ErrEmptyPath
	}

	route := &nav.Route{
		ID:         uuid.New(),
		Name:       name,
		RecordedAt: s.clock.Now(),
		Crumbs:     s.crumbs,
		Begin:      s.landmarkLocked(s.crumbs, false),
		End:        s.landmarkLocked(nav.ReverseCrumbs(s.crumbs), true),
	}
	s.crumbs = nil
	if err := s.transition(PhaseIdle); err != nil {
		return nil, err
	}
	monitoring.Logf("session %s: recording stopped, %d crumbs captured", s.ID, len(route.Crumbs))
	return route, nil
}

// landmarkLocked derives a soft landmark for the first pose of the given
// trail orientation. The second distinct crumb supplies the bearing.
func (s *Session) landmarkLocked(crumbs []nav.Crumb, reversed bool) nav.RouteLandmark {
	first := crumbs[0].Pose
	var second *geom.Pose
	for i := 1; i < len(crumbs); i++ {
		if geom.PlanarDistance(first.Transform, crumbs[i].Pose.Transform) >= s.cfg.GetSoftAlignMinSegment() {
			p := crumbs[i].Pose
			second = &p
			break
		}
	}
	return nav.RouteLandmark{
		Pose:            s.aligner.SoftAlignment(first, second, reversed),
		IsSoftAlignment: true,
	}
}

// StartNavigation simplifies the route for the given mode and begins
// guidance immediately (same coordinate frame as recording).
func (s *Session) StartNavigation(route *nav.Route, mode nav.Mode, reversed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Validate the phase change before beginRouteLocked resets any state,
	// so a bad call cannot clobber an active session.
	if err := s.canTransition(PhaseNavigating); err != nil {
		return err
	}
	if err := s.beginRouteLocked(route, mode, reversed); err != nil {
		return err
	}
	if err := s.transition(PhaseNavigating); err != nil {
		return err
	}
	monitoring.Logf("session %s: navigating %q (%s, reversed=%v, %d keypoints)",
		s.ID, route.Name, mode, reversed, len(s.remaining))
	return nil
}

// Resume loads a stored route but defers guidance until the live frame has
// been aligned against the route's landmark. Alignment happens on the next
// tick with a pose available, and again after each relocalization.
func (s *Session) Resume(route *nav.Route, mode nav.Mode, reversed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.canTransition(PhaseResuming); err != nil {
		return err
	}
	if err := s.beginRouteLocked(route, mode, reversed); err != nil {
		return err
	}
	if err := s.transition(PhaseResuming); err != nil {
		return err
	}
	monitoring.Logf("session %s: resuming %q, waiting for alignment", s.ID, route.Name)
	return nil
}

// beginRouteLocked resets per-session state and simplifies the route.
func (s *Session) beginRouteLocked(route *nav.Route, mode nav.Mode, reversed bool) error {
	crumbs := route.Crumbs
	if reversed {
		crumbs = nav.ReverseCrumbs(crumbs)
	}
	keypoints, err := s.simplifier.Simplify(crumbs, mode)
	if err != nil {
		return err
	}
	s.resetLocked()
	s.route = route
	s.mode = mode
	s.reversed = reversed
	s.remaining = keypoints
	s.calibrator.SetApplyEnabled(true)
	return nil
}

// Stop cancels the active session immediately. Pending commands are
// discarded, not applied.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseIdle {
		return
	}
	_ = s.transition(PhaseIdle)
	s.resetLocked()
	monitoring.Logf("session %s: stopped", s.ID)
}

// resetLocked reinitializes all per-session mutable state.
func (s *Session) resetLocked() {
	s.route = nil
	s.reversed = false
	s.crumbs = nil
	s.remaining = nil
	s.lastReached = nil
	s.trail = nil
	s.commands = nil
	s.tickCount = 0
	s.guidancePaused = false
	s.pendingRealign = false
	s.lastQuality = nav.TrackingNormal
	s.calibrator.Reset()
	s.calibrator.SetApplyEnabled(false)
}

// HandleTrackingEvent reacts to quality transitions from the tracking
// subsystem. Guidance output is paused while quality is degraded, and a
// Relocalizing→Normal transition flags a re-alignment, performed on the next
// tick that has a pose available.
func (s *Session) HandleTrackingEvent(ev nav.TrackingEvent) {
	s.mu.Lock()
	wasRelocalizing := s.lastQuality == nav.TrackingRelocalizing
	s.lastQuality = ev.Quality
	s.guidancePaused = ev.Quality != nav.TrackingNormal
	if wasRelocalizing && ev.Quality == nav.TrackingNormal {
		// A flag, not a queued one-shot: the first ticks after recovery
		// often have no pose yet, and the obligation must outlive them.
		s.pendingRealign = true
	}
	s.mu.Unlock()

	if ev.Quality == nav.TrackingLimited {
		monitoring.Debugf("session %s: tracking limited (%s)", s.ID, ev.Reason)
	}
}

// Realign recomputes the alignment transform against the active route's
// landmark using the current pose, and emits it to the sink. Returns
// ErrNoPose when the tracking subsystem has no pose to align against; a nil
// return with no route active is a no-op.
func (s *Session) Realign() error {
	pose, ok := s.poses.CurrentPose()
	if !ok {
		monitoring.Debugf("session %s: realign skipped, no pose", s.ID)
		return nav.ErrNoPose
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.route == nil {
		return nil
	}
	s.realignLocked(pose)
	return nil
}

// realignLocked computes the alignment transform against the active route's
// landmark and emits it. Callers hold the lock and guarantee route != nil.
func (s *Session) realignLocked(pose geom.Pose) {
	landmark := s.route.Begin
	if s.reversed {
		landmark = s.route.End
	}
	tr := s.aligner.HardAlignmentTransform(pose, landmark.Pose, landmark.IsSoftAlignment)
	s.sink.Aligned(tr)
	s.pendingRealign = false
	which := "begin"
	if s.reversed {
		which = "end"
	}
	monitoring.Logf("session %s: aligned against %s landmark", s.ID, which)
}

// Run drives the tick loop at the configured interval until ctx is
// cancelled. Tick may also be called directly (simulation, tests).
func (s *Session) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.GetTickInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			s.Tick()
		}
	}
}

// Tick executes one cooperative control-loop step: drain the command queue,
// read the latest pose, and run the phase's work. A tick with no pose is a
// skip, not an error.
func (s *Session) Tick() {
	s.mu.Lock()
	cmds := s.commands
	s.commands = nil
	s.mu.Unlock()
	for _, cmd := range cmds {
		cmd(s)
	}

	pose, ok := s.poses.CurrentPose()
	if !ok {
		monitoring.Debugf("session %s: tick skipped, no pose", s.ID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickCount++

	if s.pendingRealign && s.phase == PhaseNavigating && !s.guidancePaused && s.route != nil {
		s.realignLocked(pose)
	}

	switch s.phase {
	case PhaseRecording:
		s.crumbs = append(s.crumbs, nav.Crumb{Pose: pose})
		s.calibrator.Observe(pose)

	case PhaseResuming:
		s.resumeTickLocked(pose)

	case PhaseNavigating:
		s.navigateTickLocked(pose)
	}
}

// resumeTickLocked performs the one-shot alignment and starts guidance. While
// tracking quality is degraded the alignment waits; anchoring against a
// degraded pose would bake the drift into every later instruction.
func (s *Session) resumeTickLocked(pose geom.Pose) {
	if s.guidancePaused {
		return
	}
	s.realignLocked(pose)
	if err := s.transition(PhaseNavigating); err != nil {
		monitoring.Logf("session %s: %v", s.ID, err)
		return
	}
	// Match cadence counts guidance ticks only, starting now.
	s.tickCount = 0
	monitoring.Logf("session %s: alignment complete, guidance active", s.ID)
}

// navigateTickLocked runs the per-tick navigation work: calibration, trail
// capture, direction resolution, keypoint consumption, and the low-cadence
// path match.
func (s *Session) navigateTickLocked(pose geom.Pose) {
	s.calibrator.Observe(pose)

	s.trail = append(s.trail, pose)
	if len(s.trail) > maxTrailLen {
		s.trail = s.trail[len(s.trail)-maxTrailLen:]
	}

	if len(s.remaining) == 0 {
		// Invariant: never empty during active navigation. Reaching this
		// means completion raced a stray tick; treat as complete.
		_ = s.transition(PhaseIdle)
		return
	}

	if s.guidancePaused {
		return
	}

	inst := s.resolver.Resolve(pose, s.remaining[0], s.lastReached, s.calibrator.CurrentOffset())
	s.sink.Instruction(inst)

	if inst.Target == nav.TargetAtTarget {
		reached := s.remaining[0]
		s.remaining = s.remaining[1:]
		reachedPose := reached.Pose
		s.lastReached = &reachedPose
		s.sink.KeypointReached(reached)

		if len(s.remaining) == 0 {
			s.sink.RouteComplete()
			_ = s.transition(PhaseIdle)
			monitoring.Logf("session %s: route complete", s.ID)
			return
		}
	}

	if s.tickCount%s.ticksPerMatch == 0 && len(s.trail) >= 2 {
		tail := s.trail
		if len(tail) > matchTailLen {
			tail = tail[len(tail)-matchTailLen:]
		}
		correction := s.matcher.Match(tail, s.remaining)
		if !isIdentity(correction) {
			s.sink.DriftCorrection(correction)
		}
	}
}

// isIdentity reports whether tr is the identity within identityEps.
func isIdentity(tr geom.Transform) bool {
	id := geom.Identity()
	for i := range tr.R {
		if math.Abs(tr.R[i]-id.R[i]) > identityEps {
			return false
		}
	}
	for i := range tr.T {
		if math.Abs(tr.T[i]) > identityEps {
			return false
		}
	}
	return true
}
