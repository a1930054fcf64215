package nav_test

import (
	"math"
	"testing"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplifyStraightTrail(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())

	// A straight 5 m walk has no heading change: the only keypoint is the
	// endpoint.
	crumbs := testutil.StraightTrail(21, 0, 0.25)
	kps, err := s.Simplify(crumbs, nav.ModeStandard)
	require.NoError(t, err)
	require.Len(t, kps, 1)
	assert.Equal(t, crumbs[20].Pose, kps[0].Pose)
	assert.Equal(t, 0.0, kps[0].TurnAngleRad)
}

func TestSimplifyRightAngleTurn(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())

	crumbs := testutil.TurnTrail(0, math.Pi/2, 5, 0.25)
	kps, err := s.Simplify(crumbs, nav.ModeStandard)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(kps), 2)

	// The turn keypoint carries the full 90° heading change and sits at the
	// corner, and the endpoint closes the sequence.
	testutil.AssertAngleNear(t, kps[0].TurnAngleRad, math.Pi/2, 1e-9)
	assert.InDelta(t, 5.0, kps[0].Pose.X(), 0.5)
	last := kps[len(kps)-1]
	assert.Equal(t, crumbs[len(crumbs)-1].Pose, last.Pose)
}

func TestSimplifyTurnSign(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())

	t.Run("left turn accumulates positive", func(t *testing.T) {
		t.Parallel()
		kps, err := s.Simplify(testutil.TurnTrail(0, math.Pi/2, 4, 0.25), nav.ModeStandard)
		require.NoError(t, err)
		assert.Positive(t, kps[0].TurnAngleRad)
	})

	t.Run("right turn accumulates negative", func(t *testing.T) {
		t.Parallel()
		kps, err := s.Simplify(testutil.TurnTrail(0, -math.Pi/2, 4, 0.25), nav.ModeStandard)
		require.NoError(t, err)
		assert.Negative(t, kps[0].TurnAngleRad)
	})
}

func TestSimplifySCurveCancels(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())

	// Heading wobbles ±0.3 rad but nets out straight. Signed accumulation
	// keeps the running total below the standard threshold, so only the
	// endpoint survives; the denser accessible threshold (0.26) trips on
	// each wobble.
	headings := []float64{0, 0.3, 0, -0.3, 0, 0.3, 0, -0.3, 0}
	crumbs := []nav.Crumb{{Pose: testutil.PoseAt(0, 0, 0, 0, 0)}}
	x, y := 0.0, 0.0
	for i, h := range headings {
		x += 0.5 * math.Cos(h)
		y += 0.5 * math.Sin(h)
		crumbs = append(crumbs, nav.Crumb{Pose: testutil.PoseAt(h, x, y, 0, int64(i+1)*1e8)})
	}

	standard, err := s.Simplify(crumbs, nav.ModeStandard)
	require.NoError(t, err)
	assert.Len(t, standard, 1)

	accessible, err := s.Simplify(crumbs, nav.ModeAccessible)
	require.NoError(t, err)
	assert.Greater(t, len(accessible), len(standard))
}

func TestSimplifySkipsCoincidentCrumbs(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())

	// Standing still produces near-coincident crumbs with noisy yaw. Their
	// sub-centimetre segments must not contribute heading changes.
	straight := testutil.StraightTrail(11, 0, 0.5)
	var crumbs []nav.Crumb
	for i, c := range straight {
		crumbs = append(crumbs, c)
		jitterYaw := math.Pi * float64(i%3-1)
		crumbs = append(crumbs, nav.Crumb{
			Pose: testutil.PoseAt(jitterYaw, c.Pose.X()+0.003, c.Pose.Y()-0.002, 0, c.Pose.UnixNanos+1),
		})
	}

	kps, err := s.Simplify(crumbs, nav.ModeStandard)
	require.NoError(t, err)
	assert.Len(t, kps, 1)
}

func TestSimplifyDegenerateTrails(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())

	t.Run("empty trail", func(t *testing.T) {
		t.Parallel()
		_, err := s.Simplify(nil, nav.ModeStandard)
		assert.ErrorIs(t, err, nav.ErrEmptyPath)
	})

	t.Run("single crumb", func(t *testing.T) {
		t.Parallel()
		pose := testutil.PoseAt(1.2, 3, 4, 0, 7)
		kps, err := s.Simplify([]nav.Crumb{{Pose: pose}}, nav.ModeStandard)
		require.NoError(t, err)
		require.Len(t, kps, 1)
		assert.Equal(t, pose, kps[0].Pose)
	})

	t.Run("all crumbs coincident", func(t *testing.T) {
		t.Parallel()
		pose := testutil.PoseAt(0, 1, 1, 0, 0)
		crumbs := []nav.Crumb{{Pose: pose}, {Pose: pose}, {Pose: pose}}
		kps, err := s.Simplify(crumbs, nav.ModeStandard)
		require.NoError(t, err)
		require.Len(t, kps, 1)
		assert.Equal(t, pose, kps[0].Pose)
	})
}

func TestReverseCrumbs(t *testing.T) {
	t.Parallel()

	crumbs := testutil.StraightTrail(5, 0, 1)
	rev := nav.ReverseCrumbs(crumbs)
	require.Len(t, rev, 5)
	for i := range crumbs {
		assert.Equal(t, crumbs[4-i], rev[i])
	}
	// Original order untouched.
	assert.Equal(t, 0.0, crumbs[0].Pose.X())
}

func TestThresholdPerMode(t *testing.T) {
	t.Parallel()
	s := nav.NewSimplifier(config.MustLoadDefaultConfig())
	assert.Less(t, s.Threshold(nav.ModeAccessible), s.Threshold(nav.ModeStandard))
}
