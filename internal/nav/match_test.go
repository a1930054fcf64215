package nav_test

import (
	"math"
	"testing"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/testutil"
	"github.com/stretchr/testify/require"
)

// lShape is a non-collinear planar point set; collinear sets leave the
// fitted rotation underdetermined.
var lShape = [][2]float64{
	{0, 0}, {1, 0}, {2, 0}, {3, 0}, {3, 1}, {3, 2},
}

func posesAt(pts [][2]float64) []geom.Pose {
	out := make([]geom.Pose, len(pts))
	for i, p := range pts {
		out[i] = testutil.PoseAt(0, p[0], p[1], 0, int64(i))
	}
	return out
}

func keypointsAt(pts [][2]float64) []nav.Keypoint {
	out := make([]nav.Keypoint, len(pts))
	for i, p := range pts {
		out[i] = nav.Keypoint{Pose: testutil.PoseAt(0, p[0], p[1], 0, int64(i))}
	}
	return out
}

func TestMatchIdenticalSetsReturnIdentity(t *testing.T) {
	t.Parallel()
	m := nav.NewMatcher(config.MustLoadDefaultConfig())

	got := m.Match(posesAt(lShape), keypointsAt(lShape))
	testutil.AssertTransformNear(t, got, geom.Identity(), 1e-4)
}

func TestMatchRecoversTranslation(t *testing.T) {
	t.Parallel()
	m := nav.NewMatcher(config.MustLoadDefaultConfig())

	shifted := make([][2]float64, len(lShape))
	for i, p := range lShape {
		shifted[i] = [2]float64{p[0] + 0.3, p[1] - 0.2}
	}

	got := m.Match(posesAt(lShape), keypointsAt(shifted))
	want := geom.Identity()
	want.T[0] = 0.3
	want.T[1] = -0.2
	testutil.AssertTransformNear(t, got, want, 1e-4)
}

func TestMatchRecoversRotation(t *testing.T) {
	t.Parallel()
	m := nav.NewMatcher(config.MustLoadDefaultConfig())

	yaw := 0.15
	rot := geom.RotZ(yaw)
	rotated := make([][2]float64, len(lShape))
	for i, p := range lShape {
		x, y, _ := rot.Apply(p[0], p[1], 0)
		rotated[i] = [2]float64{x, y}
	}

	got := m.Match(posesAt(lShape), keypointsAt(rotated))
	testutil.AssertAngleNear(t, math.Atan2(got.R[3], got.R[0]), yaw, 1e-3)

	// Applying the correction moves the observed points onto the planned
	// ones.
	for i, p := range lShape {
		x, y, _ := got.Apply(p[0], p[1], 0)
		require.InDelta(t, rotated[i][0], x, 1e-3)
		require.InDelta(t, rotated[i][1], y, 1e-3)
	}
}

func TestMatchDegenerateInputs(t *testing.T) {
	t.Parallel()
	m := nav.NewMatcher(config.MustLoadDefaultConfig())

	t.Run("too few observed", func(t *testing.T) {
		t.Parallel()
		got := m.Match(posesAt(lShape[:1]), keypointsAt(lShape))
		testutil.AssertTransformNear(t, got, geom.Identity(), 0)
	})

	t.Run("too few planned", func(t *testing.T) {
		t.Parallel()
		got := m.Match(posesAt(lShape), keypointsAt(lShape[:1]))
		testutil.AssertTransformNear(t, got, geom.Identity(), 0)
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		got := m.Match(nil, nil)
		testutil.AssertTransformNear(t, got, geom.Identity(), 0)
	})

	t.Run("everything outside the gate", func(t *testing.T) {
		t.Parallel()
		far := make([][2]float64, len(lShape))
		for i, p := range lShape {
			far[i] = [2]float64{p[0] + 100, p[1]}
		}
		got := m.Match(posesAt(lShape), keypointsAt(far))
		testutil.AssertTransformNear(t, got, geom.Identity(), 0)
	})
}

func TestMatchIgnoresOutliersBeyondGate(t *testing.T) {
	t.Parallel()
	m := nav.NewMatcher(config.MustLoadDefaultConfig())

	// The planned path matches the observed trail shifted 0.3m, plus one
	// far-off keypoint that must not drag the fit.
	shifted := make([][2]float64, len(lShape))
	for i, p := range lShape {
		shifted[i] = [2]float64{p[0] + 0.3, p[1]}
	}
	planned := keypointsAt(append(shifted, [2]float64{50, 50}))

	got := m.Match(posesAt(lShape), planned)
	want := geom.Identity()
	want.T[0] = 0.3
	testutil.AssertTransformNear(t, got, want, 1e-4)
}
