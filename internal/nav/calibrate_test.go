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

// feedWalk pushes window-many samples of a walk along movementAngle with the
// device pointed at deviceYaw, stepping stepMeters per sample.
func feedWalk(c *nav.Calibrator, window int, deviceYaw, movementAngle, stepMeters float64) {
	for i := 0; i < window; i++ {
		d := float64(i) * stepMeters
		c.Observe(testutil.PoseAt(deviceYaw,
			d*math.Cos(movementAngle), d*math.Sin(movementAngle), 0, int64(i)*1e8))
	}
}

func TestCalibratorEstimatesOffset(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)
	c.SetApplyEnabled(true)

	// Device yaw 0.3 but the user walks along +X: the offset
	// (movement minus device heading) comes out at -0.3.
	feedWalk(c, cfg.GetCalibrationWindow(), 0.3, 0, 0.2)
	testutil.AssertAngleNear(t, c.CurrentOffset(), -0.3, 1e-9)

	candidate, ok := c.LastCandidate()
	require.True(t, ok)
	testutil.AssertAngleNear(t, candidate, -0.3, 1e-9)
}

func TestCalibratorIgnoresShortDisplacement(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)
	c.SetApplyEnabled(true)

	// A full window of pathological samples, alternating ±π headings with
	// sub-threshold displacement, must never move the offset.
	window := cfg.GetCalibrationWindow()
	for i := 0; i < 3*window; i++ {
		yaw := math.Pi
		if i%2 == 0 {
			yaw = -math.Pi
		}
		d := float64(i%window) * 0.01
		c.Observe(testutil.PoseAt(yaw, d, 0, 0, int64(i)*1e8))
	}
	assert.Equal(t, 0.0, c.CurrentOffset())
	_, ok := c.LastCandidate()
	assert.False(t, ok)
}

func TestCalibratorRejectsTurningWindow(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)
	c.SetApplyEnabled(true)

	// Establish a clean offset first.
	feedWalk(c, cfg.GetCalibrationWindow(), 0.3, 0, 0.2)
	require.InDelta(t, -0.3, c.CurrentOffset(), 1e-9)

	// Then walk a window with the heading swinging well past the deviation
	// gate. The previous offset must survive untouched.
	window := cfg.GetCalibrationWindow()
	for i := 0; i < window; i++ {
		yaw := float64(i) * 0.1
		d := float64(i) * 0.2
		c.Observe(testutil.PoseAt(yaw, d, 0, 0, int64(window+i)*1e8))
	}
	assert.InDelta(t, -0.3, c.CurrentOffset(), 1e-9)
}

func TestCalibratorRejectsCurvedWindow(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)
	c.SetApplyEnabled(true)

	// Steady heading, but the path bows a metre off the start→end chord.
	window := cfg.GetCalibrationWindow()
	for i := 0; i < window; i++ {
		d := float64(i) * 0.2
		bow := math.Sin(math.Pi*float64(i)/float64(window-1)) * 1.0
		c.Observe(testutil.PoseAt(0, d, bow, 0, int64(i)*1e8))
	}
	assert.Equal(t, 0.0, c.CurrentOffset())
}

func TestCalibratorBackwardWalkFlips(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)
	c.SetApplyEnabled(true)

	// Walking backward: device faces +X, movement along -X. The raw
	// candidate is π, which flips to 0: the device still leads the user's
	// frame, it just trails the motion.
	feedWalk(c, cfg.GetCalibrationWindow(), 0, math.Pi, 0.2)
	testutil.AssertAngleNear(t, c.CurrentOffset(), 0, 1e-9)

	// A 150° disagreement is past the flip threshold too; the applied
	// offset is the supplement, not the near-half-turn.
	c2 := nav.NewCalibrator(cfg)
	c2.SetApplyEnabled(true)
	feedWalk(c2, cfg.GetCalibrationWindow(), 0, 5*math.Pi/6, 0.2)
	testutil.AssertAngleNear(t, c2.CurrentOffset(), -math.Pi/6, 1e-9)
}

func TestCalibratorApplyGate(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)

	// Apply disabled: candidates are still computed for diagnostics but the
	// shared offset stays put.
	feedWalk(c, cfg.GetCalibrationWindow(), 0.3, 0, 0.2)
	assert.Equal(t, 0.0, c.CurrentOffset())
	candidate, ok := c.LastCandidate()
	require.True(t, ok)
	testutil.AssertAngleNear(t, candidate, -0.3, 1e-9)
}

func TestCalibratorReset(t *testing.T) {
	t.Parallel()
	cfg := config.MustLoadDefaultConfig()
	c := nav.NewCalibrator(cfg)
	c.SetApplyEnabled(true)

	feedWalk(c, cfg.GetCalibrationWindow(), 0.3, 0, 0.2)
	require.NotEqual(t, 0.0, c.CurrentOffset())

	c.Reset()
	assert.Equal(t, 0.0, c.CurrentOffset())
	_, ok := c.LastCandidate()
	assert.False(t, ok)
}
