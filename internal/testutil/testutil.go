// Package testutil provides shared test fixtures for pose and trail
// construction.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"

	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
)

// PoseAt builds a gravity-aligned pose with the given yaw and position.
func PoseAt(yaw, x, y, z float64, nanos int64) geom.Pose {
	return geom.Pose{Transform: geom.FromYaw(yaw, x, y, z), UnixNanos: nanos}
}

// StraightTrail builds n crumbs walking from the origin along the given
// heading, spaced step meters apart, facing the direction of travel.
func StraightTrail(n int, heading, step float64) []nav.Crumb {
	crumbs := make([]nav.Crumb, n)
	for i := 0; i < n; i++ {
		d := float64(i) * step
		crumbs[i] = nav.Crumb{Pose: PoseAt(heading,
			d*math.Cos(heading), d*math.Sin(heading), 0, int64(i)*1e8)}
	}
	return crumbs
}

// TurnTrail builds a trail that walks legLen meters along first, then turns
// and walks legLen meters along second. step controls crumb spacing.
func TurnTrail(first, second, legLen, step float64) []nav.Crumb {
	var crumbs []nav.Crumb
	n := int(legLen / step)
	for i := 0; i <= n; i++ {
		d := float64(i) * step
		crumbs = append(crumbs, nav.Crumb{Pose: PoseAt(first,
			d*math.Cos(first), d*math.Sin(first), 0, int64(len(crumbs))*1e8)})
	}
	cornerX := legLen * math.Cos(first)
	cornerY := legLen * math.Sin(first)
	for i := 1; i <= n; i++ {
		d := float64(i) * step
		crumbs = append(crumbs, nav.Crumb{Pose: PoseAt(second,
			cornerX+d*math.Cos(second), cornerY+d*math.Sin(second), 0, int64(len(crumbs))*1e8)})
	}
	return crumbs
}

// AssertAngleNear fails unless got and want are within tol of each other on
// the circle (comparison via the wrapped difference, so -π and π compare
// equal).
func AssertAngleNear(t *testing.T, got, want, tol float64) {
	t.Helper()
	if diff := math.Abs(geom.AngularDiff(got, want)); diff > tol {
		t.Errorf("angle = %f rad, want %f rad (wrapped diff %f > tol %f)", got, want, diff, tol)
	}
}

// AssertTransformNear fails unless every rotation and translation element of
// got is within tol of want.
func AssertTransformNear(t *testing.T, got, want geom.Transform, tol float64) {
	t.Helper()
	for i := range got.R {
		if math.Abs(got.R[i]-want.R[i]) > tol {
			t.Errorf("R[%d] = %f, want %f (tol %f)", i, got.R[i], want.R[i], tol)
			return
		}
	}
	for i := range got.T {
		if math.Abs(got.T[i]-want.T[i]) > tol {
			t.Errorf("T[%d] = %f, want %f (tol %f)", i, got.T[i], want.T[i], tol)
			return
		}
	}
}
