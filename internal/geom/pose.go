// Package geom provides the rigid-transform and planar-angle primitives used
// by the navigation engine.
//
// Conventions (world frame): Z is up (gravity), X and Y span the horizontal
// plane. A pose's forward direction is its local +X axis; yaw is the heading
// of that axis projected onto the horizontal plane, measured anticlockwise
// from world +X in radians.
package geom

import "math"

// minHorizontalNorm is the smallest horizontal projection of a forward axis
// that still yields a meaningful yaw. Below this the pose is looking almost
// straight up or down and yaw falls back to 0 (world +X).
const minHorizontalNorm = 1e-9

// Transform is a rigid transform: a row-major 3x3 rotation and a translation.
// It is the 4x4 homogeneous matrix of the tracking subsystem without the
// constant bottom row.
type Transform struct {
	R [9]float64 // row-major rotation
	T [3]float64 // translation (x, y, z)
}

// Pose is a Transform stamped with the sample time.
type Pose struct {
	Transform
	UnixNanos int64
}

// Identity returns the identity transform.
func Identity() Transform {
	return Transform{R: [9]float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}}
}

// RotZ returns a pure rotation of yaw radians about the vertical axis.
func RotZ(yaw float64) Transform {
	s, c := math.Sincos(yaw)
	return Transform{R: [9]float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	}}
}

// FromYaw builds a gravity-aligned transform with the given yaw and position.
func FromYaw(yaw, x, y, z float64) Transform {
	tr := RotZ(yaw)
	tr.T = [3]float64{x, y, z}
	return tr
}

// X returns the translation x component.
func (tr Transform) X() float64 { return tr.T[0] }

// Y returns the translation y component.
func (tr Transform) Y() float64 { return tr.T[1] }

// Z returns the translation z component.
func (tr Transform) Z() float64 { return tr.T[2] }

// Mul returns the composition tr·other (other applied first).
func (tr Transform) Mul(other Transform) Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var s float64
			for k := 0; k < 3; k++ {
				s += tr.R[i*3+k] * other.R[k*3+j]
			}
			out.R[i*3+j] = s
		}
		out.T[i] = tr.R[i*3+0]*other.T[0] + tr.R[i*3+1]*other.T[1] + tr.R[i*3+2]*other.T[2] + tr.T[i]
	}
	return out
}

// Inverse returns the inverse rigid transform. The rotation inverse is its
// transpose; no general matrix inversion is needed.
func (tr Transform) Inverse() Transform {
	var out Transform
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out.R[i*3+j] = tr.R[j*3+i]
		}
	}
	for i := 0; i < 3; i++ {
		out.T[i] = -(out.R[i*3+0]*tr.T[0] + out.R[i*3+1]*tr.T[1] + out.R[i*3+2]*tr.T[2])
	}
	return out
}

// Apply transforms the point (x, y, z).
func (tr Transform) Apply(x, y, z float64) (float64, float64, float64) {
	return tr.R[0]*x + tr.R[1]*y + tr.R[2]*z + tr.T[0],
		tr.R[3]*x + tr.R[4]*y + tr.R[5]*z + tr.T[1],
		tr.R[6]*x + tr.R[7]*y + tr.R[8]*z + tr.T[2]
}

// Yaw returns the heading of the forward (+X) axis projected onto the
// horizontal plane. A forward axis pointing almost straight up or down has
// no meaningful heading; the fallback is 0.
func (tr Transform) Yaw() float64 {
	fx := tr.R[0] // world components of the local +X axis
	fy := tr.R[3]
	if fx*fx+fy*fy < minHorizontalNorm {
		return 0
	}
	return math.Atan2(fy, fx)
}

// Level returns the gravity-aligned version of tr: the same translation with
// the rotation replaced by a pure yaw rotation. The vertical axis is
// preserved exactly.
func (tr Transform) Level() Transform {
	out := RotZ(tr.Yaw())
	out.T = tr.T
	return out
}

// Level returns the gravity-aligned version of the pose, keeping its stamp.
func (p Pose) Level() Pose {
	return Pose{Transform: p.Transform.Level(), UnixNanos: p.UnixNanos}
}

// PlanarDistance returns the horizontal distance between the two transforms'
// positions.
func PlanarDistance(a, b Transform) float64 {
	return math.Hypot(b.T[0]-a.T[0], b.T[1]-a.T[1])
}
