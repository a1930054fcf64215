package nav

import (
	"math"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/monitoring"
	"gonum.org/v1/gonum/mat"
)

// Matcher fits the live traveled trail against the planned keypoint path and
// produces a corrective rigid transform (rotation about the vertical axis
// plus horizontal translation) for drift correction.
//
// The fit is a small iterated closest-point loop: nearest-neighbour
// correspondences gated by distance, then a 2-D Kabsch solve per iteration.
type Matcher struct {
	gate     float64
	maxIter  int
	converge float64
}

// NewMatcher builds a Matcher from tuning config.
func NewMatcher(cfg *config.TuningConfig) *Matcher {
	return &Matcher{
		gate:     cfg.GetMatchGateMeters(),
		maxIter:  cfg.GetMatchMaxIterations(),
		converge: cfg.GetMatchConvergeMeters(),
	}
}

type planarPoint struct{ x, y float64 }

// Match returns the corrective transform that moves the observed trail onto
// the planned path. Degenerate input (fewer than two gated correspondences)
// returns the identity transform (no correction) rather than failing, and
// point sets that already coincide within tolerance return identity exactly.
func (m *Matcher) Match(observed []geom.Pose, planned []Keypoint) geom.Transform {
	if len(observed) < 2 || len(planned) < 2 {
		monitoring.Debugf("path match skipped: %v (observed=%d planned=%d)",
			ErrInsufficientMatchPoints, len(observed), len(planned))
		return geom.Identity()
	}

	src := make([]planarPoint, len(observed))
	for i, p := range observed {
		src[i] = planarPoint{p.X(), p.Y()}
	}
	dst := make([]planarPoint, len(planned))
	for i, k := range planned {
		dst[i] = planarPoint{k.Pose.X(), k.Pose.Y()}
	}

	current := geom.Identity()
	prevRMS := math.MaxFloat64

	for iter := 0; iter < m.maxIter; iter++ {
		moved := applyPlanar(current, src)
		srcCorr, dstCorr := correspond(moved, dst, m.gate)
		if len(srcCorr) < 2 {
			if iter == 0 {
				monitoring.Debugf("path match skipped: %v (gated pairs=%d)",
					ErrInsufficientMatchPoints, len(srcCorr))
				return geom.Identity()
			}
			break
		}

		rms := pairRMS(srcCorr, dstCorr)
		if rms < m.converge {
			if iter == 0 {
				// Already aligned; report no correction at all.
				return geom.Identity()
			}
			break
		}
		if prevRMS-rms < m.converge && iter > 0 {
			break
		}
		prevRMS = rms

		delta := kabsch2D(srcCorr, dstCorr)
		current = delta.Mul(current)
	}

	return current
}

// correspond pairs each source point with its nearest destination point
// within the gate distance.
func correspond(src, dst []planarPoint, gate float64) ([]planarPoint, []planarPoint) {
	var srcCorr, dstCorr []planarPoint
	gateSq := gate * gate
	for _, s := range src {
		best := math.MaxFloat64
		var nearest planarPoint
		for _, d := range dst {
			dx, dy := d.x-s.x, d.y-s.y
			if dd := dx*dx + dy*dy; dd < best {
				best = dd
				nearest = d
			}
		}
		if best <= gateSq {
			srcCorr = append(srcCorr, s)
			dstCorr = append(dstCorr, nearest)
		}
	}
	return srcCorr, dstCorr
}

func applyPlanar(tr geom.Transform, pts []planarPoint) []planarPoint {
	out := make([]planarPoint, len(pts))
	for i, p := range pts {
		x, y, _ := tr.Apply(p.x, p.y, 0)
		out[i] = planarPoint{x, y}
	}
	return out
}

func pairRMS(src, dst []planarPoint) float64 {
	var sum float64
	for i := range src {
		dx := dst[i].x - src[i].x
		dy := dst[i].y - src[i].y
		sum += dx*dx + dy*dy
	}
	return math.Sqrt(sum / float64(len(src)))
}

// kabsch2D computes the least-squares rigid transform mapping src onto dst
// via SVD of the 2x2 cross-covariance. The reflection case (negative
// determinant) is corrected so the result is a proper rotation.
func kabsch2D(src, dst []planarPoint) geom.Transform {
	n := float64(len(src))

	var scx, scy, dcx, dcy float64
	for i := range src {
		scx += src[i].x
		scy += src[i].y
		dcx += dst[i].x
		dcy += dst[i].y
	}
	scx /= n
	scy /= n
	dcx /= n
	dcy /= n

	// Cross-covariance H = Σ (src-centroid)(dst-centroid)ᵀ
	var h00, h01, h10, h11 float64
	for i := range src {
		sx, sy := src[i].x-scx, src[i].y-scy
		dx, dy := dst[i].x-dcx, dst[i].y-dcy
		h00 += sx * dx
		h01 += sx * dy
		h10 += sy * dx
		h11 += sy * dy
	}

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(2, 2, []float64{h00, h01, h10, h11}), mat.SVDFull); !ok {
		return geom.Identity()
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// R = V·Uᵀ, with the last column of V flipped when det < 0.
	var r mat.Dense
	r.Mul(&v, u.T())
	if mat.Det(&r) < 0 {
		v.Set(0, 1, -v.At(0, 1))
		v.Set(1, 1, -v.At(1, 1))
		r.Mul(&v, u.T())
	}

	yaw := math.Atan2(r.At(1, 0), r.At(0, 0))
	out := geom.RotZ(yaw)
	// t = dstCentroid - R·srcCentroid
	rx, ry, _ := out.Apply(scx, scy, 0)
	out.T[0] = dcx - rx
	out.T[1] = dcy - ry
	return out
}
