// Package monitor renders diagnostic views of routes and guidance runs.
// Nothing here is part of the guidance loop; it exists for tuning and
// debugging.
package monitor

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/breadcrumb-labs/waypath/internal/nav"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// TrailPlot renders a top-down overlay of the recorded crumb trail and the
// simplified keypoints to a PNG. The aspect ratio is left to the plot; the
// view is diagnostic, not metric.
func TrailPlot(route *nav.Route, keypoints []nav.Keypoint, outPath string) error {
	if route == nil || len(route.Crumbs) == 0 {
		return fmt.Errorf("trail plot: route has no crumbs")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Route %q: %d crumbs, %d keypoints",
		route.Name, len(route.Crumbs), len(keypoints))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	trailPts := make(plotter.XYs, 0, len(route.Crumbs))
	for _, c := range route.Crumbs {
		trailPts = append(trailPts, plotter.XY{X: c.Pose.X(), Y: c.Pose.Y()})
	}
	trail, err := plotter.NewLine(trailPts)
	if err != nil {
		return fmt.Errorf("failed to build trail line: %w", err)
	}
	trail.Color = color.RGBA{R: 120, G: 120, B: 120, A: 255}
	p.Add(trail)
	p.Legend.Add("crumb trail", trail)

	if len(keypoints) > 0 {
		kpPts := make(plotter.XYs, 0, len(keypoints))
		for _, kp := range keypoints {
			kpPts = append(kpPts, plotter.XY{X: kp.Pose.X(), Y: kp.Pose.Y()})
		}
		kps, err := plotter.NewScatter(kpPts)
		if err != nil {
			return fmt.Errorf("failed to build keypoint scatter: %w", err)
		}
		kps.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
		kps.GlyphStyle.Radius = vg.Points(4)
		p.Add(kps)
		p.Legend.Add("keypoints", kps)
	}

	if err := p.Save(8*vg.Inch, 8*vg.Inch, outPath); err != nil {
		return fmt.Errorf("failed to save trail plot: %w", err)
	}
	return nil
}
