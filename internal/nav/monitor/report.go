package monitor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// GuidanceSample is one resolved instruction captured during a simulated or
// live run, stamped with the tick index it was produced on.
type GuidanceSample struct {
	Tick        int
	Instruction nav.DirectionInstruction
}

// GuidanceReport renders an HTML report of a guidance run: the route
// geometry plus the angle-difference and distance series over ticks.
func GuidanceReport(route *nav.Route, keypoints []nav.Keypoint, samples []GuidanceSample, outPath string) error {
	if route == nil {
		return fmt.Errorf("guidance report: nil route")
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("Guidance report: %s", route.Name))
	page.AddCharts(routeScatter(route, keypoints), angleSeries(samples), distanceSeries(samples))

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func routeScatter(route *nav.Route, keypoints []nav.Keypoint) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Route geometry",
			Subtitle: fmt.Sprintf("%d crumbs, %d keypoints", len(route.Crumbs), len(keypoints)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)"}),
	)

	trail := make([]opts.ScatterData, 0, len(route.Crumbs))
	for _, c := range route.Crumbs {
		trail = append(trail, opts.ScatterData{Value: []interface{}{c.Pose.X(), c.Pose.Y()}})
	}
	scatter.AddSeries("crumbs", trail, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	kps := make([]opts.ScatterData, 0, len(keypoints))
	for _, kp := range keypoints {
		kps = append(kps, opts.ScatterData{Value: []interface{}{kp.Pose.X(), kp.Pose.Y()}})
	}
	scatter.AddSeries("keypoints", kps, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 10}))
	return scatter
}

func angleSeries(samples []GuidanceSample) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Angle difference", Subtitle: "radians per tick"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rad"}),
	)
	x := make([]int, 0, len(samples))
	y := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		x = append(x, s.Tick)
		y = append(y, opts.LineData{Value: s.Instruction.AngleDiffRadians})
	}
	line.SetXAxis(x).AddSeries("angle_diff", y)
	return line
}

func distanceSeries(samples []GuidanceSample) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Distance to keypoint", Subtitle: "meters per tick"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "tick"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "m"}),
	)
	x := make([]int, 0, len(samples))
	y := make([]opts.LineData, 0, len(samples))
	for _, s := range samples {
		x = append(x, s.Tick)
		y = append(y, opts.LineData{Value: s.Instruction.DistanceMeters})
	}
	line.SetXAxis(x).AddSeries("distance", y)
	return line
}
