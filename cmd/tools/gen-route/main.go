// Command gen-route generates synthetic routes for testing the guidance
// engine and the diagnostic tools without a live tracking device.
package main

import (
	"flag"
	"log"
	"math"
	"time"

	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/routedb"
	"github.com/google/uuid"
)

func main() {
	dbPath := flag.String("db", "routes.db", "route database path")
	name := flag.String("name", "synthetic", "route name")
	shape := flag.String("shape", "corner", "trail shape: straight, corner, slalom, stairs")
	length := flag.Float64("length", 10, "leg length in meters")
	step := flag.Float64("step", 0.1, "crumb spacing in meters")
	flag.Parse()

	var crumbs []nav.Crumb
	switch *shape {
	case "straight":
		crumbs = leg(nil, 0, *length, *step, 0)
	case "corner":
		crumbs = leg(nil, 0, *length, *step, 0)
		crumbs = leg(crumbs, math.Pi/2, *length, *step, 0)
	case "slalom":
		crumbs = leg(nil, 0.4, *length/2, *step, 0)
		crumbs = leg(crumbs, -0.4, *length/2, *step, 0)
		crumbs = leg(crumbs, 0.4, *length/2, *step, 0)
		crumbs = leg(crumbs, -0.4, *length/2, *step, 0)
	case "stairs":
		crumbs = leg(nil, 0, *length/2, *step, 0)
		crumbs = leg(crumbs, 0, *length/4, *step, 0.5) // steep climb
		crumbs = leg(crumbs, 0, *length/2, *step, 0)
	default:
		log.Fatalf("unknown shape %q", *shape)
	}

	route := &nav.Route{
		ID:         uuid.New(),
		Name:       *name,
		RecordedAt: time.Now(),
		Crumbs:     crumbs,
		Begin:      landmark(crumbs, false),
		End:        landmark(nav.ReverseCrumbs(crumbs), true),
	}

	db, err := routedb.Open(*dbPath)
	if err != nil {
		log.Fatalf("open route db: %v", err)
	}
	defer db.Close()
	if err := db.SaveRoute(route); err != nil {
		log.Fatalf("save route: %v", err)
	}
	log.Printf("✓ saved %q (%s): %d crumbs", route.Name, route.ID, len(route.Crumbs))
}

// leg extends the trail by walking dist meters at the given heading, with an
// optional rise-over-run grade.
func leg(crumbs []nav.Crumb, heading, dist, step, grade float64) []nav.Crumb {
	x, y, z := 0.0, 0.0, 0.0
	if len(crumbs) > 0 {
		last := crumbs[len(crumbs)-1].Pose
		x, y, z = last.X(), last.Y(), last.Z()
	}
	n := int(dist / step)
	for i := 1; i <= n; i++ {
		x += step * math.Cos(heading)
		y += step * math.Sin(heading)
		z += step * grade
		crumbs = append(crumbs, nav.Crumb{Pose: geom.Pose{
			Transform: geom.FromYaw(heading, x, y, z),
			UnixNanos: int64(len(crumbs)) * int64(100*time.Millisecond),
		}})
	}
	if len(crumbs) == 0 {
		crumbs = append(crumbs, nav.Crumb{Pose: geom.Pose{Transform: geom.FromYaw(heading, x, y, z)}})
	}
	return crumbs
}

// landmark derives a soft begin/end landmark the way a recording session
// would: position of the first crumb, yaw from the first clear segment.
func landmark(crumbs []nav.Crumb, reversed bool) nav.RouteLandmark {
	first := crumbs[0].Pose
	yaw := first.Yaw()
	for i := 1; i < len(crumbs); i++ {
		if geom.PlanarDistance(first.Transform, crumbs[i].Pose.Transform) >= 0.5 {
			yaw = geom.Bearing(first.Transform, crumbs[i].Pose.Transform)
			break
		}
	}
	if reversed {
		yaw = geom.NormalizeAngle(yaw + math.Pi)
	}
	return nav.RouteLandmark{
		Pose: geom.Pose{
			Transform: geom.FromYaw(yaw, first.X(), first.Y(), first.Z()),
			UnixNanos: first.UnixNanos,
		},
		IsSoftAlignment: true,
	}
}
