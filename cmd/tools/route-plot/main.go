// Command route-plot renders a stored route and its simplified keypoints to
// a PNG for tuning the simplification thresholds.
package main

import (
	"flag"
	"log"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/nav/monitor"
	"github.com/breadcrumb-labs/waypath/internal/routedb"
	"github.com/google/uuid"
)

func main() {
	dbPath := flag.String("db", "routes.db", "route database path")
	routeID := flag.String("route", "", "route id")
	modeName := flag.String("mode", "STANDARD", "guidance mode: STANDARD or ACCESSIBLE")
	output := flag.String("o", "route.png", "output PNG path")
	flag.Parse()

	if *routeID == "" {
		log.Fatal("need -route <id>")
	}
	id, err := uuid.Parse(*routeID)
	if err != nil {
		log.Fatalf("bad -route: %v", err)
	}
	mode, err := nav.ParseMode(*modeName)
	if err != nil {
		log.Fatalf("bad -mode: %v", err)
	}

	db, err := routedb.Open(*dbPath)
	if err != nil {
		log.Fatalf("open route db: %v", err)
	}
	defer db.Close()

	route, err := db.LoadRoute(id)
	if err != nil {
		log.Fatalf("load route: %v", err)
	}

	keypoints, err := nav.NewSimplifier(config.EmptyTuningConfig()).Simplify(route.Crumbs, mode)
	if err != nil {
		log.Fatalf("simplify: %v", err)
	}

	if err := monitor.TrailPlot(route, keypoints, *output); err != nil {
		log.Fatalf("plot: %v", err)
	}
	log.Printf("✓ wrote %s (%d crumbs, %d keypoints)", *output, len(route.Crumbs), len(keypoints))
}
