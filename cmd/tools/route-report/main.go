// Command route-report simulates a guidance run over a stored route and
// renders an HTML report of the instruction stream for tuning review.
package main

import (
	"flag"
	"log"
	"sync"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/nav/monitor"
	"github.com/breadcrumb-labs/waypath/internal/nav/session"
	"github.com/breadcrumb-labs/waypath/internal/routedb"
	"github.com/breadcrumb-labs/waypath/internal/timeutil"
	"github.com/google/uuid"
)

func main() {
	dbPath := flag.String("db", "routes.db", "route database path")
	routeID := flag.String("route", "", "route id")
	modeName := flag.String("mode", "STANDARD", "guidance mode: STANDARD or ACCESSIBLE")
	reverse := flag.Bool("reverse", false, "walk the route end to begin")
	output := flag.String("o", "report.html", "output HTML path")
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

	cfg := config.EmptyTuningConfig()
	keypoints, err := nav.NewSimplifier(cfg).Simplify(route.Crumbs, mode)
	if err != nil {
		log.Fatalf("simplify: %v", err)
	}

	samples := simulate(cfg, route, mode, *reverse)
	if err := monitor.GuidanceReport(route, keypoints, samples, *output); err != nil {
		log.Fatalf("report: %v", err)
	}
	log.Printf("✓ wrote %s (%d samples)", *output, len(samples))
}

// simulate replays the route's own crumbs as live poses and captures every
// emitted instruction.
func simulate(cfg *config.TuningConfig, route *nav.Route, mode nav.Mode, reverse bool) []monitor.GuidanceSample {
	sink := &captureSink{}
	provider := &poseCell{}
	s := session.New(cfg, timeutil.RealClock{}, provider, sink)
	if err := s.StartNavigation(route, mode, reverse); err != nil {
		log.Fatalf("start navigation: %v", err)
	}

	crumbs := route.Crumbs
	if reverse {
		crumbs = nav.ReverseCrumbs(crumbs)
	}
	for i, c := range crumbs {
		sink.tick = i
		provider.set(c.Pose)
		s.Tick()
		if s.Phase() == session.PhaseIdle {
			break
		}
	}
	return sink.samples
}

type poseCell struct {
	mu   sync.Mutex
	pose geom.Pose
	ok   bool
}

func (p *poseCell) CurrentPose() (geom.Pose, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pose, p.ok
}

func (p *poseCell) set(pose geom.Pose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pose = pose
	p.ok = true
}

type captureSink struct {
	session.NopSink
	tick    int
	samples []monitor.GuidanceSample
}

func (c *captureSink) Instruction(inst nav.DirectionInstruction) {
	c.samples = append(c.samples, monitor.GuidanceSample{Tick: c.tick, Instruction: inst})
}
