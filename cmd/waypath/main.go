// Command waypath lists stored routes and replays them through the guidance
// engine, printing the instruction stream a presentation layer would render.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"strings"
	"sync"

	"github.com/breadcrumb-labs/waypath/internal/config"
	"github.com/breadcrumb-labs/waypath/internal/geom"
	"github.com/breadcrumb-labs/waypath/internal/nav"
	"github.com/breadcrumb-labs/waypath/internal/nav/session"
	"github.com/breadcrumb-labs/waypath/internal/routedb"
	"github.com/breadcrumb-labs/waypath/internal/timeutil"
	"github.com/breadcrumb-labs/waypath/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	dbPath := flag.String("db", "routes.db", "route database path")
	list := flag.Bool("list", false, "list stored routes and exit")
	routeName := flag.String("route", "", "route name or id to navigate")
	modeName := flag.String("mode", "STANDARD", "guidance mode: STANDARD or ACCESSIBLE")
	reverse := flag.Bool("reverse", false, "walk the route end to begin")
	cfgPath := flag.String("config", "", "tuning config JSON (defaults baked in when empty)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("waypath %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg := config.EmptyTuningConfig()
	if *cfgPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(*cfgPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
	}

	db, err := routedb.Open(*dbPath)
	if err != nil {
		log.Fatalf("open route db: %v", err)
	}
	defer db.Close()

	if *list {
		listRoutes(db)
		return
	}
	if *routeName == "" {
		log.Fatal("need -route <name or id> (or -list)")
	}

	mode, err := nav.ParseMode(*modeName)
	if err != nil {
		log.Fatalf("bad -mode: %v", err)
	}

	route, err := findRoute(db, *routeName)
	if err != nil {
		log.Fatalf("find route: %v", err)
	}

	if err := replay(cfg, route, mode, *reverse); err != nil {
		log.Fatalf("replay: %v", err)
	}
}

func listRoutes(db *routedb.DB) {
	infos, err := db.ListRoutes()
	if err != nil {
		log.Fatalf("list routes: %v", err)
	}
	if len(infos) == 0 {
		fmt.Println("no routes stored")
		return
	}
	for _, info := range infos {
		fmt.Printf("%s  %-30s  %4d crumbs  %s\n",
			info.ID, info.Name, info.CrumbCount, info.RecordedAt.Format("2006-01-02 15:04:05"))
	}
}

func findRoute(db *routedb.DB, nameOrID string) (*nav.Route, error) {
	infos, err := db.ListRoutes()
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == nameOrID || info.ID.String() == nameOrID {
			return db.LoadRoute(info.ID)
		}
	}
	return nil, fmt.Errorf("no route named %q", nameOrID)
}

// replay walks the route's own crumbs through a navigation session, as if
// the recorded walk were happening live.
func replay(cfg *config.TuningConfig, route *nav.Route, mode nav.Mode, reverse bool) error {
	provider := &scriptedProvider{}
	s := session.New(cfg, timeutil.RealClock{}, provider, &printSink{})

	if err := s.StartNavigation(route, mode, reverse); err != nil {
		return err
	}
	fmt.Printf("navigating %q (%s, reverse=%v): %d keypoints from %d crumbs\n",
		route.Name, mode, reverse, len(s.Remaining()), len(route.Crumbs))

	crumbs := route.Crumbs
	if reverse {
		crumbs = nav.ReverseCrumbs(crumbs)
	}
	for _, c := range crumbs {
		provider.set(c.Pose)
		s.Tick()
		if s.Phase() == session.PhaseIdle {
			break
		}
	}
	if s.Phase() != session.PhaseIdle {
		fmt.Printf("replay ended with %d keypoints unreached\n", len(s.Remaining()))
		s.Stop()
	}
	return nil
}

type scriptedProvider struct {
	mu   sync.Mutex
	pose geom.Pose
	ok   bool
}

func (p *scriptedProvider) CurrentPose() (geom.Pose, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pose, p.ok
}

func (p *scriptedProvider) set(pose geom.Pose) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pose = pose
	p.ok = true
}

// printSink renders instructions the way a speech layer would phrase them.
type printSink struct {
	last nav.DirectionInstruction
	any  bool
}

func (ps *printSink) Instruction(inst nav.DirectionInstruction) {
	// Only print when the cue materially changes; per-tick output is noise.
	if ps.any && inst.ClockDirection == ps.last.ClockDirection &&
		inst.Target == ps.last.Target && inst.Slope == ps.last.Slope &&
		math.Abs(inst.DistanceMeters-ps.last.DistanceMeters) < 1.0 {
		return
	}
	ps.last = inst
	ps.any = true

	var b strings.Builder
	if inst.AnnounceDistance {
		fmt.Fprintf(&b, "in %.1f m, ", inst.DistanceMeters)
	}
	switch {
	case inst.ClockDirection == 0:
		b.WriteString("continue straight ahead")
	default:
		fmt.Fprintf(&b, "turn toward %d o'clock", clockLabel(inst.ClockDirection))
	}
	switch inst.Slope {
	case nav.SlopeAscending:
		b.WriteString(" (ascending)")
	case nav.SlopeDescending:
		b.WriteString(" (descending)")
	}
	fmt.Printf("  %s  [haptic %d]\n", b.String(), inst.HapticDirection)
}

func (ps *printSink) KeypointReached(kp nav.Keypoint) {
	fmt.Printf("* keypoint reached at (%.1f, %.1f)\n", kp.Pose.X(), kp.Pose.Y())
}

func (ps *printSink) RouteComplete() {
	fmt.Println("* route complete")
}

func (ps *printSink) DriftCorrection(tr geom.Transform) {
	fmt.Printf("* drift correction: yaw %.3f rad, shift (%.2f, %.2f)\n",
		math.Atan2(tr.R[3], tr.R[0]), tr.T[0], tr.T[1])
}

func (ps *printSink) Aligned(tr geom.Transform) {
	fmt.Printf("* aligned: yaw %.3f rad, shift (%.2f, %.2f)\n",
		math.Atan2(tr.R[3], tr.R[0]), tr.T[0], tr.T[1])
}

// clockLabel maps bucket 0..11 onto spoken clock positions (12, 1..11).
func clockLabel(bucket int) int {
	if bucket == 0 {
		return 12
	}
	return bucket
}
